package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/flowline/internal/flow"
	"github.com/leapstack-labs/flowline/internal/testutil"
)

func runningGraph() *flow.Graph {
	return &flow.Graph{
		ID:         "g",
		FunctionID: "app/fn",
		Created:    at(0),
		Nodes: []flow.Stage{
			{StageID: "a", Op: "supply", State: flow.StateSuccessful, Created: at(0), Started: at(10), Completed: at(60)},
			{StageID: "b", Op: "thenApply", State: flow.StateRunning, Created: at(60), Started: at(100), Dependencies: []string{"a"}},
		},
	}
}

type selection struct {
	graph *flow.Graph
	stage *flow.Stage
}

func newTestSession(t *testing.T, clock *fakeClock, live bool) (*Session, *[]selection) {
	t.Helper()
	var selected []selection
	s := NewSession(runningGraph(), Options{
		Config: DefaultConfig(),
		Live:   live,
		Clock:  clock,
		Logger: testutil.NewTestLogger(t),
		OnNodeSelected: func(g *flow.Graph, stage *flow.Stage) {
			selected = append(selected, selection{graph: g, stage: stage})
		},
	})
	return s, &selected
}

func TestSession_AttachStartsDriverWhenLive(t *testing.T) {
	clock := newFakeClock(at(150))
	s, _ := newTestSession(t, clock, true)

	f := s.Attach()
	assert.Equal(t, 1, clock.Active())
	assert.Equal(t, ModeTracking, f.Window.Mode)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, s.ID(), f.SessionID)
	assert.NotEmpty(t, s.ID())

	pinned, _ := newTestSession(t, newFakeClock(at(150)), false)
	pf := pinned.Attach()
	assert.Equal(t, ModePinned, pf.Window.Mode)
}

func TestSession_LiveGrowth(t *testing.T) {
	clock := newFakeClock(at(150))
	s, _ := newTestSession(t, clock, true)
	cfg := DefaultConfig()

	f := s.Attach()
	b, ok := f.Box("b")
	require.True(t, ok)
	assert.InDelta(t, 50*cfg.Density, b.Width, eps)

	f = s.Apply(Tick{Now: at(200)})
	b, _ = f.Box("b")
	assert.InDelta(t, 100*cfg.Density, b.Width, eps)
	assert.InDelta(t, 200*cfg.Density, f.CursorX, eps)
}

func TestSession_SelectStopsDriverAndIsIdempotent(t *testing.T) {
	clock := newFakeClock(at(150))
	s, selected := newTestSession(t, clock, true)
	s.Attach()

	first := s.Apply(Select{StageID: "a"})
	assert.Equal(t, 0, clock.Active(), "the ticker is stopped, not just flagged")
	assert.Equal(t, ModePinned, first.Window.Mode)
	assert.Equal(t, "a", first.State.SelectedStageID)

	second := s.Apply(Select{StageID: "a"})
	assert.Equal(t, first.Window, second.Window)
	assert.Equal(t, first.Layout, second.Layout)
	assert.Equal(t, 0, clock.Active())
	assert.Len(t, clock.tickers, 1, "no ticker is created on re-selection")

	require.Len(t, *selected, 2)
	assert.Equal(t, "a", (*selected)[0].stage.StageID)
	assert.Equal(t, "g", (*selected)[0].graph.ID)

	s.Apply(Select{})
	require.Len(t, *selected, 3)
	assert.Nil(t, (*selected)[2].stage)
	assert.False(t, s.Frame().State.Live)
}

func TestSession_SelectUnknownStageIsIgnored(t *testing.T) {
	clock := newFakeClock(at(150))
	s, selected := newTestSession(t, clock, true)
	s.Attach()

	f := s.Apply(Select{StageID: "nope"})
	assert.True(t, f.State.Live)
	assert.Equal(t, 1, clock.Active())
	assert.Empty(t, *selected)
}

func TestSession_CompletionFreezesTime(t *testing.T) {
	clock := newFakeClock(at(150))
	s, _ := newTestSession(t, clock, true)
	cfg := DefaultConfig()
	s.Attach()

	g := runningGraph()
	g.Nodes[1].State = flow.StateSuccessful
	g.Nodes[1].Completed = at(180)
	g.MainEnded = at(190)
	g.Finished = at(200)
	s.Apply(SnapshotArrived{Graph: g})

	f := s.Apply(Complete{At: at(210)})
	assert.Equal(t, 0, clock.Active())
	assert.False(t, f.State.Live)
	assert.Equal(t, ModePinned, f.Window.Mode)
	assert.InDelta(t, 200*cfg.Density+cfg.PinnedMargin, f.Window.Width, eps)

	after := s.Apply(Tick{Now: at(900)})
	assert.Equal(t, at(210), after.State.NowTs)
	assert.Equal(t, f.Window, after.Window)
}

func TestSession_SnapshotKeepsStatesMonotonic(t *testing.T) {
	clock := newFakeClock(at(150))
	s, _ := newTestSession(t, clock, false)
	s.Attach()

	stale := runningGraph()
	stale.Nodes[0].State = flow.StateRunning
	stale.Nodes[0].Completed = time.Time{}

	f := s.Apply(SnapshotArrived{Graph: stale})
	a, ok := f.Box("a")
	require.True(t, ok)
	assert.Equal(t, flow.StateSuccessful, a.State)
}

func TestSession_StaleSelectionClearedOnSnapshot(t *testing.T) {
	clock := newFakeClock(at(150))
	s, _ := newTestSession(t, clock, true)
	s.Attach()
	s.Apply(Select{StageID: "b"})

	g := runningGraph()
	g.Nodes = g.Nodes[:1]
	f := s.Apply(SnapshotArrived{Graph: g})
	assert.Empty(t, f.State.SelectedStageID)
	assert.False(t, f.State.Live)
}

func TestSession_RunTicksAndReleasesTickerOnCancel(t *testing.T) {
	clock := newFakeClock(at(150))
	frames := make(chan Frame, 64)
	s := NewSession(runningGraph(), Options{
		Config:  DefaultConfig(),
		Live:    true,
		Clock:   clock,
		Logger:  testutil.NewTestLogger(t),
		OnFrame: func(f Frame) { frames <- f },
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	first := receiveFrame(t, frames)
	assert.Equal(t, at(150), first.State.NowTs)

	clock.Set(at(300))
	clock.Fire()
	ticked := receiveFrame(t, frames)
	assert.Equal(t, at(300), ticked.State.NowTs)
	assert.Greater(t, ticked.Seq, first.Seq)

	cancel()
	require.NoError(t, <-errc)
	<-s.Done()
	assert.Equal(t, 0, clock.Active(), "no ticker may outlive the session")
}

func TestSession_RunCompletionStopsTicksBeforeNextTick(t *testing.T) {
	clock := newFakeClock(at(150))
	frames := make(chan Frame, 64)
	s := NewSession(runningGraph(), Options{
		Live:    true,
		Clock:   clock,
		OnFrame: func(f Frame) { frames <- f },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()
	receiveFrame(t, frames)

	s.Complete()
	completed := receiveFrame(t, frames)
	assert.False(t, completed.State.Live)
	assert.Equal(t, 0, clock.Active())

	clock.Set(at(999))
	clock.Fire()
	s.Scroll()
	next := receiveFrame(t, frames)
	assert.Equal(t, completed.State.NowTs, next.State.NowTs)

	s.Detach()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop after detach")
	}
	assert.Equal(t, 0, clock.Active())

	// events after detach are dropped without blocking
	s.Select("a")
}

func receiveFrame(t *testing.T, frames <-chan Frame) Frame {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
		return Frame{}
	}
}
