package timeline

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/leapstack-labs/flowline/internal/flow"
)

// eventBuffer bounds the number of queued external events.
const eventBuffer = 32

// Options configures a Session.
type Options struct {
	Config Config
	// Live sets whether the view starts out tracking real time.
	Live   bool
	Clock  Clock
	Logger *slog.Logger
	// OnFrame receives every committed frame, from the session goroutine.
	OnFrame func(Frame)
	// OnNodeSelected is called synchronously on every selection; stage is nil
	// when the selection is cleared. It must not block.
	OnNodeSelected func(g *flow.Graph, stage *flow.Stage)
}

// Session is one timeline attached to one flow. All state changes happen on
// the goroutine running Run; the exported event methods only enqueue.
type Session struct {
	id       string
	cfg      Config
	clock    Clock
	logger   *slog.Logger
	onFrame  func(Frame)
	onSelect func(*flow.Graph, *flow.Stage)

	driver *Driver
	graph  *flow.Graph
	state  State
	seq    uint64

	events chan Event
	done   chan struct{}
	last   atomic.Pointer[Frame]
}

// NewSession creates a session for g. Nothing ticks until Attach or Run.
func NewSession(g *flow.Graph, opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := opts.Config
	if cfg.Density == 0 {
		cfg = DefaultConfig()
	}

	id := uuid.New().String()
	logger = logger.With("session", id)

	return &Session{
		id:       id,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
		onFrame:  opts.OnFrame,
		onSelect: opts.OnNodeSelected,
		driver:   NewDriver(clock, cfg.TickInterval, logger),
		graph:    g,
		state:    NewState(opts.Live, clock.Now()),
		events:   make(chan Event, eventBuffer),
		done:     make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Frame returns the most recently committed frame.
func (s *Session) Frame() Frame {
	if f := s.last.Load(); f != nil {
		return *f
	}
	return Compose(s.graph, s.state, s.cfg)
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Push delivers a new graph snapshot.
func (s *Session) Push(g *flow.Graph) { s.send(SnapshotArrived{Graph: g}) }

// Complete delivers the flow completion signal.
func (s *Session) Complete() { s.send(Complete{At: s.clock.Now()}) }

// Select highlights a stage; an empty id clears the selection.
func (s *Session) Select(stageID string) { s.send(Select{StageID: stageID}) }

// Scroll records a manual scroll.
func (s *Session) Scroll() { s.send(Scroll{}) }

// Detach tears the session down; Run returns after processing it.
func (s *Session) Detach() { s.send(Detach{}) }

func (s *Session) send(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Run attaches the view and processes events until ctx is cancelled or the
// session is detached. The live ticker is always released before Run
// returns.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.driver.Stop()

	s.Attach()

	for {
		select {
		case <-ctx.Done():
			s.Apply(Detach{})
			return nil

		case ev := <-s.events:
			s.Apply(ev)
			if s.state.Detached {
				return nil
			}

		case <-s.driver.C():
			s.Apply(Tick{Now: s.clock.Now()})
		}
	}
}

// Attach starts the live clock if the view is live and commits the first
// frame. Run calls it; tests that drive Apply directly call it themselves.
func (s *Session) Attach() Frame {
	s.logger.Debug("session attached", "graph", graphID(s.graph), "live", s.state.Live)
	s.syncDriver()
	return s.commit()
}

// Apply runs one event through the reducer, performs its side effects and
// commits a frame. It must only be called from the session goroutine.
func (s *Session) Apply(ev Event) Frame {
	prev := s.state

	switch e := ev.(type) {
	case SnapshotArrived:
		merged, regressions := flow.Merge(s.graph, e.Graph)
		for _, r := range regressions {
			s.logger.Warn("ignoring stage state regression", "stage", r.StageID, "from", r.From, "to", r.To)
		}
		if merged != nil {
			for _, issue := range flow.Validate(merged) {
				s.logger.Debug("snapshot issue", "graph", merged.ID, "issue", issue.String())
			}
		}
		s.graph = merged
		ev = SnapshotArrived{Graph: merged}

	case Select:
		if e.StageID != "" {
			if _, ok := s.graph.Stage(e.StageID); !ok {
				s.logger.Debug("ignoring selection of unknown stage", "stage", e.StageID)
				return s.Frame()
			}
		}
	}

	s.state = Reduce(s.state, ev)

	if prev.SelectedStageID != "" && s.state.SelectedStageID == "" {
		if _, ok := ev.(SnapshotArrived); ok {
			s.logger.Debug("selected stage left the snapshot", "stage", prev.SelectedStageID)
		}
	}
	if prev.Live && !s.state.Live {
		s.logger.Debug("live tracking disabled", "event", eventName(ev))
	}

	// The driver must be stopped before the loop can read another tick.
	s.syncDriver()

	if sel, ok := ev.(Select); ok && s.onSelect != nil {
		stage, _ := s.graph.Stage(sel.StageID)
		s.onSelect(s.graph, stage)
	}

	return s.commit()
}

func (s *Session) syncDriver() {
	if s.state.Live && !s.state.Detached {
		s.driver.Start()
		return
	}
	s.driver.Stop()
}

func (s *Session) commit() Frame {
	s.seq++
	f := Compose(s.graph, s.state, s.cfg)
	f.Seq = s.seq
	f.SessionID = s.id
	s.last.Store(&f)
	if s.onFrame != nil {
		s.onFrame(f)
	}
	return f
}

func graphID(g *flow.Graph) string {
	if g == nil {
		return ""
	}
	return g.ID
}

func eventName(ev Event) string {
	switch ev.(type) {
	case Tick:
		return "tick"
	case SnapshotArrived:
		return "snapshot"
	case Select:
		return "select"
	case Scroll:
		return "scroll"
	case Complete:
		return "complete"
	case Detach:
		return "detach"
	}
	return "unknown"
}
