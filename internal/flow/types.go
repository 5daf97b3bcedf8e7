// Package flow holds the read-only model of a flow graph as delivered by the
// snapshot feed: the graph's overall timing bounds and its stages.
package flow

import (
	"time"

	"github.com/leapstack-labs/flowline/internal/dag"
)

// State is the execution state of a stage.
type State string

// Stage states. Successful and failed are terminal.
const (
	StatePending    State = "pending"
	StateRunning    State = "running"
	StateSuccessful State = "successful"
	StateFailed     State = "failed"
)

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return s == StateSuccessful || s == StateFailed
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StatePending, StateRunning, StateSuccessful, StateFailed:
		return true
	}
	return false
}

// rank orders states so regressions can be detected.
func (s State) rank() int {
	switch s {
	case StateRunning:
		return 1
	case StateSuccessful, StateFailed:
		return 2
	default:
		return 0
	}
}

// Stage is one unit of work within a flow. Absent timestamps are zero.
type Stage struct {
	StageID      string
	Op           string
	State        State
	Created      time.Time
	Started      time.Time
	Completed    time.Time
	Dependencies []string
	CallID       string
}

// Duration returns the run time of a completed stage.
func (s Stage) Duration() (time.Duration, bool) {
	if s.Started.IsZero() || s.Completed.IsZero() {
		return 0, false
	}
	return s.Completed.Sub(s.Started), true
}

// Graph is a snapshot of a flow. Nodes keep discovery order.
type Graph struct {
	ID         string
	FunctionID string
	Created    time.Time
	MainEnded  time.Time
	Finished   time.Time
	Nodes      []Stage
}

// Stage looks up a stage by id.
func (g *Graph) Stage(id string) (*Stage, bool) {
	if g == nil {
		return nil, false
	}
	for i := range g.Nodes {
		if g.Nodes[i].StageID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// MainDone reports whether the top-level execution has ended.
func (g *Graph) MainDone() bool {
	return g != nil && !g.MainEnded.IsZero()
}

// Dependencies builds the dependency graph of the snapshot. Edges that
// reference unknown stages are skipped; Validate reports them.
func (g *Graph) Dependencies() *dag.Graph {
	d := dag.NewGraph()
	for _, n := range g.Nodes {
		d.AddStage(n.StageID)
	}
	for _, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			_ = d.AddDependency(n.StageID, dep)
		}
	}
	return d
}

// TransitiveDeps returns every stage the given stage waited on, directly or
// through other stages.
func (g *Graph) TransitiveDeps(stageID string) []string {
	return g.Dependencies().Upstream(stageID)
}
