package timeline

import (
	"time"

	"github.com/leapstack-labs/flowline/internal/flow"
)

// State is the view state of one attached timeline. It is a plain value:
// every transition goes through Reduce.
type State struct {
	Live            bool      `json:"live"`
	NowTs           time.Time `json:"now_ts"`
	SelectedStageID string    `json:"selected_stage_id,omitempty"`
	Detached        bool      `json:"detached,omitempty"`
}

// NewState returns the state of a freshly attached view.
func NewState(live bool, now time.Time) State {
	return State{Live: live, NowTs: now}
}

// Event is something that happened to the view.
type Event interface {
	event()
}

// Tick advances the cursor while live.
type Tick struct{ Now time.Time }

// SnapshotArrived carries a new graph snapshot.
type SnapshotArrived struct{ Graph *flow.Graph }

// Select highlights a stage. An empty StageID clears the selection.
type Select struct{ StageID string }

// Scroll is a manual viewport scroll by the user.
type Scroll struct{}

// Complete signals that the flow's main execution ended.
type Complete struct{ At time.Time }

// Detach tears the view down.
type Detach struct{}

func (Tick) event()            {}
func (SnapshotArrived) event() {}
func (Select) event()          {}
func (Scroll) event()          {}
func (Complete) event()        {}
func (Detach) event()          {}

// Reduce applies ev to st and returns the new state. Live tracking only ever
// turns off here; turning it back on means attaching a new view.
func Reduce(st State, ev Event) State {
	if st.Detached {
		return st
	}

	switch e := ev.(type) {
	case Tick:
		if st.Live && e.Now.After(st.NowTs) {
			st.NowTs = e.Now
		}

	case SnapshotArrived:
		if st.SelectedStageID != "" {
			if _, ok := e.Graph.Stage(st.SelectedStageID); !ok {
				st.SelectedStageID = ""
			}
		}

	case Select:
		if e.StageID != "" {
			st.Live = false
		}
		st.SelectedStageID = e.StageID

	case Scroll:
		st.Live = false

	case Complete:
		// A view the user already pinned keeps its frozen cursor.
		if st.Live && e.At.After(st.NowTs) {
			st.NowTs = e.At
		}
		st.Live = false

	case Detach:
		st.Live = false
		st.Detached = true
	}

	return st
}
