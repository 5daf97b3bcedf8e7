package flow

// Regression describes a stage whose state moved backwards between two
// snapshots of the same graph.
type Regression struct {
	StageID string
	From    State
	To      State
}

// Merge folds a newer snapshot over the previous one while keeping stage
// states monotonic: a stage that was already terminal (or running) is never
// replaced by an earlier state. The newer snapshot's stage order and graph
// fields win otherwise. Neither input is modified.
func Merge(prev, next *Graph) (*Graph, []Regression) {
	if next == nil {
		return prev, nil
	}
	if prev == nil || prev.ID != next.ID {
		return next, nil
	}

	seen := make(map[string]Stage, len(prev.Nodes))
	for _, n := range prev.Nodes {
		seen[n.StageID] = n
	}

	merged := *next
	merged.Nodes = make([]Stage, len(next.Nodes))

	var regressions []Regression
	for i, n := range next.Nodes {
		old, ok := seen[n.StageID]
		if ok && (n.State.rank() < old.State.rank() || (old.State.Terminal() && n.State != old.State)) {
			regressions = append(regressions, Regression{StageID: n.StageID, From: old.State, To: n.State})
			merged.Nodes[i] = old
			continue
		}
		merged.Nodes[i] = n
	}

	// Graph level bounds only move forward too.
	if merged.MainEnded.IsZero() {
		merged.MainEnded = prev.MainEnded
	}
	if merged.Finished.IsZero() {
		merged.Finished = prev.Finished
	}

	return &merged, regressions
}
