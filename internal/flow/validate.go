package flow

import (
	"fmt"
	"strings"
)

// Issue is a data-quality problem found in a snapshot. Issues never stop a
// snapshot from being rendered; the layout degrades the affected stage.
type Issue struct {
	StageID string
	Message string
}

func (i Issue) String() string {
	if i.StageID == "" {
		return i.Message
	}
	return fmt.Sprintf("stage %s: %s", i.StageID, i.Message)
}

// Validate reports timestamp, state and dependency problems in g.
func Validate(g *Graph) []Issue {
	var issues []Issue
	add := func(stage, format string, args ...any) {
		issues = append(issues, Issue{StageID: stage, Message: fmt.Sprintf(format, args...)})
	}

	if g.Created.IsZero() {
		add("", "graph has no created timestamp")
	}
	if !g.MainEnded.IsZero() && g.MainEnded.Before(g.Created) {
		add("", "main_ended precedes created")
	}
	if !g.MainEnded.IsZero() && !g.Finished.IsZero() && g.Finished.Before(g.MainEnded) {
		add("", "finished precedes main_ended")
	}

	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.StageID] {
			add(n.StageID, "duplicate stage id")
		}
		ids[n.StageID] = true

		if !n.State.Valid() {
			add(n.StageID, "unknown state %q", n.State)
		}
		if n.Created.Before(g.Created) {
			add(n.StageID, "created before the graph")
		}

		switch {
		case n.State == StatePending:
			if !n.Started.IsZero() || !n.Completed.IsZero() {
				add(n.StageID, "pending stage has start or completion time")
			}
		case n.Started.IsZero():
			add(n.StageID, "%s stage has no started timestamp", n.State)
		case n.Started.Before(n.Created):
			add(n.StageID, "started before created")
		}

		if n.State.Terminal() && n.Completed.IsZero() {
			add(n.StageID, "%s stage has no completed timestamp", n.State)
		}
		if !n.Completed.IsZero() && !n.Started.IsZero() && n.Completed.Before(n.Started) {
			add(n.StageID, "completed before started")
		}
	}

	deps := g.Dependencies()
	for _, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			switch {
			case dep == n.StageID:
				add(n.StageID, "depends on itself")
			case !ids[dep]:
				add(n.StageID, "depends on unknown stage %q", dep)
			}
		}
	}
	if cycle, found := deps.FindCycle(); found {
		add("", "dependency cycle: %s", strings.Join(cycle, " -> "))
	}

	return issues
}
