package timeline

import "github.com/leapstack-labs/flowline/internal/flow"

// Style classes attached to boxes. Exactly one state class is present.
const (
	ClassNode       = "node"
	ClassPending    = "pending"
	ClassRunning    = "running"
	ClassSuccessful = "successful"
	ClassFailed     = "failed"
	ClassSelected   = "selected"
	ClassLifecycle  = "lifecycle"
)

// Classes returns the style classes for a stage.
func Classes(state flow.State, selected bool) []string {
	classes := []string{ClassNode, stateClass(state)}
	if selected {
		classes = append(classes, ClassSelected)
	}
	return classes
}

func stateClass(state flow.State) string {
	switch state {
	case flow.StateRunning:
		return ClassRunning
	case flow.StateSuccessful:
		return ClassSuccessful
	case flow.StateFailed:
		return ClassFailed
	default:
		return ClassPending
	}
}
