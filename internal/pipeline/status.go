package pipeline

import (
	"retroboard/internal/model"
)

// legalTransitions is the status state machine for cards and action items.
// done and closed never reach each other directly; both must pass through
// pending.
var legalTransitions = map[string]map[string]bool{
	model.StatusPending: {
		model.StatusDone:   true, // complete
		model.StatusClosed: true, // close
	},
	model.StatusDone: {
		model.StatusPending: true, // reopen
	},
	model.StatusClosed: {
		model.StatusPending: true, // reopen
	},
}

// CheckTransition returns an InvalidStateError when moving from one status
// to another is not allowed.
func CheckTransition(from, to string) error {
	if legalTransitions[from][to] {
		return nil
	}
	return &InvalidStateError{From: from, To: to}
}
