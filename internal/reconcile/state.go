package reconcile

import (
	"fmt"

	"traktflix/internal/services"
)

// State is the reconciliation phase of a single activity.
type State int

const (
	StateIdle State = iota
	StateAwaitingCorrection
	StateSubmitting
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCorrection:
		return "awaiting_correction"
	case StateSubmitting:
		return "submitting"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name for JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FormVisible reports whether the correction input is shown.
func (s State) FormVisible() bool {
	return s == StateAwaitingCorrection || s == StateSubmitting || s == StateError
}

// HasError reports whether the last submission failed.
func (s State) HasError() bool {
	return s == StateError
}

// Busy reports whether a submission is in flight.
func (s State) Busy() bool {
	return s == StateSubmitting
}

// Event is a user action or resolver outcome.
type Event int

const (
	EventOpenCorrection Event = iota
	EventHideCorrection
	EventSubmit
	EventResolved
	EventFailed
)

func (e Event) String() string {
	switch e {
	case EventOpenCorrection:
		return "open_correction"
	case EventHideCorrection:
		return "hide_correction"
	case EventSubmit:
		return "submit"
	case EventResolved:
		return "resolved"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Apply returns the state reached by applying e, or an error wrapping
// services.ErrIllegalTransition. The receiver is never modified.
func (s State) Apply(e Event) (State, error) {
	switch e {
	case EventOpenCorrection:
		switch s {
		case StateIdle, StateAwaitingCorrection, StateError:
			return StateAwaitingCorrection, nil
		}
	case EventHideCorrection:
		switch s {
		case StateAwaitingCorrection, StateError:
			return StateIdle, nil
		}
	case EventSubmit:
		switch s {
		case StateAwaitingCorrection, StateError:
			return StateSubmitting, nil
		case StateSubmitting:
			return s, fmt.Errorf("%w: %w", services.ErrSubmissionInFlight, services.ErrIllegalTransition)
		}
	case EventResolved:
		if s == StateSubmitting {
			return StateIdle, nil
		}
	case EventFailed:
		if s == StateSubmitting {
			return StateError, nil
		}
	}
	return s, fmt.Errorf("%w: %s from %s", services.ErrIllegalTransition, e, s)
}
