package checkout

import "errors"

var (
	// ErrNotFound means no session exists for the given key.
	ErrNotFound = errors.New("checkout session not found")

	// ErrTransitionInFlight means another transition on the same session
	// is still executing. Callers should surface this as a conflict, not
	// retry blindly.
	ErrTransitionInFlight = errors.New("checkout transition already in flight")

	// ErrInvalidTransition means the requested operation is not legal
	// from the session's current state.
	ErrInvalidTransition = errors.New("invalid checkout transition")

	// ErrSessionTerminal means the session has already confirmed, failed
	// or been cancelled.
	ErrSessionTerminal = errors.New("checkout session is terminal")
)
