package lifecycle

import "errors"

var (
	// ErrValidation covers missing or malformed input. Nothing is persisted.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the referenced entity id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a conditional update matched zero rows: the current
	// state no longer satisfies the expected pre-state, either because the
	// caller's view is stale or because the transition already happened.
	ErrConflict = errors.New("status conflict")
)
