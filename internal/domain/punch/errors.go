package punch

import "errors"

// Punch domain errors
var (
	// Punch-in errors
	ErrAlreadyPunchedIn   = errors.New("an attendance session is already active")
	ErrPreconditionFailed = errors.New("punch-in preconditions not met")
	ErrOutOfRange         = errors.New("you are outside the allowed punch-in radius")

	// Punch-out errors
	ErrNotPunchedIn    = errors.New("no active attendance session")
	ErrSessionNotFound = errors.New("attendance session not found")

	// Cache errors
	ErrCacheMiss = errors.New("no cached session")
)
