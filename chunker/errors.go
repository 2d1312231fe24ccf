package chunker

import "errors"

var (
	// ErrInvalidParams is returned when the window parameters cannot produce a
	// positive step. It is a configuration error and must abort a run before
	// any work is scheduled.
	ErrInvalidParams = errors.New("invalid chunking parameters")
)
