package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse indicates model output that is not a JSON object or
	// lacks the task's relevance signal.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyResponse indicates the model returned no choices.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrInvalidTask indicates a task that cannot be sent to a model.
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidConfig indicates an unusable AI configuration.
	ErrInvalidConfig = errors.New("invalid ai config")
)

// StatusError is an HTTP error returned by the model endpoint.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model endpoint returned status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the status is rate limiting or a server error.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}
