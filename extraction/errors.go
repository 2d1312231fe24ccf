package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMaxAttempts indicates that maxAttempts must be greater than zero.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than zero")

	// ErrInvalidConfig indicates unusable retry settings.
	ErrInvalidConfig = errors.New("invalid extraction config")

	// ErrClassifierPanic indicates the classifier panicked during a call.
	ErrClassifierPanic = errors.New("classifier panicked")
)

// Kind classifies a terminal extraction failure.
type Kind int

const (
	// KindTransient means retries were exhausted on retryable errors.
	KindTransient Kind = iota
	// KindPermanent means the error cannot be fixed by retrying.
	KindPermanent
	// KindCanceled means the caller's context ended the attempts.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindCanceled:
		return "canceled"
	}
	return "unknown"
}

// Error is the terminal failure of one chunk classification.
type Error struct {
	Kind     Kind
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failure after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
