package extraction

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/poiesic/patentmark/ai"
)

// IsTransient reports whether err is worth another attempt.
// Context cancellation is never transient; a per-attempt deadline is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrClassifierPanic) {
		return false
	}

	var statusErr *ai.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	switch {
	case errors.Is(err, ai.ErrMalformedResponse),
		errors.Is(err, ai.ErrEmptyResponse),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
