package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

// Default concurrency ceilings.
const (
	DefaultMaxConcurrentRequests = 6
	DefaultMaxConcurrentWrites   = 100
)

// Controller bounds concurrent classifier calls and concurrent checkpoint writes.
// Each ceiling is an ants pool; a task holds its slot until it returns, and
// Submit blocks while the pool is full.
type Controller struct {
	requests *ants.Pool
	writes   *ants.Pool
	logger   *slog.Logger
}

// antsLoggerAdapter adapts slog.Logger to the ants.Logger interface.
type antsLoggerAdapter struct {
	logger *slog.Logger
}

var _ ants.Logger = (*antsLoggerAdapter)(nil)

func (al *antsLoggerAdapter) Printf(format string, args ...any) {
	al.logger.Debug(fmt.Sprintf(format, args...))
}

// NewController creates the request and write pools.
// Sizes below 1 are raised to 1.
func NewController(maxRequests, maxWrites int, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "controller")
	maxRequests = max(1, maxRequests)
	maxWrites = max(1, maxWrites)

	requests, err := newPool("requests", maxRequests, logger)
	if err != nil {
		return nil, err
	}
	writes, err := newPool("writes", maxWrites, logger)
	if err != nil {
		requests.Release()
		return nil, err
	}

	return &Controller{
		requests: requests,
		writes:   writes,
		logger:   logger,
	}, nil
}

func newPool(name string, size int, logger *slog.Logger) (*ants.Pool, error) {
	poolLogger := logger.With("pool", name)
	return ants.NewPool(size,
		ants.WithLogger(&antsLoggerAdapter{logger: poolLogger}),
		ants.WithPanicHandler(func(r any) {
			poolLogger.Error("task panicked", "panic", r)
		}),
	)
}

// SubmitRequest runs fn in a request slot. It blocks while all slots are busy
// and refuses new work once ctx is done.
func (c *Controller) SubmitRequest(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.requests.Submit(fn)
}

// SubmitWrite runs fn in a write slot, blocking while all slots are busy.
func (c *Controller) SubmitWrite(fn func()) error {
	return c.writes.Submit(fn)
}

// InFlight returns the number of running requests and writes.
func (c *Controller) InFlight() (requests, writes int) {
	return c.requests.Running(), c.writes.Running()
}

// Capacity returns the request and write ceilings.
func (c *Controller) Capacity() (requests, writes int) {
	return c.requests.Cap(), c.writes.Cap()
}

// Release tears down both pools. Running tasks finish; new submissions fail.
func (c *Controller) Release() {
	c.requests.Release()
	c.writes.Release()
}
