package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/patentmark/ai"
	"github.com/poiesic/patentmark/metrics"
	"golang.org/x/time/rate"
)

// Config holds retry and pacing settings for a Client.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries int

	// BackoffMin and BackoffMax bound the uniform wait between attempts.
	// Default: 2s and 3s
	BackoffMin time.Duration
	BackoffMax time.Duration

	// AttemptTimeout bounds a single call. Zero leaves it to the HTTP client.
	AttemptTimeout time.Duration

	// RequestsPerSecond paces calls across the client. Zero disables pacing.
	RequestsPerSecond float64

	// Burst is the limiter bucket size. Default: 1 when pacing is enabled.
	Burst int
}

// DefaultConfig returns the retry settings used by the markup stage.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BackoffMin: 2 * time.Second,
		BackoffMax: 3 * time.Second,
	}
}

// Validate checks the retry settings.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidConfig)
	}
	if c.BackoffMin < 0 || c.BackoffMax < c.BackoffMin {
		return fmt.Errorf("%w: backoff range [%s, %s] is invalid", ErrInvalidConfig, c.BackoffMin, c.BackoffMax)
	}
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("%w: attempt timeout must not be negative", ErrInvalidConfig)
	}
	if c.RequestsPerSecond < 0 || c.Burst < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Client classifies chunks through an ai.Classifier with retries.
// A Client is safe for concurrent use.
type Client struct {
	classifier ai.Classifier
	task       string
	config     Config
	backoff    func(int) time.Duration
	limiter    *rate.Limiter
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records attempts and retries on the collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTaskName labels logs and metrics.
func WithTaskName(name string) Option {
	return func(c *Client) {
		c.task = name
	}
}

// WithBackoff overrides the delay function between attempts.
func WithBackoff(delay func(attempt int) time.Duration) Option {
	return func(c *Client) {
		c.backoff = delay
	}
}

// NewClient creates a Client around classifier.
func NewClient(classifier ai.Classifier, config Config, opts ...Option) (*Client, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		classifier: classifier,
		task:       "classify",
		config:     config,
		backoff:    UniformBackoff(config.BackoffMin, config.BackoffMax),
		logger:     slog.Default(),
	}
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst == 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "extraction-client", "task", c.task)
	return c, nil
}

// Classify sends text to the classifier, retrying transient failures.
// Any returned error is an *Error.
func (c *Client) Classify(ctx context.Context, text string) (*ai.Result, error) {
	var result *ai.Result
	maxAttempts := c.config.MaxRetries + 1
	made := 0

	attempts, err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		made++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		c.metrics.RecordAttempt(c.task)

		r, err := c.attempt(ctx, text)
		if err != nil {
			c.logger.Info("classifier attempt failed", "err", err)
			if made < maxAttempts && IsTransient(err) && ctx.Err() == nil {
				c.metrics.RecordRetry(c.task)
			}
			return err
		}
		result = r
		return nil
	}, maxAttempts, c.backoff, IsTransient)

	if err == nil {
		return result, nil
	}
	return nil, c.terminal(ctx, attempts, err)
}

// attempt makes one call under the per-attempt timeout and turns panics into errors.
func (c *Client) attempt(ctx context.Context, text string) (result *ai.Result, err error) {
	if c.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.AttemptTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrClassifierPanic, r)
		}
	}()

	result, err = c.classifier.Classify(ctx, text)
	if err == nil && result == nil {
		err = ai.ErrEmptyResponse
	}
	return result, err
}

func (c *Client) terminal(ctx context.Context, attempts int, err error) *Error {
	kind := KindPermanent
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		kind = KindCanceled
	case IsTransient(err):
		kind = KindTransient
	}
	return &Error{Kind: kind, Attempts: attempts, Err: err}
}
