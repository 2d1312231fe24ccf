package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedDelay(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

func TestRetryWithBackoff_Success(t *testing.T) {
	calls := 0
	attempts, err := RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		return nil
	}, 3, fixedDelay(time.Millisecond), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls, "should succeed on first try")
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	calls := 0
	attempts, err := RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, 5, fixedDelay(time.Millisecond), nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestRetryWithBackoff_AllAttemptsFail(t *testing.T) {
	expectedErr := errors.New("persistent error")
	calls := 0
	attempts, err := RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		return expectedErr
	}, 4, fixedDelay(time.Millisecond), nil)

	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return the original error")
	assert.Equal(t, 4, attempts)
	assert.Equal(t, 4, calls, "should attempt exactly maxAttempts times")
}

func TestRetryWithBackoff_StopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("bad request")
	calls := 0
	attempts, err := RetryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		return fatal
	}, 4, fixedDelay(time.Millisecond), func(err error) bool { return !errors.Is(err, fatal) })

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := RetryWithBackoff(ctx, func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("temporary error")
	}, 5, fixedDelay(time.Millisecond), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls, "should stop after context cancellation")
}

func TestRetryWithBackoff_CanceledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := RetryWithBackoff(ctx, func(context.Context) error {
		return errors.New("temporary error")
	}, 3, fixedDelay(time.Hour), nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	_, err := RetryWithBackoff(context.Background(), func(context.Context) error { return nil }, 0, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestUniformBackoff(t *testing.T) {
	delay := UniformBackoff(2*time.Second, 3*time.Second)
	for i := 0; i < 200; i++ {
		d := delay(i)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}

	assert.Equal(t, time.Second, UniformBackoff(time.Second, time.Second)(1))
}
