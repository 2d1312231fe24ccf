// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extraction

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryWithBackoff retries an operation while it fails with retryable errors.
// maxAttempts: maximum number of attempts (must be > 0)
// delay: wait before attempt n+1, given the number n of failed attempts
// retryable: reports whether an error is worth another attempt; nil retries everything
// Returns the number of attempts made and the error from the last attempt.
// If ctx ends first, ctx.Err() is returned.
func RetryWithBackoff(ctx context.Context, operation func(ctx context.Context) error, maxAttempts int, delay func(attempt int) time.Duration, retryable func(error) bool) (int, error) {
	if maxAttempts <= 0 {
		return 0, ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return attempt - 1, ctx.Err()
		default:
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return attempt, nil
		}

		if retryable != nil && !retryable(lastErr) {
			return attempt, lastErr
		}

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			return attempt, lastErr
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		var wait time.Duration
		if delay != nil {
			wait = delay(attempt)
		}
		if wait <= 0 {
			continue
		}

		// Sleep with context awareness
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}

	return maxAttempts, lastErr
}

// UniformBackoff returns a delay function drawing uniformly from [min, max].
func UniformBackoff(min, max time.Duration) func(int) time.Duration {
	return func(int) time.Duration {
		if max <= min {
			return min
		}
		return min + rand.N(max-min+1)
	}
}
