// Package extraction wraps one classifier call with retry, backoff and error
// classification.
//
// Client.Classify either returns a parsed result or an *Error describing why
// the chunk could not be classified:
//
//   - KindTransient: every attempt failed with a retryable error (timeouts,
//     connection failures, HTTP 429 and 5xx, malformed model output)
//   - KindPermanent: the endpoint rejected the request (HTTP 4xx other than
//     429), or the classifier panicked
//   - KindCanceled: the run's context was canceled
//
// Backoff between attempts is uniform in [BackoffMin, BackoffMax]. An optional
// token-bucket limiter paces attempts across all goroutines sharing a Client.
package extraction
