// Package mock provides test doubles for the ai package interfaces.
//
// MockClassifier returns a canned verdict by default (text mentioning a
// binding constant is flagged) and accepts a ClassifyFunc to script failures,
// delays or malformed answers. It counts calls atomically so concurrency
// tests can assert on it.
//
//	classifier := mock.NewMockClassifier().WithClassifyFunc(
//	    func(ctx context.Context, text string) (*ai.Result, error) {
//	        return nil, &ai.StatusError{Code: 503}
//	    })
package mock
