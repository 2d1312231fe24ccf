package ai

import "context"

// Classifier sends one chunk of text to a language model and returns the
// parsed verdict. Implementations must be thread-safe for concurrent use.
type Classifier interface {
	// Classify analyzes text and returns the structured result.
	// A well-formed negative verdict is a success, not an error.
	// Returns ErrMalformedResponse when the model output cannot be parsed or
	// lacks the task's relevance signal, and *StatusError for HTTP failures.
	Classify(ctx context.Context, text string) (*Result, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates Classifier instances for tasks, ensuring they share
// configuration and resources appropriately.
type AIProvider interface {
	// Classifier returns a classifier that runs the given task.
	// The returned Classifier is safe for concurrent use.
	Classifier(task Task) (Classifier, error)

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
