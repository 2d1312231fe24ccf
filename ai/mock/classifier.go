package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/patentmark/ai"
)

// MockClassifier is a test double for ai.Classifier.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockClassifier struct {
	// ClassifyFunc is called by Classify if set.
	// If nil, a chunk is flagged when it mentions a binding constant.
	ClassifyFunc func(ctx context.Context, text string) (*ai.Result, error)

	callCount atomic.Int64
}

var _ ai.Classifier = (*MockClassifier)(nil)

// NewMockClassifier creates a mock classifier with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// WithClassifyFunc sets the behavior of Classify and returns the mock.
func (m *MockClassifier) WithClassifyFunc(fn func(ctx context.Context, text string) (*ai.Result, error)) *MockClassifier {
	m.ClassifyFunc = fn
	return m
}

// Classify returns a verdict for text.
// Default behavior: flags text containing "Ki", "IC50", "Kd" or "EC50".
func (m *MockClassifier) Classify(ctx context.Context, text string) (*ai.Result, error) {
	m.callCount.Add(1)

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}

	flagged := false
	for _, marker := range []string{"Ki", "IC50", "Kd", "EC50"} {
		if strings.Contains(text, marker) {
			flagged = true
			break
		}
	}
	return &ai.Result{
		HasBindingInfo: flagged,
		Tags:           []string{},
		Compounds:      []string{},
		Fields:         map[string]any{"has_binding_info": flagged},
	}, nil
}

// CallCount returns the number of times Classify was called.
func (m *MockClassifier) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockClassifier) Reset() {
	m.callCount.Store(0)
	m.ClassifyFunc = nil
}
