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


package mock

import (
	"sync"

	"github.com/poiesic/patentmark/ai"
)

// MockProvider is a test double for ai.AIProvider.
// It hands out one mock classifier per task name.
type MockProvider struct {
	mu          sync.Mutex
	classifiers map[string]*MockClassifier
	closed      bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockClassifier() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithClassifiers(nil)
}

// NewMockProviderWithClassifiers creates a mock provider with custom mock
// classifiers keyed by task name.
func NewMockProviderWithClassifiers(classifiers map[string]*MockClassifier) *MockProvider {
	if classifiers == nil {
		classifiers = make(map[string]*MockClassifier)
	}
	return &MockProvider{classifiers: classifiers}
}

// Classifier returns the mock classifier for the task, creating it on first use.
func (p *MockProvider) Classifier(task ai.Task) (ai.Classifier, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return p.GetMockClassifier(task.Name), nil
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// GetMockClassifier returns the underlying mock classifier for a task name.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockClassifier(name string) *MockClassifier {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.classifiers[name]
	if !ok {
		c = NewMockClassifier()
		p.classifiers[name] = c
	}
	return c
}
