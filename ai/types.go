package ai

import (
	"fmt"
	"strings"
)

// MaxTokensCeiling is the largest output budget a task may request.
const MaxTokensCeiling = 8192

// Result is the parsed answer for one chunk.
type Result struct {
	// HasBindingInfo is the task's relevance verdict.
	HasBindingInfo bool

	// Tags and Compounds are optional lists the model may return.
	Tags      []string
	Compounds []string

	// Fields holds every key of the model's JSON object, verbatim.
	Fields map[string]any

	// Raw is the model output before cleaning.
	Raw string
}

// Task describes one kind of question asked of every chunk.
type Task struct {
	// Name identifies the task in logs and metrics.
	Name string

	// SystemPrompt is sent as the system message.
	SystemPrompt string

	// Instructions precede the chunk text in the user message.
	Instructions string

	// MaxTokens bounds the model output.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64

	// Relevance derives the relevance verdict from the parsed JSON object.
	// It returns ErrMalformedResponse when the signal is missing.
	Relevance func(fields map[string]any) (bool, error)
}

// Prompt builds the user message for a chunk of text.
func (t Task) Prompt(text string) string {
	return t.Instructions + "Here is a fragment of a patent: " + text
}

// Validate checks that the task can be sent to a model.
func (t Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTask)
	}
	if t.MaxTokens <= 0 || t.MaxTokens > MaxTokensCeiling {
		return fmt.Errorf("%w: max tokens must be between 1 and %d, got %d", ErrInvalidTask, MaxTokensCeiling, t.MaxTokens)
	}
	if t.Temperature < 0 || t.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2, got %v", ErrInvalidTask, t.Temperature)
	}
	if t.Relevance == nil {
		return fmt.Errorf("%w: relevance function is required", ErrInvalidTask)
	}
	return nil
}

// ParseResult builds a Result from a decoded JSON object using the task's
// relevance rule.
func (t Task) ParseResult(fields map[string]any, raw string) (*Result, error) {
	relevant, err := t.Relevance(fields)
	if err != nil {
		return nil, err
	}
	return &Result{
		HasBindingInfo: relevant,
		Tags:           stringList(fields["tags"]),
		Compounds:      stringList(fields["compounds"]),
		Fields:         fields,
		Raw:            raw,
	}, nil
}

// stringList converts a decoded JSON array to strings, dropping non-strings.
func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
