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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/patentmark/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Classifier implements ai.Classifier using OpenAI-compatible chat APIs.
// A Classifier makes exactly one model call per Classify; retries belong to
// the caller.
type Classifier struct {
	client   llms.Model
	task     ai.Task
	jsonMode bool
	logger   *slog.Logger
}

var _ ai.Classifier = (*Classifier)(nil)

var statusCodePattern = regexp.MustCompile(`status code:?\s*(\d{3})`)

// newClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newClassifier(config *ai.Config, task ai.Task) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return newClassifierWithModel(client, task, config.JSONMode), nil
}

// newClassifierWithModel wraps an existing llms.Model.
func newClassifierWithModel(client llms.Model, task ai.Task, jsonMode bool) *Classifier {
	return &Classifier{
		client:   client,
		task:     task,
		jsonMode: jsonMode,
		logger:   slog.Default().With("component", "openai-classifier", "task", task.Name),
	}
}

// NewClassifier creates a classifier for one task using the provided configuration.
//
// Returns ai.Classifier interface to enforce abstraction.
func NewClassifier(config *ai.Config, task ai.Task) (ai.Classifier, error) {
	return newClassifier(config, task)
}

// Classify sends the chunk to the model and parses its JSON verdict.
func (c *Classifier) Classify(ctx context.Context, text string) (*ai.Result, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(c.task.SystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(c.task.Prompt(scrubText(text))),
			},
		},
	}

	opts := []llms.CallOption{
		llms.WithTemperature(c.task.Temperature),
		llms.WithMaxTokens(c.task.MaxTokens),
	}
	if c.jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	response, err := c.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, classifyCallError(err)
	}

	if len(response.Choices) < 1 {
		return nil, ai.ErrEmptyResponse
	}

	raw := response.Choices[0].Content
	result, err := parseResponse(c.task, raw)
	if err != nil {
		c.logger.Info("strange output from model", "response", raw, "err", err)
		return nil, err
	}

	c.logger.Debug("classified chunk", "has_binding_info", result.HasBindingInfo)
	return result, nil
}

// parseResponse cleans, repairs and strictly decodes model output into a Result.
func parseResponse(task ai.Task, raw string) (*ai.Result, error) {
	cleaned := repairJSON(cleanResponse(raw))

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ai.ErrMalformedResponse)
	}
	return task.ParseResult(fields, raw)
}

// classifyCallError lifts HTTP status codes out of client errors.
func classifyCallError(err error) error {
	m := statusCodePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	code, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return err
	}
	return &ai.StatusError{Code: code, Err: err}
}

// scrubText removes NUL bytes and other control characters that PDF text
// extraction leaves behind, keeping newlines and tabs.
func scrubText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
