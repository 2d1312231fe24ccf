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


// Package config loads run settings from YAML or TOML files and the
// environment.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/patentmark/ai"
	"github.com/poiesic/patentmark/chunker"
	"github.com/poiesic/patentmark/extraction"
	"github.com/poiesic/patentmark/ingestion"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey  = "LLM_API_KEY"
	EnvBaseURL = "LLM_BASE_URL"
	EnvModel   = "MODEL"
)

// Duration is a time.Duration written as a string such as "2s" or "10m".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds every setting of a run.
type Config struct {
	LLM         LLMConfig         `yaml:"llm" toml:"llm"`
	Chunking    ChunkingConfig    `yaml:"chunking" toml:"chunking"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" toml:"concurrency"`
	Retry       RetryConfig       `yaml:"retry" toml:"retry"`
	Markup      TaskConfig        `yaml:"markup" toml:"markup"`
	Binding     TaskConfig        `yaml:"binding" toml:"binding"`
	MetricsFile string            `yaml:"metrics_file" toml:"metrics_file"`
}

// LLMConfig selects the chat completion endpoint.
type LLMConfig struct {
	Host              string  `yaml:"host" toml:"host"`
	Model             string  `yaml:"model" toml:"model"`
	APIKey            string  `yaml:"api_key" toml:"api_key"`
	JSONMode          bool    `yaml:"json_mode" toml:"json_mode"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int     `yaml:"burst" toml:"burst"`
}

// ChunkingConfig controls how documents are split.
type ChunkingConfig struct {
	WindowSize     int `yaml:"window_size" toml:"window_size"`
	NumWindowsHint int `yaml:"num_windows_hint" toml:"num_windows_hint"`
	MinLength      int `yaml:"min_length" toml:"min_length"`
}

// ConcurrencyConfig sets the pool ceilings and batch size.
type ConcurrencyConfig struct {
	MaxConcurrentRequests int `yaml:"max_concurrent_requests" toml:"max_concurrent_requests"`
	MaxConcurrentWrites   int `yaml:"max_concurrent_writes" toml:"max_concurrent_writes"`
	BatchSize             int `yaml:"batch_size" toml:"batch_size"`
}

// RetryConfig bounds retries of a single chunk.
type RetryConfig struct {
	MaxRetries int      `yaml:"max_retries" toml:"max_retries"`
	BackoffMin Duration `yaml:"backoff_min" toml:"backoff_min"`
	BackoffMax Duration `yaml:"backoff_max" toml:"backoff_max"`
}

// TaskConfig tunes one classification task.
type TaskConfig struct {
	MaxTokens      int      `yaml:"max_tokens" toml:"max_tokens"`
	Temperature    float64  `yaml:"temperature" toml:"temperature"`
	AttemptTimeout Duration `yaml:"attempt_timeout" toml:"attempt_timeout"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	llm := ai.DefaultConfig()
	params := chunker.DefaultParams()
	retry := extraction.DefaultConfig()
	markup := ai.MarkupTask()
	binding := ai.BindingTask()

	return &Config{
		LLM: LLMConfig{
			Host:   llm.Host,
			Model:  llm.Model,
			APIKey: llm.APIKey,
		},
		Chunking: ChunkingConfig{
			WindowSize:     params.WindowSize,
			NumWindowsHint: params.NumWindowsHint,
			MinLength:      params.MinLength,
		},
		Concurrency: ConcurrencyConfig{
			MaxConcurrentRequests: ingestion.DefaultMaxConcurrentRequests,
			MaxConcurrentWrites:   ingestion.DefaultMaxConcurrentWrites,
			BatchSize:             ingestion.DefaultBatchSize,
		},
		Retry: RetryConfig{
			MaxRetries: retry.MaxRetries,
			BackoffMin: Duration(retry.BackoffMin),
			BackoffMax: Duration(retry.BackoffMax),
		},
		Markup: TaskConfig{
			MaxTokens:   markup.MaxTokens,
			Temperature: markup.Temperature,
		},
		Binding: TaskConfig{
			MaxTokens:      binding.MaxTokens,
			Temperature:    binding.Temperature,
			AttemptTimeout: Duration(10 * time.Minute),
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. The format follows the extension: .yaml, .yml or
// .toml. Unknown keys are rejected. ${VAR} references are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = []byte(os.ExpandEnv(string(data)))

	c := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, filepath.Ext(path))
	}

	c.ApplyEnv(os.LookupEnv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv overrides the endpoint settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.LLM.APIKey = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.LLM.Host = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		c.LLM.Model = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ChunkParams().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Concurrency.MaxConcurrentRequests < 1 || c.Concurrency.MaxConcurrentWrites < 1 {
		return fmt.Errorf("%w: concurrency limits must be at least 1", ErrInvalidConfig)
	}
	if c.Concurrency.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1", ErrInvalidConfig)
	}
	for _, task := range []ai.Task{c.MarkupTask(), c.BindingTask()} {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if err := c.ExtractionConfig(task.Name).Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ChunkParams returns the chunking parameters.
func (c *Config) ChunkParams() chunker.Params {
	return chunker.Params{
		WindowSize:     c.Chunking.WindowSize,
		NumWindowsHint: c.Chunking.NumWindowsHint,
		MinLength:      c.Chunking.MinLength,
	}
}

// AIConfig returns the endpoint settings.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.LLM.Host),
		ai.WithModel(c.LLM.Model),
		ai.WithAPIKey(c.LLM.APIKey),
		ai.WithJSONMode(c.LLM.JSONMode),
	)
}

// MarkupTask returns the markup task with the configured output settings.
func (c *Config) MarkupTask() ai.Task {
	task := ai.MarkupTask()
	task.MaxTokens = c.Markup.MaxTokens
	task.Temperature = c.Markup.Temperature
	return task
}

// BindingTask returns the binding task with the configured output settings.
func (c *Config) BindingTask() ai.Task {
	task := ai.BindingTask()
	task.MaxTokens = c.Binding.MaxTokens
	task.Temperature = c.Binding.Temperature
	return task
}

// ExtractionConfig returns the retry settings for the named task.
func (c *Config) ExtractionConfig(task string) extraction.Config {
	timeout := c.Markup.AttemptTimeout
	if task == ai.BindingTask().Name {
		timeout = c.Binding.AttemptTimeout
	}
	return extraction.Config{
		MaxRetries:        c.Retry.MaxRetries,
		BackoffMin:        time.Duration(c.Retry.BackoffMin),
		BackoffMax:        time.Duration(c.Retry.BackoffMax),
		AttemptTimeout:    time.Duration(timeout),
		RequestsPerSecond: c.LLM.RequestsPerSecond,
		Burst:             c.LLM.Burst,
	}
}
