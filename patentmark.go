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


package patentmark

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/poiesic/patentmark/ai"
	"github.com/poiesic/patentmark/ai/openai"
	"github.com/poiesic/patentmark/config"
	"github.com/poiesic/patentmark/extraction"
	"github.com/poiesic/patentmark/ingestion"
	"github.com/poiesic/patentmark/metrics"
	"github.com/poiesic/patentmark/pdftext"
	"github.com/poiesic/patentmark/search"
	"github.com/poiesic/patentmark/storage"
	"github.com/poiesic/patentmark/storage/badger"
	"github.com/poiesic/patentmark/storage/jsonfile"
)

// LedgerDir is the badger directory under the workspace root.
const LedgerDir = "ledger"

// Workspace ties a checkpoint directory to its ledger, model provider and
// concurrency pools.
type Workspace struct {
	root       string
	config     *config.Config
	store      storage.DocumentStore
	ledger     storage.Ledger
	controller *ingestion.Controller
	metrics    *metrics.Collector
	logger     *slog.Logger

	mu       sync.Mutex
	provider ai.AIProvider
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	config   *config.Config
	provider ai.AIProvider
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// WithConfig sets the run configuration. Default is config.Default().
func WithConfig(c *config.Config) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.config = c
	}
}

// WithProvider sets the model provider. By default an OpenAI-compatible
// provider is created from the configuration on first use.
func WithProvider(p ai.AIProvider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = p
	}
}

// WithMetrics records run metrics on m. Default is a fresh collector.
func WithMetrics(m *metrics.Collector) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.metrics = m
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.logger = logger
	}
}

// OpenWorkspace opens (or creates) the workspace rooted at root.
func OpenWorkspace(root string, opts ...WorkspaceOption) (*Workspace, error) {
	options := &workspaceOptions{
		config: config.Default(), // Default if not provided
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.metrics == nil {
		options.metrics = metrics.NewCollector()
	}
	if err := options.config.Validate(); err != nil {
		return nil, err
	}

	store, err := jsonfile.NewStore(root)
	if err != nil {
		return nil, err
	}

	ledger, err := badger.NewLedger(filepath.Join(root, LedgerDir))
	if err != nil {
		return nil, err
	}

	controller, err := ingestion.NewController(
		options.config.Concurrency.MaxConcurrentRequests,
		options.config.Concurrency.MaxConcurrentWrites,
		options.logger,
	)
	if err != nil {
		ledger.Close()
		return nil, err
	}

	return &Workspace{
		root:       root,
		config:     options.config,
		store:      store,
		ledger:     ledger,
		controller: controller,
		metrics:    options.metrics,
		logger:     options.logger.With("component", "workspace"),
		provider:   options.provider,
	}, nil
}

// Close releases the pools, the provider and the ledger.
func (w *Workspace) Close() error {
	w.controller.Release()

	w.mu.Lock()
	provider := w.provider
	w.mu.Unlock()

	var errs []error
	if provider != nil {
		if err := provider.Close(); err != nil {
			w.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if err := w.ledger.Close(); err != nil {
		w.logger.Error("error closing ledger", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) Config() *config.Config {
	return w.config
}

func (w *Workspace) Store() storage.DocumentStore {
	return w.store
}

func (w *Workspace) Ledger() storage.Ledger {
	return w.ledger
}

func (w *Workspace) Metrics() *metrics.Collector {
	return w.metrics
}

// NewDocumentLoader creates a loader with the configured chunking.
// fallback enables the pdftotext binary for files the Go reader rejects.
func (w *Workspace) NewDocumentLoader(fallback bool) (*ingestion.DocumentLoader, error) {
	return ingestion.NewDocumentLoader(&pdftext.Converter{FallbackPdftotext: fallback}, w.config.ChunkParams(), w.logger)
}

// NewMarkupPipeline creates a pipeline running the markup task with retries.
// Options are applied after the workspace defaults.
func (w *Workspace) NewMarkupPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	task := w.config.MarkupTask()
	client, err := w.client(task)
	if err != nil {
		return nil, err
	}
	defaults := []ingestion.Option{
		ingestion.WithBatchSize(w.config.Concurrency.BatchSize),
		ingestion.WithLedger(w.ledger),
		ingestion.WithMetrics(w.metrics),
		ingestion.WithLogger(w.logger),
		ingestion.WithTaskName(task.Name),
	}
	return ingestion.NewPipeline(w.store, client, w.controller, append(defaults, opts...)...)
}

// NewBindingStage creates the binding extraction stage.
func (w *Workspace) NewBindingStage() (*ingestion.BindingStage, error) {
	client, err := w.client(w.config.BindingTask())
	if err != nil {
		return nil, err
	}
	return ingestion.NewBindingStage(w.store, client, w.controller,
		ingestion.WithBindingLogger(w.logger),
		ingestion.WithBindingMetrics(w.metrics),
	)
}

// NewFinder creates a finder over the checkpoints.
func (w *Workspace) NewFinder(opts ...search.Option) (*search.Finder, error) {
	return search.NewFinder(w.store, append([]search.Option{search.WithLogger(w.logger)}, opts...)...)
}

// client wraps the provider's classifier for task in a retrying client.
func (w *Workspace) client(task ai.Task) (*extraction.Client, error) {
	provider, err := w.aiProvider()
	if err != nil {
		return nil, err
	}
	classifier, err := provider.Classifier(task)
	if err != nil {
		return nil, err
	}
	return extraction.NewClient(classifier, w.config.ExtractionConfig(task.Name),
		extraction.WithLogger(w.logger),
		extraction.WithMetrics(w.metrics),
		extraction.WithTaskName(task.Name),
	)
}

func (w *Workspace) aiProvider() (ai.AIProvider, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.provider == nil {
		provider, err := openai.NewProvider(w.config.AIConfig())
		if err != nil {
			return nil, err
		}
		w.provider = provider
	}
	return w.provider, nil
}
