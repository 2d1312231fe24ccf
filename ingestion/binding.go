package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/poiesic/patentmark/ai"
	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/metrics"
	"github.com/poiesic/patentmark/storage"
)

// BindingStage asks the binding task about every flagged chunk of documents
// already marked up, and writes the relevant answers per document.
type BindingStage struct {
	store      storage.DocumentStore
	classifier ai.Classifier
	controller *Controller
	metrics    *metrics.Collector
	task       string
	logger     *slog.Logger
}

// BindingOption configures a BindingStage.
type BindingOption func(*BindingStage)

// WithBindingLogger sets a custom logger.
func WithBindingLogger(logger *slog.Logger) BindingOption {
	return func(s *BindingStage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBindingMetrics records chunk outcomes on m.
func WithBindingMetrics(m *metrics.Collector) BindingOption {
	return func(s *BindingStage) {
		s.metrics = m
	}
}

// BindingReport counts what a binding run did.
type BindingReport struct {
	Documents  int // Flagged documents examined
	Chunks     int // Flagged chunks sent to the classifier
	Relevant   int // Answers that carried a binding constant
	Failed     int // Chunks whose classification failed
	Written    int // Result files written
	Incomplete int // Documents left without a result file because a chunk failed
}

// NewBindingStage creates a binding stage.
func NewBindingStage(store storage.DocumentStore, classifier ai.Classifier, controller *Controller, opts ...BindingOption) (*BindingStage, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if classifier == nil {
		return nil, ErrClassifierRequired
	}
	if controller == nil {
		return nil, ErrControllerRequired
	}
	s := &BindingStage{
		store:      store,
		classifier: classifier,
		controller: controller,
		task:       ai.BindingTask().Name,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "binding-stage")
	return s, nil
}

// bindingJob collects the answers for one document.
type bindingJob struct {
	doc     *core.Document
	mu      sync.Mutex
	results []map[string]any
	failed  int
}

// Run processes the named documents. Unreadable checkpoints and documents
// without binding info are skipped. A document with a failed chunk gets no
// result file, so it is picked up again by the next run. Write failures are
// joined and returned.
func (s *BindingStage) Run(ctx context.Context, names []string) (*BindingReport, error) {
	report := &BindingReport{}
	var jobs []*bindingJob

	for _, name := range names {
		doc, err := s.store.Get(ctx, name)
		if err != nil {
			s.logger.Warn("skipping unreadable checkpoint", "document", name, "err", err)
			continue
		}
		if !doc.HasBindingInfo {
			continue
		}
		jobs = append(jobs, &bindingJob{doc: doc, results: []map[string]any{}})
	}
	report.Documents = len(jobs)

	var wg sync.WaitGroup
dispatch:
	for _, job := range jobs {
		for _, chunk := range job.doc.Chunks {
			if !chunk.HasBindingInfo {
				continue
			}
			wg.Add(1)
			err := s.controller.SubmitRequest(ctx, func() {
				defer wg.Done()
				s.classifyChunk(ctx, job, chunk)
			})
			if err != nil {
				wg.Done()
				s.logger.Info("stopping dispatch", "err", err)
				break dispatch
			}
			report.Chunks++
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, job := range jobs {
		report.Relevant += len(job.results)
		report.Failed += job.failed
		if job.failed > 0 {
			report.Incomplete++
			s.logger.Warn("not writing incomplete results", "document", job.doc.Name, "failed_chunks", job.failed)
			continue
		}

		wg.Add(1)
		err := s.controller.SubmitWrite(func() {
			defer wg.Done()
			err := s.store.PutResults(ctx, job.doc.Name, job.results)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s: %w", ErrPersistence, job.doc.Name, err))
				return
			}
			report.Written++
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrPersistence, job.doc.Name, err))
			mu.Unlock()
		}
	}
	wg.Wait()

	s.logger.Info("binding run complete",
		"documents", report.Documents,
		"chunks", report.Chunks,
		"relevant", report.Relevant,
		"failed", report.Failed,
		"written", report.Written,
		"incomplete", report.Incomplete)
	return report, errors.Join(errs...)
}

func (s *BindingStage) classifyChunk(ctx context.Context, job *bindingJob, chunk *core.Chunk) {
	started := time.Now()
	result, err := s.classifier.Classify(ctx, chunk.Text)
	if err != nil {
		s.metrics.RecordChunk(s.task, metrics.OutcomeFailed, time.Since(started))
		s.logger.Warn("binding extraction failed", "document", job.doc.Name, "start", chunk.Start, "err", err)
		job.mu.Lock()
		job.failed++
		job.mu.Unlock()
		return
	}
	if !result.HasBindingInfo {
		s.metrics.RecordChunk(s.task, metrics.OutcomeNegative, time.Since(started))
		return
	}
	s.metrics.RecordChunk(s.task, metrics.OutcomeFlagged, time.Since(started))

	entry := make(map[string]any, len(result.Fields)+3)
	maps.Copy(entry, result.Fields)
	entry["raw_result"] = result.Raw
	entry["chunk_start"] = chunk.Start
	entry["chunk_end"] = chunk.End

	job.mu.Lock()
	job.results = append(job.results, entry)
	job.mu.Unlock()
}
