package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/patentmark/ai"
	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/extraction"
	"github.com/poiesic/patentmark/metrics"
	"github.com/poiesic/patentmark/storage"
)

// DefaultBatchSize is the number of documents scheduled together.
const DefaultBatchSize = 20

// Pipeline classifies the chunks of documents batch by batch and checkpoints
// every document once all of its chunks have resolved.
type Pipeline struct {
	store         storage.DocumentStore
	classifier    ai.Classifier
	controller    *Controller
	ledger        storage.Ledger
	metrics       *metrics.Collector
	progress      io.Writer
	batchSize     int
	skipPersisted bool
	runID         string
	task          string
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets how many documents are scheduled together.
// Default is 20.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithLedger records every persisted document in ledger.
func WithLedger(ledger storage.Ledger) Option {
	return func(p *Pipeline) error {
		p.ledger = ledger
		return nil
	}
}

// WithMetrics records chunk and document outcomes on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithProgress writes chunk progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithSkipPersisted skips documents whose checkpoint is already complete.
func WithSkipPersisted(skip bool) Option {
	return func(p *Pipeline) error {
		p.skipPersisted = skip
		return nil
	}
}

// WithRunID sets the run identifier recorded in the ledger.
// Default is a random UUID.
func WithRunID(id string) Option {
	return func(p *Pipeline) error {
		if id != "" {
			p.runID = id
		}
		return nil
	}
}

// WithTaskName labels logs and metrics. Default is "markup".
func WithTaskName(name string) Option {
	return func(p *Pipeline) error {
		if name != "" {
			p.task = name
		}
		return nil
	}
}

// NewPipeline creates a pipeline. The controller is shared and is not
// released by the pipeline.
func NewPipeline(store storage.DocumentStore, classifier ai.Classifier, controller *Controller, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if classifier == nil {
		return nil, ErrClassifierRequired
	}
	if controller == nil {
		return nil, ErrControllerRequired
	}

	p := &Pipeline{
		store:      store,
		classifier: classifier,
		controller: controller,
		batchSize:  DefaultBatchSize,
		runID:      uuid.NewString(),
		task:       "markup",
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline", "task", p.task)
	return p, nil
}

// RunID returns the identifier recorded for persisted documents.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run processes already chunked documents.
func (p *Pipeline) Run(ctx context.Context, docs []*core.Document) (*RunReport, error) {
	return p.run(ctx, len(docs), func(from, to int) ([]*core.Document, error) {
		return docs[from:to], nil
	})
}

// RunPaths loads and processes the files at paths, one batch at a time.
func (p *Pipeline) RunPaths(ctx context.Context, loader *DocumentLoader, paths []string) (*RunReport, error) {
	if loader == nil {
		return nil, ErrConverterRequired
	}
	return p.run(ctx, len(paths), func(from, to int) ([]*core.Document, error) {
		return loader.LoadAll(paths[from:to])
	})
}

// run drives the batches. Persistence failures do not stop the run; they are
// joined and returned once every batch has been attempted.
func (p *Pipeline) run(ctx context.Context, total int, load func(from, to int) ([]*core.Document, error)) (*RunReport, error) {
	started := time.Now()
	report := &RunReport{RunID: p.runID, Summary: []core.SummaryEntry{}}

	writer, err := NewCheckpointWriter(p.store, p.controller, p.ledger, p.runID, p.logger)
	if err != nil {
		return nil, err
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, 0, 10, "chunks")
		tracker.Start()
		defer tracker.Finish()
	}

	p.logger.Info("starting run", "run_id", p.runID, "documents", total, "batch_size", p.batchSize)

	var errs []error
	for index, from := 0, 0; from < total; index, from = index+1, from+p.batchSize {
		if ctx.Err() != nil {
			break
		}
		to := min(from+p.batchSize, total)
		docs, err := load(from, to)
		if err != nil {
			errs = append(errs, err)
			break
		}

		batch, summary, err := p.processBatch(ctx, index, docs, writer, tracker)
		report.Batches = append(report.Batches, batch)
		report.Summary = append(report.Summary, summary...)
		if err != nil {
			errs = append(errs, err)
		}
		p.logger.Info("batch complete",
			"batch", batch.Index,
			"documents", batch.Documents,
			"too_short", batch.SkippedTooShort,
			"skipped_persisted", batch.SkippedPersisted,
			"canceled", batch.Canceled,
			"chunks_succeeded", batch.ChunksSucceeded,
			"chunks_failed", batch.ChunksFailed,
			"chunks_flagged", batch.ChunksFlagged,
			"persisted", batch.Persisted,
			"persist_failed", batch.PersistFailed)
	}

	if len(report.Summary) > 0 {
		if err := p.store.PutSummary(context.WithoutCancel(ctx), report.Summary); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	report.Elapsed = time.Since(started)
	totals := report.Totals()
	p.logger.Info("run complete",
		"run_id", p.runID,
		"documents", totals.Documents,
		"persisted", totals.Persisted,
		"with_binding_info", report.WithBindingInfo(),
		"chunks_failed", totals.ChunksFailed,
		"elapsed", report.Elapsed)

	return report, errors.Join(errs...)
}

// docRun tracks the outstanding chunk tasks of one document.
type docRun struct {
	doc       *core.Document
	remaining atomic.Int64
	canceled  atomic.Bool
}

func (p *Pipeline) processBatch(ctx context.Context, index int, docs []*core.Document, writer *CheckpointWriter, tracker *ProgressTracker) (BatchReport, []core.SummaryEntry, error) {
	batch := BatchReport{Index: index, Documents: len(docs)}
	var summary []core.SummaryEntry
	var ready []*core.Document
	var runs []*docRun
	chunks := 0

	for _, doc := range docs {
		if p.skipPersisted {
			if stored, ok := p.persisted(ctx, doc); ok {
				batch.SkippedPersisted++
				summary = append(summary, summaryEntry(stored))
				p.metrics.RecordDocument(metrics.DocumentSkipped)
				continue
			}
		}
		if doc.TooShort {
			batch.SkippedTooShort++
			p.metrics.RecordDocument(metrics.DocumentTooShort)
			ready = append(ready, doc)
			continue
		}
		if len(doc.Chunks) == 0 {
			doc.Aggregate()
			ready = append(ready, doc)
			continue
		}
		doc.State = core.StateProcessing
		r := &docRun{doc: doc}
		r.remaining.Store(int64(len(doc.Chunks)))
		runs = append(runs, r)
		chunks += len(doc.Chunks)
	}

	if tracker != nil {
		tracker.AddTotal(chunks)
	}

	done := make(chan *docRun, len(runs))
	go p.dispatch(ctx, runs, done, tracker)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)
	wctx := context.WithoutCancel(ctx)
	persist := func(doc *core.Document) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := writer.Write(wctx, doc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.PersistFailed++
				errs = append(errs, err)
				p.metrics.RecordDocument(metrics.DocumentPersistFailed)
				p.logger.Error("failed to persist document", "document", doc.Name, "err", err)
				return
			}
			batch.Persisted++
			summary = append(summary, summaryEntry(doc))
			p.metrics.RecordDocument(metrics.DocumentPersisted)
		}()
	}

	for _, doc := range ready {
		persist(doc)
	}
	for range runs {
		r := <-done
		if r.canceled.Load() {
			mu.Lock()
			batch.Canceled++
			mu.Unlock()
			p.metrics.RecordDocument(metrics.DocumentCanceled)
			p.logger.Info("document interrupted, not persisted", "document", r.doc.Name)
			continue
		}

		mu.Lock()
		for _, c := range r.doc.Chunks {
			switch {
			case c.Failed():
				batch.ChunksFailed++
			case c.HasBindingInfo:
				batch.ChunksSucceeded++
				batch.ChunksFlagged++
			default:
				batch.ChunksSucceeded++
			}
		}
		mu.Unlock()
		persist(r.doc)
	}
	wg.Wait()

	return batch, summary, errors.Join(errs...)
}

// dispatch submits every chunk of the batch to the request pool. Once the
// context ends, the remaining chunks are never submitted and their documents
// are marked canceled.
func (p *Pipeline) dispatch(ctx context.Context, runs []*docRun, done chan<- *docRun, tracker *ProgressTracker) {
	for i, r := range runs {
		for j, chunk := range r.doc.Chunks {
			err := p.controller.SubmitRequest(ctx, func() {
				p.classifyChunk(ctx, r, chunk, done, tracker)
			})
			if err == nil {
				continue
			}

			p.logger.Info("stopping dispatch", "document", r.doc.Name, "err", err)
			r.canceled.Store(true)
			p.finish(r, len(r.doc.Chunks)-j, done)
			for _, rest := range runs[i+1:] {
				rest.canceled.Store(true)
				p.finish(rest, len(rest.doc.Chunks), done)
			}
			return
		}
	}
}

func (p *Pipeline) classifyChunk(ctx context.Context, r *docRun, chunk *core.Chunk, done chan<- *docRun, tracker *ProgressTracker) {
	defer p.finish(r, 1, done)
	if tracker != nil {
		defer tracker.Increment(1)
	}

	requests, _ := p.controller.InFlight()
	p.metrics.SetInFlight("requests", requests)

	started := time.Now()
	result, err := p.classifier.Classify(ctx, chunk.Text)
	if err != nil {
		attempts := 1
		var xerr *extraction.Error
		if errors.As(err, &xerr) {
			attempts = xerr.Attempts
			if xerr.Kind == extraction.KindCanceled {
				r.canceled.Store(true)
			}
		}
		if ctx.Err() != nil {
			r.canceled.Store(true)
		}
		chunk.Error = err.Error()
		chunk.Attempts = attempts
		p.metrics.RecordChunk(p.task, metrics.OutcomeFailed, time.Since(started))
		p.logger.Warn("chunk classification failed",
			"document", r.doc.Name, "start", chunk.Start, "attempts", attempts, "err", err)
		return
	}

	chunk.HasBindingInfo = result.HasBindingInfo
	chunk.Tags = nonNil(result.Tags)
	chunk.Compounds = nonNil(result.Compounds)
	chunk.Payload = result.Fields
	chunk.Error = ""
	chunk.Attempts = 0

	outcome := metrics.OutcomeNegative
	if result.HasBindingInfo {
		outcome = metrics.OutcomeFlagged
	}
	p.metrics.RecordChunk(p.task, outcome, time.Since(started))
}

// finish resolves n chunks of r. The caller that resolves the last chunk
// aggregates the document and hands it to the coordinating loop.
func (p *Pipeline) finish(r *docRun, n int, done chan<- *docRun) {
	if r.remaining.Add(int64(-n)) != 0 {
		return
	}
	if !r.canceled.Load() {
		r.doc.Aggregate()
	}
	done <- r
}

// persisted returns the stored checkpoint when it is complete for doc: a
// valid record of the same text with the same chunk boundaries and no failed
// chunks.
func (p *Pipeline) persisted(ctx context.Context, doc *core.Document) (*core.Document, bool) {
	stored, err := p.store.Get(ctx, doc.Name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("unreadable checkpoint, reprocessing", "document", doc.Name, "err", err)
		}
		return nil, false
	}
	if stored.ChunkSize != doc.ChunkSize ||
		stored.ChunkOverlaps != doc.ChunkOverlaps ||
		stored.FailedChunks() > 0 ||
		stored.Fingerprint() != doc.Fingerprint() {
		return nil, false
	}
	if err := core.ValidateDocument(stored); err != nil {
		p.logger.Warn("malformed checkpoint, reprocessing", "document", doc.Name, "err", err)
		return nil, false
	}
	if !sameBoundaries(stored.Chunks, doc.Chunks) {
		p.logger.Warn("checkpoint chunks differ, reprocessing", "document", doc.Name,
			"stored", len(stored.Chunks), "expected", len(doc.Chunks))
		return nil, false
	}
	p.logger.Debug("checkpoint complete, skipping", "document", doc.Name)
	return stored, true
}

func sameBoundaries(a, b []*core.Chunk) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Start != b[i].Start || a[i].End != b[i].End {
			return false
		}
	}
	return true
}

func summaryEntry(doc *core.Document) core.SummaryEntry {
	return core.SummaryEntry{
		Name:           doc.Name,
		Path:           doc.LocalPath,
		HasBindingInfo: doc.HasBindingInfo,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
