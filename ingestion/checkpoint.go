package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/storage"
)

// CheckpointWriter persists aggregated documents through the write pool.
type CheckpointWriter struct {
	store      storage.DocumentStore
	controller *Controller
	ledger     storage.Ledger
	runID      string
	logger     *slog.Logger
}

// NewCheckpointWriter creates a writer. The ledger may be nil.
func NewCheckpointWriter(store storage.DocumentStore, controller *Controller, ledger storage.Ledger, runID string, logger *slog.Logger) (*CheckpointWriter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if controller == nil {
		return nil, ErrControllerRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckpointWriter{
		store:      store,
		controller: controller,
		ledger:     ledger,
		runID:      runID,
		logger:     logger.With("component", "checkpoint-writer"),
	}, nil
}

// Write persists doc inside one write slot and blocks until it is stored.
// On success the document is PERSISTED; any failure wraps ErrPersistence.
func (w *CheckpointWriter) Write(ctx context.Context, doc *core.Document) error {
	result := make(chan error, 1)
	err := w.controller.SubmitWrite(func() {
		result <- w.persist(ctx, doc)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersistence, doc.Name, err)
	}
	return <-result
}

func (w *CheckpointWriter) persist(ctx context.Context, doc *core.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrPersistence, doc.Name, r)
		}
	}()

	if err := w.store.Put(ctx, doc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersistence, doc.Name, err)
	}
	doc.State = core.StatePersisted

	if w.ledger != nil {
		if err := w.ledger.Record(ctx, core.NewLedgerEntry(w.runID, doc)); err != nil {
			w.logger.Warn("failed to record ledger entry", "document", doc.Name, "err", err)
		}
	}
	return nil
}
