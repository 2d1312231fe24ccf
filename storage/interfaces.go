package storage

import (
	"context"

	"github.com/poiesic/patentmark/core"
)

// DocumentStore persists per-document checkpoints keyed by document name.
// Implementations must be safe for concurrent use by distinct documents.
type DocumentStore interface {
	// Put writes the document checkpoint, replacing any previous one.
	// A reader never observes a partially written record.
	Put(ctx context.Context, doc *core.Document) error

	// Get reads the checkpoint for a document.
	// Returns ErrNotFound if no checkpoint exists.
	Get(ctx context.Context, name string) (*core.Document, error)

	// Exists reports whether a checkpoint exists for the document.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns the names of all checkpointed documents in lexical order.
	List(ctx context.Context) ([]string, error)

	// PutResults writes the extracted binding results for a document.
	PutResults(ctx context.Context, name string, results []map[string]any) error

	// PutSummary writes the run summary, replacing any previous one.
	PutSummary(ctx context.Context, entries []core.SummaryEntry) error
}

// Ledger records which documents each run persisted.
type Ledger interface {
	// Record stores the latest entry for a document.
	Record(ctx context.Context, entry *core.LedgerEntry) error

	// Get returns the latest entry for a document.
	// Returns ErrNotFound if the document was never recorded.
	Get(ctx context.Context, name string) (*core.LedgerEntry, error)

	// List returns all entries, most recently persisted first.
	List(ctx context.Context) ([]*core.LedgerEntry, error)

	// Close releases the ledger's resources.
	Close() error
}
