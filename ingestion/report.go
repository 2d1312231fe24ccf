package ingestion

import (
	"time"

	"github.com/poiesic/patentmark/core"
)

// BatchReport counts what happened to one batch of documents.
type BatchReport struct {
	Index            int
	Documents        int
	SkippedTooShort  int
	SkippedPersisted int
	Canceled         int
	ChunksSucceeded  int
	ChunksFailed     int
	ChunksFlagged    int
	Persisted        int
	PersistFailed    int
}

// RunReport summarizes a pipeline run.
type RunReport struct {
	RunID   string
	Batches []BatchReport
	Summary []core.SummaryEntry
	Elapsed time.Duration
}

// Totals sums the batch reports.
func (r *RunReport) Totals() BatchReport {
	var t BatchReport
	t.Index = -1
	for _, b := range r.Batches {
		t.Documents += b.Documents
		t.SkippedTooShort += b.SkippedTooShort
		t.SkippedPersisted += b.SkippedPersisted
		t.Canceled += b.Canceled
		t.ChunksSucceeded += b.ChunksSucceeded
		t.ChunksFailed += b.ChunksFailed
		t.ChunksFlagged += b.ChunksFlagged
		t.Persisted += b.Persisted
		t.PersistFailed += b.PersistFailed
	}
	return t
}

// WithBindingInfo counts summary entries flagged as containing binding data.
func (r *RunReport) WithBindingInfo() int {
	n := 0
	for _, e := range r.Summary {
		if e.HasBindingInfo {
			n++
		}
	}
	return n
}
