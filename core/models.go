package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// State is a document's position in the markup lifecycle.
type State int

const (
	// StatePending means the document has not been chunked yet.
	StatePending State = iota
	// StateChunked means the document text has been split into chunks.
	StateChunked
	// StateSkippedTooShort means the text is below the minimum length and no
	// chunks will be classified.
	StateSkippedTooShort
	// StateProcessing means chunk classification tasks are in flight.
	StateProcessing
	// StateAggregated means every chunk has resolved and flags are recomputed.
	StateAggregated
	// StatePersisted means the checkpoint write completed.
	StatePersisted
)

var stateNames = [...]string{
	StatePending:         "PENDING",
	StateChunked:         "CHUNKED",
	StateSkippedTooShort: "SKIPPED_TOO_SHORT",
	StateProcessing:      "PROCESSING",
	StateAggregated:      "AGGREGATED",
	StatePersisted:       "PERSISTED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Chunk is one overlapping window of a document's text.
// A chunk belongs to exactly one document and is only ever written by the
// task that classifies it.
type Chunk struct {
	Start          int            `json:"start"`
	End            int            `json:"end"`
	Text           string         `json:"text"`
	HasBindingInfo bool           `json:"has_binding_info"`
	Tags           []string       `json:"tags"`
	Compounds      []string       `json:"compounds"`
	Payload        map[string]any `json:"payload,omitempty"`  // Opaque classifier fields
	Error          string         `json:"error,omitempty"`    // Terminal classification failure
	Attempts       int            `json:"attempts,omitempty"` // Calls spent on a failed chunk
}

// Failed reports whether classification of the chunk ended in a terminal error.
func (c *Chunk) Failed() bool {
	return c.Error != ""
}

// Document is a patent (or any long text) with its chunks and aggregate flags.
// The JSON encoding is the on-disk checkpoint format.
type Document struct {
	Name           string   `json:"name"`
	Country        string   `json:"country"`
	LocalPath      string   `json:"local_path"`
	HasBindingInfo bool     `json:"has_binding_info"`
	TooShort       bool     `json:"is_too_short"`
	FullText       string   `json:"full_text"`
	FullTextLen    int      `json:"full_text_len"`
	NPages         int      `json:"n_pages"`
	ChunkSize      int      `json:"chunk_size"`
	ChunkOverlaps  int      `json:"chunk_overlaps"`
	Chunks         []*Chunk `json:"chunks"`

	State State `json:"-"`
}

// Aggregate recomputes the document flag from its chunks.
// Must only be called once no chunk task is running.
func (d *Document) Aggregate() {
	d.HasBindingInfo = false
	for _, c := range d.Chunks {
		if c.HasBindingInfo {
			d.HasBindingInfo = true
			break
		}
	}
	if d.State == StateProcessing || d.State == StateChunked {
		d.State = StateAggregated
	}
}

// FailedChunks returns the number of chunks whose classification failed.
func (d *Document) FailedChunks() int {
	n := 0
	for _, c := range d.Chunks {
		if c.Failed() {
			n++
		}
	}
	return n
}

// Fingerprint returns a BLAKE2b digest of the document text.
// Two documents with identical text have identical fingerprints.
func (d *Document) Fingerprint() string {
	return Fingerprint(d.FullText)
}

// Fingerprint hashes text with 256-bit BLAKE2b and returns it hex encoded.
func Fingerprint(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// SummaryEntry is one line of a run's binding summary.
type SummaryEntry struct {
	Name           string `json:"name"`
	Path           string `json:"path"`
	HasBindingInfo bool   `json:"has_binding_info"`
}

// LedgerEntry records that a document checkpoint was persisted by a run.
type LedgerEntry struct {
	Name           string
	RunID          string
	Fingerprint    string // BLAKE2b of the full text at persist time
	HasBindingInfo bool
	TooShort       bool
	Chunks         int
	FailedChunks   int
	PersistedAt    time.Time
}

// NewLedgerEntry builds a ledger entry for a persisted document.
func NewLedgerEntry(runID string, doc *Document) *LedgerEntry {
	return &LedgerEntry{
		Name:           doc.Name,
		RunID:          runID,
		Fingerprint:    doc.Fingerprint(),
		HasBindingInfo: doc.HasBindingInfo,
		TooShort:       doc.TooShort,
		Chunks:         len(doc.Chunks),
		FailedChunks:   doc.FailedChunks(),
		PersistedAt:    time.Now().UTC(),
	}
}
