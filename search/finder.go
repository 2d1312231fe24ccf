package search

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/storage"
)

// Hit is a document flagged as containing binding information.
type Hit struct {
	Name          string
	Country       string
	Path          string
	FlaggedChunks int
	Compounds     []string // Union of compounds named by flagged chunks
}

// Finder scans checkpoints for documents with binding information.
type Finder struct {
	store   storage.DocumentStore
	monitor Monitor
	logger  *slog.Logger
}

// Option configures a Finder.
type Option func(*Finder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// WithMonitor attaches hooks that observe every scan.
func WithMonitor(monitor Monitor) Option {
	return func(f *Finder) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		f.monitor = monitor
		return nil
	}
}

// NewFinder creates a finder over store.
func NewFinder(store storage.DocumentStore, opts ...Option) (*Finder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	f := &Finder{
		store:   store,
		monitor: &noopMonitor{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	f.logger = f.logger.With("component", "finder")
	return f, nil
}

// WithBindingInfo returns every document flagged as containing binding
// information, ordered by name. Unreadable records are logged and skipped.
func (f *Finder) WithBindingInfo(ctx context.Context) ([]Hit, error) {
	return f.scan(ctx, nil)
}

// Matching returns the flagged documents whose flagged chunks, taken
// together, contain every non stop word of query.
func (f *Finder) Matching(ctx context.Context, query string) ([]Hit, error) {
	words := tokenizeAndFilter(query)
	if len(words) == 0 {
		return nil, ErrEmptyQuery
	}
	return f.scan(ctx, words)
}

func (f *Finder) scan(ctx context.Context, words []string) ([]Hit, error) {
	names, err := f.store.List(ctx)
	if err != nil {
		return nil, err
	}
	f.monitor.Start(len(names))

	hits := []Hit{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.monitor.Scanned(name)

		doc, err := f.store.Get(ctx, name)
		if err != nil {
			f.logger.Warn("skipping unreadable checkpoint", "document", name, "err", err)
			f.monitor.Unreadable(name, err)
			continue
		}
		if !doc.HasBindingInfo {
			continue
		}
		if words != nil && !flaggedTextContains(doc, words) {
			continue
		}

		hit := newHit(doc)
		f.monitor.Hit(hit)
		hits = append(hits, hit)
	}

	f.logger.Debug("scan complete", "documents", len(names), "hits", len(hits))
	f.monitor.Finish(hits)
	return hits, nil
}

func newHit(doc *core.Document) Hit {
	hit := Hit{
		Name:      doc.Name,
		Country:   doc.Country,
		Path:      doc.LocalPath,
		Compounds: []string{},
	}
	for _, c := range doc.Chunks {
		if !c.HasBindingInfo {
			continue
		}
		hit.FlaggedChunks++
		for _, compound := range c.Compounds {
			if !slices.Contains(hit.Compounds, compound) {
				hit.Compounds = append(hit.Compounds, compound)
			}
		}
	}
	return hit
}

func flaggedTextContains(doc *core.Document, words []string) bool {
	present := make(map[string]bool)
	for _, c := range doc.Chunks {
		if !c.HasBindingInfo {
			continue
		}
		for _, w := range tokenizeAndFilter(c.Text) {
			present[w] = true
		}
		for _, compound := range c.Compounds {
			for _, w := range tokenizeAndFilter(compound) {
				present[w] = true
			}
		}
	}
	for _, w := range words {
		if !present[w] {
			return false
		}
	}
	return true
}
