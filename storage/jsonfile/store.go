// Package jsonfile stores document checkpoints as one JSON file per document.
//
// Layout under the root directory:
//
//	json_binding_data/<name>.json           markup checkpoint per document
//	json_binding_summary/binding_summary.json  summary of the last run
//	patent_results/<name>.json              extracted binding results
//
// Every write goes to a temporary file in the target directory and is renamed
// into place, so a reader sees either the old record or the new one.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/storage"
)

// Directory and file names under the store root.
const (
	CheckpointDir = "json_binding_data"
	SummaryDir    = "json_binding_summary"
	SummaryFile   = "binding_summary.json"
	ResultsDir    = "patent_results"
)

// Store implements storage.DocumentStore on the local filesystem.
type Store struct {
	root   string
	logger *slog.Logger
}

var _ storage.DocumentStore = (*Store)(nil)

// NewStore creates the store directories under root.
//
// Returns storage.DocumentStore interface to enforce abstraction.
func NewStore(root string) (storage.DocumentStore, error) {
	return newStore(root)
}

func newStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("checkpoint root is required")
	}
	for _, dir := range []string{CheckpointDir, SummaryDir, ResultsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{
		root:   root,
		logger: slog.Default().With("component", "jsonfile-store"),
	}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// CheckpointPath returns the file holding a document's checkpoint.
func (s *Store) CheckpointPath(name string) string {
	return filepath.Join(s.root, CheckpointDir, name+".json")
}

// Put writes the document checkpoint atomically, replacing any previous one.
func (s *Store) Put(ctx context.Context, doc *core.Document) error {
	if err := validateName(doc.Name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := storage.MarshalDocument(doc)
	if err != nil {
		return err
	}
	return writeAtomic(s.CheckpointPath(doc.Name), data)
}

// Get reads a document checkpoint.
func (s *Store) Get(ctx context.Context, name string) (*core.Document, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.CheckpointPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: checkpoint %q", storage.ErrNotFound, name)
		}
		return nil, err
	}
	return storage.UnmarshalDocument(data)
}

// Exists reports whether a checkpoint file exists for the document.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(s.CheckpointPath(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// List returns checkpointed document names in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, CheckpointDir))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	slices.Sort(names)
	return names, nil
}

// PutResults writes extracted results for a document.
func (s *Store) PutResults(ctx context.Context, name string, results []map[string]any) error {
	if err := validateName(name); err != nil {
		return err
	}
	if results == nil {
		results = []map[string]any{}
	}
	data, err := storage.MarshalJSON(results)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.root, ResultsDir, name+".json"), data)
}

// PutSummary writes the run summary.
func (s *Store) PutSummary(ctx context.Context, entries []core.SummaryEntry) error {
	if entries == nil {
		entries = []core.SummaryEntry{}
	}
	data, err := storage.MarshalJSON(entries)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.root, SummaryDir, SummaryFile), data)
}

// validateName rejects names that would escape the store directories.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", storage.ErrInvalidName, name)
	}
	return nil
}

// writeAtomic writes data to a temp file next to path, syncs it, and renames it over path.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
