package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/patentmark/chunker"
	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T, name string, length int) *core.Document {
	t.Helper()
	doc, err := core.NewDocument(name, name[:2], "/pdfs/"+name+".pdf", strings.Repeat("z", length), 3, chunker.DefaultParams())
	require.NoError(t, err)
	return doc
}

func TestNewStoreCreatesLayout(t *testing.T) {
	root := t.TempDir()
	_, err := NewStore(root)
	require.NoError(t, err)

	for _, dir := range []string{CheckpointDir, SummaryDir, ResultsDir} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	_, err = NewStore("")
	assert.Error(t, err)
}

func TestPutGet(t *testing.T) {
	store, err := newStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	doc := newTestDocument(t, "US100", 6000)
	doc.Chunks[0].HasBindingInfo = true
	doc.Aggregate()
	require.NoError(t, store.Put(ctx, doc))

	_, err = os.Stat(store.CheckpointPath("US100"))
	require.NoError(t, err)

	got, err := store.Get(ctx, "US100")
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.FullText, got.FullText)
	assert.True(t, got.HasBindingInfo)
	assert.Len(t, got.Chunks, len(doc.Chunks))
	assert.Equal(t, core.StatePersisted, got.State)
	require.NoError(t, core.ValidateDocument(got))
}

func TestPutOverwrites(t *testing.T) {
	store, err := newStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	doc := newTestDocument(t, "EP5", 4000)
	require.NoError(t, store.Put(ctx, doc))

	doc.Chunks[1].HasBindingInfo = true
	doc.Aggregate()
	require.NoError(t, store.Put(ctx, doc))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EP5"}, names, "one record per identity")

	got, err := store.Get(ctx, "EP5")
	require.NoError(t, err)
	assert.True(t, got.HasBindingInfo)

	entries, err := os.ReadDir(filepath.Join(store.Root(), CheckpointDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestGetMissing(t *testing.T) {
	store, err := newStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "US404")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ok, err := store.Exists(context.Background(), "US404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetCorrupt(t *testing.T) {
	store, err := newStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.CheckpointPath("US1"), []byte("{not json"), 0o644))

	_, err = store.Get(context.Background(), "US1")
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)
}

func TestInvalidNames(t *testing.T) {
	store, err := newStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../escape", `a\b`} {
		doc := &core.Document{Name: name}
		assert.ErrorIs(t, store.Put(ctx, doc), storage.ErrInvalidName, name)
		_, err := store.Get(ctx, name)
		assert.ErrorIs(t, err, storage.ErrInvalidName, name)
	}
}

func TestListSorted(t *testing.T) {
	store, err := newStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"WO3", "EP2", "US1"} {
		require.NoError(t, store.Put(ctx, newTestDocument(t, name, 100)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), CheckpointDir, "notes.txt"), []byte("x"), 0o644))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EP2", "US1", "WO3"}, names)
}

func TestPutResultsAndSummary(t *testing.T) {
	store, err := newStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	results := []map[string]any{{"IC50_nM": "4.2", "ligand_name": "compound 7"}}
	require.NoError(t, store.PutResults(ctx, "US9", results))

	data, err := os.ReadFile(filepath.Join(store.Root(), ResultsDir, "US9.json"))
	require.NoError(t, err)
	var gotResults []map[string]any
	require.NoError(t, json.Unmarshal(data, &gotResults))
	assert.Equal(t, results, gotResults)

	summary := []core.SummaryEntry{{Name: "US9", Path: "/pdfs/US9.pdf", HasBindingInfo: true}}
	require.NoError(t, store.PutSummary(ctx, summary))

	data, err = os.ReadFile(filepath.Join(store.Root(), SummaryDir, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path": "/pdfs/US9.pdf"`)

	require.NoError(t, store.PutSummary(ctx, nil))
	data, err = os.ReadFile(filepath.Join(store.Root(), SummaryDir, SummaryFile))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestConcurrentPuts(t *testing.T) {
	store, err := newStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("US%03d", i%10)
			doc := newTestDocument(t, name, 3500)
			assert.NoError(t, store.Put(ctx, doc))
		}(i)
	}
	wg.Wait()

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 10)
	for _, name := range names {
		got, err := store.Get(ctx, name)
		require.NoError(t, err)
		require.NoError(t, core.ValidateDocument(got))
	}
}
