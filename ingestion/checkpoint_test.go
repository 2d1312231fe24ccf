package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/storage"
	"github.com/poiesic/patentmark/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCheckpointWriterValidation(t *testing.T) {
	c := newTestController(t, 1, 1)
	store := newTestStore(t)

	_, err := NewCheckpointWriter(nil, c, nil, "run", nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewCheckpointWriter(store, nil, nil, "run", nil)
	assert.ErrorIs(t, err, ErrControllerRequired)
}

func TestCheckpointWriterWrite(t *testing.T) {
	c := newTestController(t, 1, 2)
	store := newTestStore(t)
	ledger, err := badger.NewMemoryLedger()
	require.NoError(t, err)
	defer ledger.Close()

	w, err := NewCheckpointWriter(store, c, ledger, "run-1", nil)
	require.NoError(t, err)

	doc := newTestDocument(t, "US100", plainText(300))
	doc.Aggregate()
	require.NoError(t, w.Write(context.Background(), doc))
	assert.Equal(t, core.StatePersisted, doc.State)

	stored, err := store.Get(context.Background(), "US100")
	require.NoError(t, err)
	assert.Equal(t, doc.FullText, stored.FullText)
	assert.Len(t, stored.Chunks, len(doc.Chunks))

	entry, err := ledger.Get(context.Background(), "US100")
	require.NoError(t, err)
	assert.Equal(t, "run-1", entry.RunID)
	assert.Equal(t, doc.Fingerprint(), entry.Fingerprint)
	assert.Equal(t, len(doc.Chunks), entry.Chunks)
}

func TestCheckpointWriterStoreError(t *testing.T) {
	c := newTestController(t, 1, 1)
	boom := errors.New("disk full")
	store := &faultyStore{DocumentStore: newTestStore(t), failPut: map[string]error{"US100": boom}}

	w, err := NewCheckpointWriter(store, c, nil, "run", nil)
	require.NoError(t, err)

	doc := newTestDocument(t, "US100", plainText(300))
	doc.Aggregate()
	err = w.Write(context.Background(), doc)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, core.StateAggregated, doc.State, "failed write must not mark the document persisted")
}

func TestCheckpointWriterRecoversPanic(t *testing.T) {
	c := newTestController(t, 1, 1)
	store := &faultyStore{DocumentStore: newTestStore(t), panicPut: true}

	w, err := NewCheckpointWriter(store, c, nil, "run", nil)
	require.NoError(t, err)

	doc := newTestDocument(t, "US100", plainText(300))
	err = w.Write(context.Background(), doc)
	assert.ErrorIs(t, err, ErrPersistence)

	// the write slot is free again
	doc2 := newTestDocument(t, "US200", plainText(300))
	store.panicPut = false
	require.NoError(t, w.Write(context.Background(), doc2))
}

// faultyStore wraps a DocumentStore and fails selected writes.
type faultyStore struct {
	storage.DocumentStore
	failPut  map[string]error
	panicPut bool
}

func (s *faultyStore) Put(ctx context.Context, doc *core.Document) error {
	if s.panicPut {
		panic("store exploded")
	}
	if err, ok := s.failPut[doc.Name]; ok {
		return err
	}
	return s.DocumentStore.Put(ctx, doc)
}
