// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/storage"
)

// Ledger implements storage.Ledger for BadgerDB.
type Ledger struct {
	backend *Backend
	owned   bool
}

var _ storage.Ledger = (*Ledger)(nil)

// NewLedger opens (or creates) a ledger database in dir.
//
// Returns storage.Ledger interface to enforce abstraction.
func NewLedger(dir string) (storage.Ledger, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, err
	}
	return &Ledger{backend: backend, owned: true}, nil
}

// newLedgerWithBackend creates a Ledger on an existing backend.
// The caller keeps ownership of the backend.
func newLedgerWithBackend(backend *Backend) *Ledger {
	return &Ledger{backend: backend}
}

// Record persists the latest entry for a document.
func (l *Ledger) Record(ctx context.Context, entry *core.LedgerEntry) error {
	if entry == nil || entry.Name == "" {
		return storage.ErrInvalidName
	}
	if l.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return l.backend.WithTx(func(tx *badger.Txn) error {
		if entry.PersistedAt.IsZero() {
			entry.PersistedAt = time.Now().UTC()
		}
		key := makeLedgerKey(entry.Name)
		value := storage.MarshalLedgerEntry(entry)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Get retrieves the latest entry for a document.
// Returns storage.ErrNotFound if no entry exists.
func (l *Ledger) Get(ctx context.Context, name string) (*core.LedgerEntry, error) {
	if l.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var entry *core.LedgerEntry
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLedgerKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: ledger entry %q", storage.ErrNotFound, name)
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			entry, unmarshalErr = storage.UnmarshalLedgerEntry(val)
			return unmarshalErr
		})
	}, false)

	return entry, err
}

// List returns every ledger entry, most recently persisted first.
func (l *Ledger) List(ctx context.Context) ([]*core.LedgerEntry, error) {
	if l.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var entries []*core.LedgerEntry
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = ledgerScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalLedgerEntry(val)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b *core.LedgerEntry) int {
		return b.PersistedAt.Compare(a.PersistedAt)
	})
	return entries, nil
}

// Close closes the ledger and, if the ledger opened it, the backend.
func (l *Ledger) Close() error {
	if !l.owned || l.backend.IsClosed() {
		return nil
	}
	return l.backend.Close()
}
