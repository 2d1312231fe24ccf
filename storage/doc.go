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

// Package storage provides the storage abstraction layer for patentmark.
//
// Two kinds of state are kept:
//
//   - DocumentStore: one JSON checkpoint per document, the run summary, and
//     extracted binding results (see storage/jsonfile)
//   - Ledger: a compact record of which run persisted which document, with a
//     fingerprint of its text (see storage/badger)
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces:
//
//	store, err := jsonfile.NewStore("/data/checkpoints")  // returns storage.DocumentStore
//	ledger, err := badger.NewLedger("/data/ledger")       // returns storage.Ledger
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Idempotence
//
// Put replaces the checkpoint for a document name as a whole, so running the
// same document twice leaves exactly one record. Resuming a run is a rerun
// over the same input.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Concurrent Puts of
// different documents never interfere.
package storage
