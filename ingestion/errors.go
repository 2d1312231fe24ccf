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


package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a document store is not provided.
	ErrStoreRequired = errors.New("document store required")

	// ErrClassifierRequired is returned when a classifier is not provided.
	ErrClassifierRequired = errors.New("classifier required")

	// ErrControllerRequired is returned when a concurrency controller is not provided.
	ErrControllerRequired = errors.New("concurrency controller required")

	// ErrConverterRequired is returned when a text converter is not provided.
	ErrConverterRequired = errors.New("text converter required")

	// ErrInvalidBatchSize is returned for batch sizes below one.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrPersistence wraps a failed checkpoint write.
	ErrPersistence = errors.New("checkpoint write failed")
)
