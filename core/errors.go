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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyName indicates the document Name field is empty.
	ErrEmptyName = errors.New("document name cannot be empty")

	// ErrTextLengthMismatch indicates FullTextLen disagrees with FullText.
	ErrTextLengthMismatch = errors.New("text length does not match text")

	// ErrChunkOutOfRange indicates a chunk range outside the document text.
	ErrChunkOutOfRange = errors.New("chunk range out of bounds")

	// ErrChunkOrder indicates chunk starts that do not strictly increase.
	ErrChunkOrder = errors.New("chunks out of order")

	// ErrChunkCoverage indicates chunks leave part of the text uncovered.
	ErrChunkCoverage = errors.New("chunks do not cover text")

	// ErrFlagMismatch indicates the document flag disagrees with its chunks.
	ErrFlagMismatch = errors.New("document flag disagrees with chunks")

	// ErrTooShortWithChunks indicates a too-short document that has chunks.
	ErrTooShortWithChunks = errors.New("too-short document has chunks")

	// ErrMissingChunks indicates a document with text but no chunks.
	ErrMissingChunks = errors.New("document has text but no chunks")
)
