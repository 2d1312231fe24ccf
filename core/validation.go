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

import (
	"fmt"
	"unicode/utf8"
)

// ValidateDocument validates a Document according to domain rules.
// It is used on records reloaded from a checkpoint before they are trusted.
//
// Validation rules:
//   - Name must not be empty
//   - FullTextLen must equal the number of characters in FullText
//   - A too-short document has no chunks, any other non-empty document has some
//   - Chunks satisfy 0 <= start < end <= len, strictly increasing starts,
//     no gaps, and the last chunk ends at len
//   - HasBindingInfo equals the OR of the chunk flags
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyName)
	}

	length := utf8.RuneCountInString(doc.FullText)
	if doc.FullTextLen != length {
		return fmt.Errorf("%w: %w: recorded %d, actual %d", ErrInvalidDocument, ErrTextLengthMismatch, doc.FullTextLen, length)
	}

	if doc.TooShort && len(doc.Chunks) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrTooShortWithChunks)
	}
	if !doc.TooShort && length > 0 && len(doc.Chunks) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingChunks)
	}

	if err := ValidateChunks(doc.Chunks, length); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	anyFlag := false
	for _, c := range doc.Chunks {
		anyFlag = anyFlag || c.HasBindingInfo
	}
	if anyFlag != doc.HasBindingInfo {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrFlagMismatch)
	}

	return nil
}

// ValidateChunks checks chunk ranges against a text of the given length.
// An empty chunk list is valid.
func ValidateChunks(chunks []*Chunk, length int) error {
	if len(chunks) == 0 {
		return nil
	}

	covered := 0
	prevStart := -1
	for i, c := range chunks {
		if c.Start < 0 || c.Start >= c.End || c.End > length {
			return fmt.Errorf("%w: chunk %d [%d, %d) in text of length %d", ErrChunkOutOfRange, i, c.Start, c.End, length)
		}
		if c.Start <= prevStart {
			return fmt.Errorf("%w: chunk %d starts at %d after %d", ErrChunkOrder, i, c.Start, prevStart)
		}
		if c.Start > covered {
			return fmt.Errorf("%w: gap [%d, %d)", ErrChunkCoverage, covered, c.Start)
		}
		covered = max(covered, c.End)
		prevStart = c.Start
	}

	if chunks[len(chunks)-1].End != length {
		return fmt.Errorf("%w: last chunk ends at %d, text length %d", ErrChunkCoverage, chunks[len(chunks)-1].End, length)
	}
	return nil
}
