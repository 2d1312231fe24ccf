package core

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/patentmark/chunker"
)

// Identity derives a document name and origin country code from a file path.
// The name is the file name without extension; the country is the first two
// characters of the file name (patent numbers start with the office code).
func Identity(path string) (name, country string) {
	base := filepath.Base(path)
	name = strings.TrimSuffix(base, filepath.Ext(base))
	runes := []rune(base)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return name, string(runes)
}

// NewDocument builds a document and chunks its text synchronously.
// Returns chunker.ErrInvalidParams when the chunking parameters are unusable.
func NewDocument(name, country, localPath, fullText string, nPages int, params chunker.Params) (*Document, error) {
	doc := &Document{
		Name:          name,
		Country:       country,
		LocalPath:     localPath,
		FullText:      fullText,
		FullTextLen:   utf8.RuneCountInString(fullText),
		NPages:        nPages,
		ChunkSize:     params.WindowSize,
		ChunkOverlaps: params.NumWindowsHint,
		Chunks:        []*Chunk{},
	}

	windows, texts, err := chunker.Split(fullText, params)
	if err != nil {
		return nil, err
	}

	if params.TooShort(doc.FullTextLen) {
		doc.TooShort = true
		doc.State = StateSkippedTooShort
		return doc, nil
	}

	for i, w := range windows {
		doc.Chunks = append(doc.Chunks, &Chunk{
			Start:     w.Start,
			End:       w.End,
			Text:      texts[i],
			Tags:      []string{},
			Compounds: []string{},
		})
	}
	doc.State = StateChunked
	return doc, nil
}

// NewDocumentFromPath builds a document whose identity comes from path.
func NewDocumentFromPath(path, fullText string, nPages int, params chunker.Params) (*Document, error) {
	name, country := Identity(path)
	return NewDocument(name, country, path, fullText, nPages, params)
}

// ChunkParams returns the chunking parameters recorded on the document.
func (d *Document) ChunkParams(minLength int) chunker.Params {
	return chunker.Params{
		WindowSize:     d.ChunkSize,
		NumWindowsHint: d.ChunkOverlaps,
		MinLength:      minLength,
	}
}
