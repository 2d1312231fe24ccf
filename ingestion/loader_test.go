package ingestion

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/patentmark/chunker"
	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/pdftext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConverter returns canned text per path.
type stubConverter struct {
	texts map[string]pdftext.Text
}

func (s *stubConverter) Convert(path string) (pdftext.Text, error) {
	if text, ok := s.texts[path]; ok {
		return text, nil
	}
	return pdftext.Text{}, errors.New("no such document")
}

func TestNewDocumentLoaderValidation(t *testing.T) {
	_, err := NewDocumentLoader(nil, testParams, nil)
	assert.ErrorIs(t, err, ErrConverterRequired)

	_, err = NewDocumentLoader(&stubConverter{}, chunker.Params{WindowSize: 3, NumWindowsHint: 5}, nil)
	assert.ErrorIs(t, err, chunker.ErrInvalidParams)

	loader, err := NewDocumentLoader(&stubConverter{}, testParams, nil)
	require.NoError(t, err)
	assert.Equal(t, testParams, loader.Params())
}

func TestLoad(t *testing.T) {
	converter := &stubConverter{texts: map[string]pdftext.Text{
		"/data/US7654321B2.pdf": {FullText: plainText(300), PageCount: 12},
	}}
	loader, err := NewDocumentLoader(converter, testParams, nil)
	require.NoError(t, err)

	doc, err := loader.Load("/data/US7654321B2.pdf")
	require.NoError(t, err)
	assert.Equal(t, "US7654321B2", doc.Name)
	assert.Equal(t, "US", doc.Country)
	assert.Equal(t, "/data/US7654321B2.pdf", doc.LocalPath)
	assert.Equal(t, 12, doc.NPages)
	assert.Equal(t, 300, doc.FullTextLen)
	assert.Equal(t, core.StateChunked, doc.State)
	assert.Len(t, doc.Chunks, 11)
}

func TestLoadUnreadableBecomesPlaceholder(t *testing.T) {
	loader, err := NewDocumentLoader(&stubConverter{}, testParams, nil)
	require.NoError(t, err)

	doc, err := loader.Load("/data/EP1000000.pdf")
	require.NoError(t, err)
	assert.Equal(t, "EP1000000", doc.Name)
	assert.True(t, doc.TooShort)
	assert.Empty(t, doc.FullText)
	assert.Zero(t, doc.NPages)
	assert.Empty(t, doc.Chunks)
	assert.Equal(t, core.StateSkippedTooShort, doc.State)
}

func TestLoadUnreadableWithoutMinimumLength(t *testing.T) {
	params := chunker.Params{WindowSize: 100, NumWindowsHint: 5, MinLength: 0}
	loader, err := NewDocumentLoader(&stubConverter{}, params, nil)
	require.NoError(t, err)

	doc, err := loader.Load("/data/WO2020000001.pdf")
	require.NoError(t, err)
	assert.True(t, doc.TooShort)
	assert.Empty(t, doc.Chunks)
	assert.Equal(t, core.StateSkippedTooShort, doc.State)
	assert.NoError(t, core.ValidateDocument(doc))
}

func TestLoadAllWithTextFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "US1.txt"), filepath.Join(dir, "US2.txt")}
	require.NoError(t, os.WriteFile(paths[0], []byte(plainText(300)), 0o644))
	require.NoError(t, os.WriteFile(paths[1], []byte(plainText(20)), 0o644))

	loader, err := NewDocumentLoader(&pdftext.Converter{}, testParams, nil)
	require.NoError(t, err)

	docs, err := loader.LoadAll(paths)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "US1", docs[0].Name)
	assert.False(t, docs[0].TooShort)
	assert.Equal(t, 1, docs[0].NPages)
	assert.True(t, docs[1].TooShort)
}
