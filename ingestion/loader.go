package ingestion

import (
	"errors"
	"log/slog"

	"github.com/poiesic/patentmark/chunker"
	"github.com/poiesic/patentmark/core"
	"github.com/poiesic/patentmark/pdftext"
)

// TextConverter extracts the text of one document file.
type TextConverter interface {
	Convert(path string) (pdftext.Text, error)
}

// DocumentLoader turns file paths into chunked documents.
type DocumentLoader struct {
	converter TextConverter
	params    chunker.Params
	logger    *slog.Logger
}

// NewDocumentLoader creates a loader. Chunking parameters are validated here
// so misconfiguration fails before any document is read.
func NewDocumentLoader(converter TextConverter, params chunker.Params, logger *slog.Logger) (*DocumentLoader, error) {
	if converter == nil {
		return nil, ErrConverterRequired
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentLoader{
		converter: converter,
		params:    params,
		logger:    logger.With("component", "document-loader"),
	}, nil
}

// Params returns the chunking parameters used by the loader.
func (l *DocumentLoader) Params() chunker.Params {
	return l.params
}

// Load reads and chunks the document at path. A file that cannot be read
// yields a document with empty text, which is too short to classify but is
// still checkpointed.
func (l *DocumentLoader) Load(path string) (*core.Document, error) {
	text, err := l.converter.Convert(path)
	if err != nil {
		l.logger.Warn("error reading document, continuing with empty text",
			"path", path, "read_error", errors.Is(err, pdftext.ErrDocumentRead), "err", err)
		text = pdftext.Text{}
	}
	return core.NewDocumentFromPath(path, text.FullText, text.PageCount, l.params)
}

// LoadAll loads every path in order.
func (l *DocumentLoader) LoadAll(paths []string) ([]*core.Document, error) {
	docs := make([]*core.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
