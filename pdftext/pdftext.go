// Package pdftext converts patent files to plain text.
package pdftext

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrDocumentRead indicates a file that could not be converted to text.
var ErrDocumentRead = errors.New("document read failed")

// Text is the extracted content of a document.
type Text struct {
	FullText  string
	PageCount int
}

// Converter extracts text from PDF files. Plain .txt files are read as a
// single page.
type Converter struct {
	// FallbackPdftotext runs the pdftotext binary when the Go reader fails.
	FallbackPdftotext bool
}

// Convert reads the file at path. Pages are concatenated without separators.
// Any failure wraps ErrDocumentRead.
func (c *Converter) Convert(path string) (Text, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		data, err := os.ReadFile(path)
		if err != nil {
			return Text{}, fmt.Errorf("%w: %s: %w", ErrDocumentRead, path, err)
		}
		return Text{FullText: string(data), PageCount: 1}, nil
	}

	text, err := extractPDFText(path)
	if err != nil && c.FallbackPdftotext {
		text, err = extractPdftotext(path)
	}
	if err != nil {
		return Text{}, fmt.Errorf("%w: %s: %w", ErrDocumentRead, path, err)
	}
	return text, nil
}

func extractPDFText(path string) (text Text, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return Text{}, err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(content)
	}
	return Text{FullText: buf.String(), PageCount: numPages}, nil
}

func extractPdftotext(path string) (Text, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return Text{}, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext ends every page with a form feed.
	pages := strings.Split(string(out), "\f")
	if len(pages) > 0 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return Text{FullText: strings.Join(pages, ""), PageCount: len(pages)}, nil
}
