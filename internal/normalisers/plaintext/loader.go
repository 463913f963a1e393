// Package plaintext loads text manuals. Form feed characters separate pages,
// which is how most PDF-to-text converters mark page breaks.
package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// PageBreak separates pages in a text file.
const PageBreak = "\f"

var _ driven.PageLoader = (*Loader)(nil)

// Loader reads UTF-8 text files.
type Loader struct{}

// New creates a plain text loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".txt", ".text"}
}

// Load splits the file on form feeds and returns one record per page.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.PageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &domain.LoadError{Path: path, Err: domain.ErrInvalidInput}
	}

	source := filepath.Base(path)
	parts := strings.Split(string(data), PageBreak)
	// A trailing form feed does not start a new page.
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	pages := make([]domain.PageRecord, len(parts))
	for i, text := range parts {
		page := domain.NewPageRecord(source, i+1, text)
		page.Metadata[domain.MetaPath] = path
		page.Metadata[domain.MetaTotalPages] = len(parts)
		pages[i] = page
	}
	return pages, nil
}
