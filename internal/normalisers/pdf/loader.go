// Package pdf loads PDF manuals page by page.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// ErrNoPages indicates a PDF that parsed but reports zero pages.
var ErrNoPages = errors.New("pdf has no pages")

var _ driven.PageLoader = (*Loader)(nil)

// Loader extracts plain text from each page of a PDF.
type Loader struct{}

// New creates a PDF loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".pdf"}
}

// Load returns one record per page. Pages with no content stream get a nil
// Text so segmentation can report them. Any parser failure, including a
// panic inside the PDF library, is returned as a *domain.LoadError.
func (l *Loader) Load(ctx context.Context, path string) (pages []domain.PageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &domain.LoadError{Path: path, Err: fmt.Errorf("corrupt pdf: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Err: err}
	}
	defer f.Close()

	total := reader.NumPage()
	if total == 0 {
		return nil, &domain.LoadError{Path: path, Err: ErrNoPages}
	}

	source := filepath.Base(path)
	pages = make([]domain.PageRecord, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record := domain.PageRecord{
			Source: source,
			Page:   i,
			Metadata: map[string]any{
				domain.MetaSource:     source,
				domain.MetaPage:       i,
				domain.MetaPath:       path,
				domain.MetaTotalPages: total,
			},
		}

		page := reader.Page(i)
		if !page.V.IsNull() {
			text, err := page.GetPlainText(nil)
			if err != nil {
				return nil, &domain.LoadError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
			}
			record.Text = &text
		}
		pages = append(pages, record)
	}
	return pages, nil
}
