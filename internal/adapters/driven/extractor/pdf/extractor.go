// Package pdf extracts per-page plain text from PDF files using a pure-Go reader.
package pdf

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads text from PDF documents.
type Extractor struct{}

// New creates a PDF text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract returns the plain text of each page of the PDF at path.
// Pages that cannot be decoded are returned empty; a document with no
// decodable page at all is an error.
func (e *Extractor) Extract(ctx context.Context, path string) (pages []string, err error) {
	if path == "" {
		return nil, fmt.Errorf("extract pdf: empty path: %w", domain.ErrInvalidInput)
	}

	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("extract %s: malformed pdf: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	return extractPages(ctx, readerPages{r}, path)
}

// pageSource is the subset of the PDF reader used for page iteration.
type pageSource interface {
	NumPage() int
	PageText(i int) (text string, ok bool, err error)
}

type readerPages struct {
	r *pdf.Reader
}

func (p readerPages) NumPage() int {
	return p.r.NumPage()
}

// PageText returns ok=false for a missing page object.
func (p readerPages) PageText(i int) (string, bool, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", false, nil
	}
	text, err := page.GetPlainText(nil)
	return text, true, err
}

func extractPages(ctx context.Context, src pageSource, path string) ([]string, error) {
	n := src.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("extract %s: document has no pages", path)
	}

	pages := make([]string, 0, n)
	decoded := 0
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, ok, err := src.PageText(i)
		switch {
		case err != nil:
			logger.Debug("Page %d of %s unreadable: %v", i, path, err)
			text = ""
		case ok:
			decoded++
		}
		pages = append(pages, text)
	}

	if decoded == 0 {
		return nil, fmt.Errorf("extract %s: no readable pages", path)
	}
	return pages, nil
}
