// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// PageSource exposes the text layer of a paged document.
type PageSource interface {
	NumPage() int
	// PageText returns the text of page n (1-based). A page without text
	// items returns "" and no error.
	PageText(n int) (string, error)
}

// OpenFunc opens a PageSource over an in-memory PDF.
type OpenFunc func(content []byte) (PageSource, error)

// PDFOption configures a PDFExtractor.
type PDFOption func(*PDFExtractor)

// WithPageSource replaces the PDF parser. Mostly useful in tests.
func WithPageSource(open OpenFunc) PDFOption {
	return func(e *PDFExtractor) { e.open = open }
}

// WithPageWorkers extracts pages on n goroutines, each with its own reader.
// Pages are always reassembled in document order.
func WithPageWorkers(n int) PDFOption {
	return func(e *PDFExtractor) { e.workers = n }
}

// PDFExtractor extracts the text layer of a PDF page by page.
type PDFExtractor struct {
	open    OpenFunc
	workers int
}

// NewPDFExtractor creates a PDF extractor backed by ledongthuc/pdf.
func NewPDFExtractor(opts ...PDFOption) *PDFExtractor {
	e := &PDFExtractor{open: openPDF, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Method implements Extractor.
func (e *PDFExtractor) Method() Method { return MethodPDF }

// Extract implements Extractor. Pages are separated by a blank line and pages
// with no text are skipped; ErrNoTextContent is returned when no page had any.
func (e *PDFExtractor) Extract(content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrEmptyContent
	}

	src, err := e.open(content)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages := src.NumPage()
	pages := make([]string, numPages)
	if e.workers > 1 && numPages > 1 {
		if err := e.extractConcurrently(content, numPages, pages); err != nil {
			return "", err
		}
	} else {
		for i := 1; i <= numPages; i++ {
			text, err := src.PageText(i)
			if err != nil {
				continue
			}
			pages[i-1] = text
		}
	}

	var sb strings.Builder
	for _, text := range pages {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	if sb.Len() == 0 {
		return "", ErrNoTextContent
	}
	return sb.String(), nil
}

// extractConcurrently fills pages using e.workers readers. Worker w handles
// pages w+1, w+1+workers, ...
func (e *PDFExtractor) extractConcurrently(content []byte, numPages int, pages []string) error {
	workers := e.workers
	if workers > numPages {
		workers = numPages
	}

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			src, err := e.open(content)
			if err != nil {
				return fmt.Errorf("open pdf: %w", err)
			}
			for n := w + 1; n <= numPages; n += workers {
				text, err := src.PageText(n)
				if err != nil {
					continue
				}
				pages[n-1] = text
			}
			return nil
		})
	}
	return g.Wait()
}

// ledongthucSource adapts pdf.Reader to PageSource. The parser panics on
// some malformed streams, so both entry points recover.
type ledongthucSource struct {
	r *pdf.Reader
}

func openPDF(content []byte) (src PageSource, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	return ledongthucSource{r: r}, nil
}

func (s ledongthucSource) NumPage() int {
	return s.r.NumPage()
}

func (s ledongthucSource) PageText(n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", n, rec)
		}
	}()

	page := s.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
