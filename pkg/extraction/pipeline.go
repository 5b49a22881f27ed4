// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
)

const (
	// FailedPlaceholder is the text of every MethodFailed result.
	FailedPlaceholder = "Unable to extract readable text from this document. " +
		"The file may be scanned or image-based, encrypted, or in an unsupported format."

	// LowConfidencePrefix is prepended to text that was extracted but did
	// not pass the readability check.
	LowConfidencePrefix = "[Warning: the extracted text may be incomplete or unreadable]\n\n"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-extractor diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTextExtractor replaces the direct-decode extractor.
func WithTextExtractor(e Extractor) Option {
	return func(p *Pipeline) { p.text = e }
}

// WithHTMLExtractor replaces the HTML extractor.
func WithHTMLExtractor(e Extractor) Option {
	return func(p *Pipeline) { p.html = e }
}

// WithPDFExtractor replaces the PDF extractor.
func WithPDFExtractor(e Extractor) Option {
	return func(p *Pipeline) { p.pdf = e }
}

// WithDOCXExtractor replaces the DOCX extractor.
func WithDOCXExtractor(e Extractor) Option {
	return func(p *Pipeline) { p.docx = e }
}

// Pipeline dispatches content to an extractor based on its declared name and
// type, cleans the output and classifies it. It holds no per-call state and
// is safe for concurrent use.
type Pipeline struct {
	text   Extractor
	html   Extractor
	pdf    Extractor
	docx   Extractor
	logger *slog.Logger
}

// New creates a Pipeline with the built-in extractors unless replaced by opts.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		text: NewTextExtractor(),
		html: NewHTMLExtractor(),
		pdf:  NewPDFExtractor(),
		docx: NewDOCXExtractor(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// candidate is one step of the unknown-type cascade: the first candidate
// whose output is accepted wins.
type candidate struct {
	extractor Extractor
	accept    func(raw, cleaned string) bool
}

func (p *Pipeline) cascade() []candidate {
	return []candidate{
		{extractor: p.text, accept: acceptDecoded},
		{extractor: p.pdf, accept: acceptCleaned},
		{extractor: p.docx, accept: acceptCleaned},
	}
}

func acceptCleaned(_, cleaned string) bool {
	return IsReadable(cleaned)
}

// acceptDecoded also inspects the raw decode, since cleanup removes the ZIP
// magic and control bytes that mark a binary file.
func acceptDecoded(raw, cleaned string) bool {
	return !hasBinarySignature(sampleOf(raw)) && IsReadable(cleaned)
}

// Select returns the extractor for a declared name and type, or nil when
// the type is unknown.
func (p *Pipeline) Select(name, mimeType string) Extractor {
	ext := strings.ToLower(filepath.Ext(name))
	typ := mediaType(mimeType)

	switch {
	case ext == ".pdf" || strings.Contains(typ, "pdf"):
		return p.pdf
	case ext == ".docx" || strings.Contains(typ, "word") || strings.Contains(typ, "officedocument"):
		return p.docx
	case ext == ".txt" || ext == ".md" || ext == ".markdown" ||
		typ == "text/plain" || strings.Contains(typ, "markdown"):
		return p.text
	case ext == ".html" || ext == ".htm" || typ == "text/html":
		return p.html
	default:
		return nil
	}
}

// mediaType lowercases t and drops any parameters such as charset. Types
// that do not parse are compared as given.
func mediaType(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(t))
}

// Extract runs the extraction for req. It never fails: errors become
// MethodError results, an exhausted cascade becomes MethodFailed.
func (p *Pipeline) Extract(ctx context.Context, req Request) Result {
	logger := p.logger.With("name", req.Name, "type", req.Type, "bytes", len(req.Content))

	if e := p.Select(req.Name, req.Type); e != nil {
		return p.extractWith(ctx, logger, req, e)
	}

	for _, c := range p.cascade() {
		method := c.extractor.Method()
		raw, text, err := run(c.extractor, req.Content)
		if err != nil {
			logger.DebugContext(ctx, "Extractor failed, trying next", "method", method, "error", err)
			continue
		}
		if !c.accept(raw, text) {
			logger.DebugContext(ctx, "Extracted text not readable, trying next",
				"method", method, "failed", Assess(text).FailedConditions)
			continue
		}
		logger.InfoContext(ctx, "Extracted document", "method", method, "chars", len(text))
		return Result{Text: text, Method: method, IsReadable: true}
	}

	logger.WarnContext(ctx, "All extraction methods failed")
	return Result{Text: FailedPlaceholder, Method: MethodFailed}
}

func (p *Pipeline) extractWith(ctx context.Context, logger *slog.Logger, req Request, e Extractor) Result {
	method := e.Method()

	_, text, err := run(e, req.Content)
	if err != nil {
		logger.WarnContext(ctx, "Extraction failed", "method", method, "error", err)
		return Result{
			Text:   fmt.Sprintf("Error extracting text from %s: %v", displayName(req.Name), err),
			Method: MethodError,
		}
	}

	a := Assess(text)
	if !a.Readable {
		logger.InfoContext(ctx, "Extracted text has low confidence",
			"method", method, "failed", a.FailedConditions, "letter_ratio", a.LetterRatio)
		return Result{Text: LowConfidencePrefix + text, Method: method}
	}

	logger.InfoContext(ctx, "Extracted document", "method", method, "chars", len(text))
	return Result{Text: text, Method: method, IsReadable: true}
}

// run calls e and returns its raw and cleaned output. Panics inside
// third-party parsers are converted to errors.
func run(e Extractor, content []byte) (raw, cleaned string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s extractor panicked: %v", e.Method(), rec)
		}
	}()

	raw, err = e.Extract(content)
	if err != nil {
		return "", "", err
	}
	cleaned = Clean(raw)
	if cleaned == "" {
		return "", "", ErrEmptyContent
	}
	return raw, cleaned, nil
}

func displayName(name string) string {
	if name == "" {
		return "document"
	}
	return name
}
