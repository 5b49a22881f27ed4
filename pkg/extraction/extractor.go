// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package extraction turns uploaded document bytes into clean text and a
// readability verdict. PDF, DOCX and plain text are supported; content of
// unknown type is tried against each extractor in turn.
package extraction

import "errors"

// Method identifies how a Result was produced.
type Method string

const (
	MethodText   Method = "text"
	MethodPDF    Method = "pdf"
	MethodDOCX   Method = "docx"
	MethodFailed Method = "failed"
	MethodError  Method = "error"
)

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodText, MethodPDF, MethodDOCX, MethodFailed, MethodError:
		return true
	}
	return false
}

var (
	// ErrEmptyContent is returned for zero-length input or output.
	ErrEmptyContent = errors.New("empty content")
	// ErrNoTextContent is returned when no PDF page has a text layer.
	ErrNoTextContent = errors.New("no text content extracted, likely scanned/image-based")
	// ErrMissingDocumentPart is returned when a DOCX archive has no word/document.xml.
	ErrMissingDocumentPart = errors.New("missing word/document.xml")
	// ErrEmptyDocument is returned when a DOCX yields no text.
	ErrEmptyDocument = errors.New("no text found in document")
)

// Extractor converts raw content to text.
type Extractor interface {
	Method() Method
	Extract(content []byte) (string, error)
}

// Compile-time interface checks.
var (
	_ Extractor = (*TextExtractor)(nil)
	_ Extractor = (*HTMLExtractor)(nil)
	_ Extractor = (*PDFExtractor)(nil)
	_ Extractor = (*DOCXExtractor)(nil)
)

// Request is a single extraction call.
type Request struct {
	Content []byte
	Name    string // declared file name
	Type    string // declared MIME type, may be empty
	Force   bool   // reprocess even if a readable result already exists
}

// Result is the outcome of an extraction. It is always well formed: Text is
// never empty for failed or error results.
type Result struct {
	Text       string `json:"content"`
	Method     Method `json:"extraction_method"`
	IsReadable bool   `json:"is_readable"`
}
