// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextExtractor decodes content directly as text. Valid UTF-8 is used as-is,
// a UTF-16 byte order mark selects UTF-16 and anything else is read as
// Windows-1252.
type TextExtractor struct{}

// NewTextExtractor creates a direct-decode extractor.
func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

// Method implements Extractor.
func (e *TextExtractor) Method() Method { return MethodText }

// Extract implements Extractor.
func (e *TextExtractor) Extract(content []byte) (string, error) {
	return decodeText(content)
}

func decodeText(content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrEmptyContent
	}

	if bytes.HasPrefix(content, utf8BOM) {
		return string(content[len(utf8BOM):]), nil
	}

	var dec *encoding.Decoder
	switch {
	case bytes.HasPrefix(content, []byte{0xFF, 0xFE}), bytes.HasPrefix(content, []byte{0xFE, 0xFF}):
		dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	case utf8.Valid(content):
		return string(content), nil
	default:
		dec = charmap.Windows1252.NewDecoder()
	}

	out, err := dec.Bytes(content)
	if err != nil {
		// Undecodable input is still handed to the classifier as raw bytes.
		return string(content), nil
	}
	return string(out), nil
}

// HTMLExtractor decodes content as text and strips HTML markup. Script,
// style and noscript elements are skipped entirely.
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTML extractor.
func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

// Method implements Extractor.
func (e *HTMLExtractor) Method() Method { return MethodText }

// Extract implements Extractor.
func (e *HTMLExtractor) Extract(content []byte) (string, error) {
	decoded, err := decodeText(content)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(decoded))
	if err != nil {
		// Fall back to the decoded text if the markup is malformed
		return decoded, nil
	}

	var sb strings.Builder
	writeHTMLText(doc, &sb)
	return strings.TrimSpace(sb.String()), nil
}

func writeHTMLText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
		}
	}

	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteString(" ")
			}
			sb.WriteString(text)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeHTMLText(c, sb)
	}
}
