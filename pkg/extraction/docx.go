// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const (
	docxMainPart = "word/document.xml"

	// maxZipEntrySize limits the decompressed size of the main document part.
	maxZipEntrySize = 100 << 20
)

var (
	xmlParagraphEndRe = regexp.MustCompile(`</w:p>`)
	xmlTagRe          = regexp.MustCompile(`<[^>]*>`)
)

// DOCXExtractor reads the main document part of a DOCX archive. A fast
// tag-stripping pass always runs; a structured walk over paragraphs and
// tables replaces its output whenever it finds at least one paragraph.
type DOCXExtractor struct{}

// NewDOCXExtractor creates a DOCX extractor.
func NewDOCXExtractor() *DOCXExtractor { return &DOCXExtractor{} }

// Method implements Extractor.
func (e *DOCXExtractor) Method() Method { return MethodDOCX }

// Extract implements Extractor.
func (e *DOCXExtractor) Extract(content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrEmptyContent
	}

	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	data, err := readMainPart(zr)
	if err != nil {
		return "", err
	}

	text := stripXMLTags(data)

	if paragraphs, err := structuredParagraphs(data); err == nil && len(paragraphs) > 0 {
		text = strings.Join(paragraphs, "\n\n")
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func readMainPart(zr *zip.Reader) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != docxMainPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", docxMainPart, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxZipEntrySize+1))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", docxMainPart, err)
		}
		if len(data) > maxZipEntrySize {
			return nil, fmt.Errorf("%s exceeds %d byte limit", docxMainPart, maxZipEntrySize)
		}
		return data, nil
	}
	return nil, ErrMissingDocumentPart
}

// stripXMLTags is the fast path: drop every tag, unescape entities and
// collapse whitespace.
func stripXMLTags(data []byte) string {
	s := xmlParagraphEndRe.ReplaceAllString(string(data), " ")
	s = xmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// xmlElement is a minimal element tree. Only local names are kept since
// WordprocessingML elements are matched by local name.
type xmlElement struct {
	name     string
	children []*xmlElement
	text     strings.Builder
}

func parseXMLTree(data []byte) (*xmlElement, error) {
	root := &xmlElement{}
	stack := []*xmlElement{root}

	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{name: t.Name.Local}
			top.children = append(top.children, el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			top.text.Write(t)
		}
	}
	return root, nil
}

// structuredParagraphs walks the document tree. Top-level paragraphs yield
// one entry each; every table row yields one entry with cells joined by tabs.
// Paragraphs inside tables are only reported through their row.
func structuredParagraphs(data []byte) ([]string, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, err
	}
	var out []string
	collectBlocks(root, &out)
	return out, nil
}

func collectBlocks(el *xmlElement, out *[]string) {
	switch el.name {
	case "p":
		if text := strings.TrimSpace(paragraphText(el)); text != "" {
			*out = append(*out, text)
		}
		return
	case "tbl":
		*out = append(*out, tableRows(el)...)
		return
	}
	for _, c := range el.children {
		collectBlocks(c, out)
	}
}

func tableRows(tbl *xmlElement) []string {
	var rows []string
	for _, tr := range descendants(tbl, "tr", "tbl") {
		var cells []string
		for _, tc := range descendants(tr, "tc", "tr") {
			var blocks []string
			for _, c := range tc.children {
				collectBlocks(c, &blocks)
			}
			cells = append(cells, strings.Join(blocks, " "))
		}
		row := strings.TrimSpace(strings.Join(cells, "\t"))
		if row != "" {
			rows = append(rows, row)
		}
	}
	return rows
}

// descendants returns elements named want below el without descending into
// elements named stop (nested tables own their rows).
func descendants(el *xmlElement, want, stop string) []*xmlElement {
	var out []*xmlElement
	for _, c := range el.children {
		switch c.name {
		case want:
			out = append(out, c)
		case stop:
		default:
			out = append(out, descendants(c, want, stop)...)
		}
	}
	return out
}

func paragraphText(p *xmlElement) string {
	var sb strings.Builder
	writeRuns(p, false, &sb)
	return sb.String()
}

func writeRuns(el *xmlElement, inRun bool, sb *strings.Builder) {
	for _, c := range el.children {
		switch c.name {
		case "r":
			writeRuns(c, true, sb)
		case "t":
			if inRun {
				sb.WriteString(c.text.String())
			}
		case "tab":
			if inRun {
				sb.WriteByte('\t')
			}
		case "br", "cr":
			if inRun {
				sb.WriteByte('\n')
			}
		default:
			writeRuns(c, inRun, sb)
		}
	}
}
