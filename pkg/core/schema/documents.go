// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// Document represents an ingested document and its extracted text
type Document struct {
	ID               string `json:"id"`                 // Format: "doc_{uuid}"
	Object           string `json:"object"`             // Always "document"
	Filename         string `json:"filename"`           // Original filename
	ContentType      string `json:"content_type"`       // Declared MIME type
	Bytes            int64  `json:"bytes"`              // Upload size in bytes
	CreatedAt        int64  `json:"created_at"`         // Unix timestamp
	UpdatedAt        int64  `json:"updated_at"`         // Unix timestamp of the last extraction
	ExtractionMethod string `json:"extraction_method" enums:"text,pdf,docx,failed,error"`
	IsReadable       bool   `json:"is_readable"`
	Content          string `json:"content,omitempty"` // Extracted text, omitted from listings
}

// ListDocumentsResponse represents a list of documents
type ListDocumentsResponse struct {
	Object  string     `json:"object"`             // Always "list"
	Data    []Document `json:"data"`               // Array of documents
	FirstID string     `json:"first_id,omitempty"` // ID of first item
	LastID  string     `json:"last_id,omitempty"`  // ID of last item
	HasMore bool       `json:"has_more"`           // Whether there are more results
}

// DeleteDocumentResponse represents the response from deleting a document
type DeleteDocumentResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"` // Always "document.deleted"
	Deleted bool   `json:"deleted"`
}

// ProcessDocumentResponse is returned by a re-extraction request
type ProcessDocumentResponse struct {
	Document
	Processed bool `json:"processed"` // False when the stored text was reused
}

// ProcessAllResponse summarizes a bulk re-extraction
type ProcessAllResponse struct {
	Object    string `json:"object"` // Always "document.process_summary"
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}
