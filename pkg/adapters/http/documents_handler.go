// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/leseb/docingest/pkg/core/schema"
	"github.com/leseb/docingest/pkg/docstore"
	"github.com/leseb/docingest/pkg/ingest"
)

// handleUploadDocument handles POST /v1/documents
func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "invalid_request",
				fmt.Sprintf("File exceeds %d bytes", h.maxUploadSize))
			return
		}
		h.logger.Error("Failed to parse multipart form", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "File is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read file content", "error", err)
		h.writeError(w, http.StatusInternalServerError, "read_error", "Failed to read file content")
		return
	}

	doc, err := h.ingest.Upload(r.Context(), ingest.UploadRequest{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyUpload) {
			h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.logger.Error("Failed to ingest document", "error", err, "filename", header.Filename)
		h.writeError(w, http.StatusInternalServerError, "ingest_error", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, toSchemaDocument(doc, true))
}

// handleListDocuments handles GET /v1/documents
func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := docstore.ListOptions{
		After: query.Get("after"),
		Order: query.Get("order"),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 100 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 100")
			return
		}
		opts.Limit = l
	}

	docs, hasMore, err := h.ingest.List(r.Context(), opts.Normalize())
	if err != nil {
		h.logger.Error("Failed to list documents", "error", err)
		h.writeError(w, http.StatusInternalServerError, "list_error", err.Error())
		return
	}

	data := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		data = append(data, toSchemaDocument(doc, false))
	}

	resp := schema.ListDocumentsResponse{
		Object:  "list",
		Data:    data,
		HasMore: hasMore,
	}
	if len(data) > 0 {
		resp.FirstID = data[0].ID
		resp.LastID = data[len(data)-1].ID
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleGetDocument handles GET /v1/documents/{id}
func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	doc, err := h.ingest.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "Failed to get document", id)
		return
	}

	h.writeJSON(w, http.StatusOK, toSchemaDocument(doc, true))
}

// handleGetDocumentContent handles GET /v1/documents/{id}/content
func (h *Handler) handleGetDocumentContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	blob, err := h.ingest.Content(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "Failed to get document content", id)
		return
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": blob.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Content)))
	w.WriteHeader(http.StatusOK)
	w.Write(blob.Content)
}

// handleDeleteDocument handles DELETE /v1/documents/{id}
func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.ingest.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Failed to delete document", id)
		return
	}

	h.logger.Info("Document deleted", "document_id", id)
	h.writeJSON(w, http.StatusOK, schema.DeleteDocumentResponse{
		ID:      id,
		Object:  "document.deleted",
		Deleted: true,
	})
}

// handleProcessDocument handles POST /v1/documents/{id}/process
func (h *Handler) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	force, ok := h.forceParam(w, r)
	if !ok {
		return
	}

	doc, processed, err := h.ingest.Process(r.Context(), id, force)
	if err != nil {
		h.writeStoreError(w, err, "Failed to process document", id)
		return
	}

	h.writeJSON(w, http.StatusOK, schema.ProcessDocumentResponse{
		Document:  toSchemaDocument(doc, true),
		Processed: processed,
	})
}

// handleProcessAll handles POST /v1/documents/process
func (h *Handler) handleProcessAll(w http.ResponseWriter, r *http.Request) {
	force, ok := h.forceParam(w, r)
	if !ok {
		return
	}

	summary, err := h.ingest.ProcessAll(r.Context(), force)
	if err != nil {
		h.logger.Error("Failed to process documents", "error", err)
		h.writeError(w, http.StatusInternalServerError, "processing_error", err.Error())
		return
	}

	h.logger.Info("Documents processed",
		"processed", summary.Processed, "skipped", summary.Skipped, "failed", summary.Failed)
	h.writeJSON(w, http.StatusOK, schema.ProcessAllResponse{
		Object:    "document.process_summary",
		Processed: summary.Processed,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
	})
}

func (h *Handler) forceParam(w http.ResponseWriter, r *http.Request) (bool, bool) {
	v := r.URL.Query().Get("force")
	if v == "" {
		return false, true
	}
	force, err := strconv.ParseBool(v)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "force must be a boolean")
		return false, false
	}
	return force, true
}

func toSchemaDocument(doc *docstore.Document, withContent bool) schema.Document {
	out := schema.Document{
		ID:               doc.ID,
		Object:           "document",
		Filename:         doc.Filename,
		ContentType:      doc.ContentType,
		Bytes:            doc.Size,
		CreatedAt:        doc.CreatedAt.Unix(),
		UpdatedAt:        doc.UpdatedAt.Unix(),
		ExtractionMethod: string(doc.ExtractionMethod),
		IsReadable:       doc.IsReadable,
	}
	if withContent {
		out.Content = doc.Content
	}
	return out
}
