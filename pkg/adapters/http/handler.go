// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leseb/docingest/pkg/blobstore"
	"github.com/leseb/docingest/pkg/docstore"
	"github.com/leseb/docingest/pkg/ingest"
	"github.com/leseb/docingest/pkg/llm"
	"github.com/leseb/docingest/pkg/observability/logging"
)

const defaultMaxUploadSize = 50 << 20 // 50 MB

// Completer sends a completion request to a model provider.
type Completer interface {
	Complete(ctx context.Context, p llm.Params) (string, error)
}

var _ Completer = (*llm.Client)(nil)

// Option configures a Handler.
type Option func(*Handler)

// WithCompleter enables POST /v1/completions.
func WithCompleter(c Completer) Option {
	return func(h *Handler) { h.completer = c }
}

// WithMaxUploadSize limits the size of uploaded files.
func WithMaxUploadSize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadSize = n
		}
	}
}

// Handler implements the HTTP adapter
type Handler struct {
	ingest        *ingest.Service
	completer     Completer
	logger        *logging.Logger
	mux           *http.ServeMux
	maxUploadSize int64
}

// New creates a new HTTP handler
func New(svc *ingest.Service, logger *logging.Logger, opts ...Option) *Handler {
	h := &Handler{
		ingest:        svc,
		logger:        logger,
		mux:           http.NewServeMux(),
		maxUploadSize: defaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(h)
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)

	// Documents API
	h.mux.HandleFunc("POST /v1/documents", h.handleUploadDocument)
	h.mux.HandleFunc("GET /v1/documents", h.handleListDocuments)
	h.mux.HandleFunc("POST /v1/documents/process", h.handleProcessAll)
	h.mux.HandleFunc("GET /v1/documents/{id}", h.handleGetDocument)
	h.mux.HandleFunc("DELETE /v1/documents/{id}", h.handleDeleteDocument)
	h.mux.HandleFunc("GET /v1/documents/{id}/content", h.handleGetDocumentContent)
	h.mux.HandleFunc("POST /v1/documents/{id}/process", h.handleProcessDocument)

	// Completions API
	h.mux.HandleFunc("POST /v1/completions", h.handleCompletion)

	// Templates API
	h.mux.HandleFunc("POST /v1/templates/format", h.handleFormatTemplate)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	if err := decodeRequestBody(r); err != nil {
		h.writeError(w, http.StatusUnsupportedMediaType, "invalid_request", err.Error())
		return
	}

	h.mux.ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// writeJSON writes v with the given status
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	h.writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}

// writeStoreError maps storage errors to 404 or 500
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, msg string, id string) {
	if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, blobstore.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "document_not_found", "Document "+id+" not found")
		return
	}
	h.logger.Error(msg, "error", err, "document_id", id)
	h.writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
}
