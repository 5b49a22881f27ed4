// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/leseb/docingest/pkg/core/schema"
	"github.com/leseb/docingest/pkg/llm"
)

// handleCompletion handles POST /v1/completions
func (h *Handler) handleCompletion(w http.ResponseWriter, r *http.Request) {
	if h.completer == nil {
		h.writeError(w, http.StatusServiceUnavailable, "not_configured", "No model provider is configured")
		return
	}

	var req schema.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "prompt is required")
		return
	}

	text, err := h.completer.Complete(r.Context(), llm.Params{
		Model:        req.Model,
		Prompt:       req.Prompt,
		Instructions: req.Instructions,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		var statusErr *llm.StatusError
		switch {
		case errors.As(err, &statusErr), errors.Is(err, llm.ErrNoText):
			h.logger.Warn("Provider request failed", "error", err)
			h.writeError(w, http.StatusBadGateway, "provider_error", err.Error())
		default:
			h.logger.Error("Completion failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "completion_error", err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusOK, schema.CompletionResponse{
		Object: "completion",
		Model:  req.Model,
		Text:   text,
	})
}
