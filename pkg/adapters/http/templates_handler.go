// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"

	"github.com/leseb/docingest/pkg/core/schema"
	"github.com/leseb/docingest/pkg/template"
)

// handleFormatTemplate handles POST /v1/templates/format
func (h *Handler) handleFormatTemplate(w http.ResponseWriter, r *http.Request) {
	var req schema.FormatTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if len(req.Template) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "template is required")
		return
	}

	tmpl, err := template.Parse(req.Template)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := json.Marshal(template.Format(tmpl, template.Values(req.Values)))
	if err != nil {
		h.logger.Error("Failed to marshal formatted template", "error", err)
		h.writeError(w, http.StatusInternalServerError, "template_error", err.Error())
		return
	}

	placeholders := template.Placeholders(tmpl)
	if placeholders == nil {
		placeholders = []string{}
	}

	h.writeJSON(w, http.StatusOK, schema.FormatTemplateResponse{
		Object:       "template.formatted",
		Result:       result,
		Placeholders: placeholders,
	})
}
