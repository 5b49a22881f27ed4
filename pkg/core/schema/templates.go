// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "encoding/json"

// FormatTemplateRequest asks for {placeholder} substitution in a JSON template
type FormatTemplateRequest struct {
	Template json.RawMessage `json:"template"` // Any JSON value; object key order is preserved
	Values   map[string]any  `json:"values"`   // String or number values
}

// FormatTemplateResponse carries the formatted template
type FormatTemplateResponse struct {
	Object       string          `json:"object"` // Always "template.formatted"
	Result       json.RawMessage `json:"result"`
	Placeholders []string        `json:"placeholders"` // Keys referenced by the template
}
