// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// CompletionRequest is a single-turn completion request
type CompletionRequest struct {
	Model        string   `json:"model,omitempty"`        // Defaults to the configured model
	Prompt       string   `json:"prompt"`                 // Required
	Instructions string   `json:"instructions,omitempty"` // System instructions
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
}

// CompletionResponse carries the completion text
type CompletionResponse struct {
	Object string `json:"object"` // Always "completion"
	Model  string `json:"model,omitempty"`
	Text   string `json:"text"`
}
