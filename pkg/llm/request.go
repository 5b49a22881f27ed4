// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"fmt"

	"github.com/leseb/docingest/pkg/template"
)

// Params are the per-request inputs of a completion.
type Params struct {
	Model        string
	Prompt       string
	Instructions string
	Temperature  *float64
	MaxTokens    int
}

// Values returns the substitution map used to format request templates.
// Unset optional parameters are omitted so their placeholders stay visible.
func (p Params) Values() template.Values {
	v := template.Values{
		"model":        p.Model,
		"prompt":       p.Prompt,
		"instructions": p.Instructions,
	}
	if p.Temperature != nil {
		v["temperature"] = *p.Temperature
	}
	if p.MaxTokens > 0 {
		v["max_tokens"] = p.MaxTokens
	}
	return v
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func chatMessages(p Params) []chatMessage {
	var msgs []chatMessage
	if p.Instructions != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: p.Instructions})
	}
	return append(msgs, chatMessage{Role: "user", Content: p.Prompt})
}

// chatBody is the OpenAI chat completions body, also spoken by most
// self-hosted servers. It is the default body of ShapeCustom.
type chatBody struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type anthropicBody struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type googleBody struct {
	Contents          []googleContent         `json:"contents"`
	SystemInstruction *googleContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *googleGenerationConfig `json:"generationConfig,omitempty"`
}

type cohereBody struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// DefaultBody builds the request body a shape expects when no template is
// configured.
func DefaultBody(shape Shape, p Params) (any, error) {
	switch shape {
	case ShapeOpenAI, ShapeCustom:
		return chatBody{
			Model:       p.Model,
			Messages:    chatMessages(p),
			Temperature: p.Temperature,
			MaxTokens:   p.MaxTokens,
		}, nil
	case ShapeAnthropic:
		maxTokens := p.MaxTokens
		if maxTokens <= 0 {
			// The messages API rejects requests without max_tokens.
			maxTokens = DefaultMaxTokens
		}
		return anthropicBody{
			Model:       p.Model,
			System:      p.Instructions,
			Messages:    []chatMessage{{Role: "user", Content: p.Prompt}},
			Temperature: p.Temperature,
			MaxTokens:   maxTokens,
		}, nil
	case ShapeGoogle:
		body := googleBody{
			Contents: []googleContent{{Role: "user", Parts: []googlePart{{Text: p.Prompt}}}},
		}
		if p.Instructions != "" {
			body.SystemInstruction = &googleContent{Parts: []googlePart{{Text: p.Instructions}}}
		}
		if p.Temperature != nil || p.MaxTokens > 0 {
			body.GenerationConfig = &googleGenerationConfig{
				Temperature:     p.Temperature,
				MaxOutputTokens: p.MaxTokens,
			}
		}
		return body, nil
	case ShapeCohere:
		return cohereBody{
			Model:       p.Model,
			Messages:    chatMessages(p),
			Temperature: p.Temperature,
			MaxTokens:   p.MaxTokens,
		}, nil
	default:
		return nil, fmt.Errorf("unknown provider shape %q", shape)
	}
}
