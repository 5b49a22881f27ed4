// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm sends single-turn completion requests to hosted model APIs.
// Each provider family has its own request and response shape; a configured
// request template overrides the built-in request body for any of them.
package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Shape identifies the wire format of a provider API.
type Shape string

const (
	ShapeOpenAI    Shape = "openai"
	ShapeAnthropic Shape = "anthropic"
	ShapeGoogle    Shape = "google"
	ShapeCohere    Shape = "cohere"
	ShapeCustom    Shape = "custom"
)

// ErrNoText is returned when a provider response carries no completion text.
var ErrNoText = errors.New("no text in provider response")

// ParseShape parses a case-insensitive shape name. The empty string selects
// ShapeOpenAI.
func ParseShape(s string) (Shape, error) {
	switch shape := Shape(strings.ToLower(strings.TrimSpace(s))); shape {
	case "":
		return ShapeOpenAI, nil
	case ShapeOpenAI, ShapeAnthropic, ShapeGoogle, ShapeCohere, ShapeCustom:
		return shape, nil
	default:
		return "", fmt.Errorf("unknown provider shape %q", s)
	}
}

// responsePaths lists, per shape, the gjson paths tried in order to find the
// completion text.
var responsePaths = map[Shape][]string{
	ShapeOpenAI: {
		"choices.0.message.content",
		"choices.0.text",
	},
	ShapeAnthropic: {
		`content.#(type=="text").text`,
		"content.0.text",
	},
	ShapeGoogle: {
		"candidates.0.content.parts.0.text",
	},
	ShapeCohere: {
		`message.content.#(type=="text").text`,
		"message.content.0.text",
		"text",
	},
}

// customPaths is the fallback chain for ShapeCustom: every known shape, then
// common single-field layouts.
var customPaths = func() []string {
	var paths []string
	for _, shape := range []Shape{ShapeOpenAI, ShapeAnthropic, ShapeGoogle, ShapeCohere} {
		paths = append(paths, responsePaths[shape]...)
	}
	return append(paths,
		"output_text",
		"output.0.content.0.text",
		"response",
		"generated_text",
		"0.generated_text",
	)
}()

// ExtractText returns the completion text of a provider response body.
func ExtractText(shape Shape, body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("invalid JSON response")
	}

	paths := responsePaths[shape]
	if shape == ShapeCustom {
		paths = customPaths
	}
	for _, path := range paths {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
			return r.Str, nil
		}
	}
	return "", ErrNoText
}
