// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"errors"
	"testing"
)

func TestParseShape(t *testing.T) {
	tests := []struct {
		in      string
		want    Shape
		wantErr bool
	}{
		{in: "", want: ShapeOpenAI},
		{in: "openai", want: ShapeOpenAI},
		{in: " Anthropic ", want: ShapeAnthropic},
		{in: "GOOGLE", want: ShapeGoogle},
		{in: "cohere", want: ShapeCohere},
		{in: "custom", want: ShapeCustom},
		{in: "mistral", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseShape(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseShape(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseShape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		body    string
		want    string
		wantErr error
	}{
		{
			name:  "openai chat",
			shape: ShapeOpenAI,
			body:  `{"choices":[{"message":{"role":"assistant","content":"Hi there"}}]}`,
			want:  "Hi there",
		},
		{
			name:  "openai legacy completion",
			shape: ShapeOpenAI,
			body:  `{"choices":[{"text":"legacy"}]}`,
			want:  "legacy",
		},
		{
			name:  "anthropic skips tool blocks",
			shape: ShapeAnthropic,
			body:  `{"content":[{"type":"tool_use","id":"t1"},{"type":"text","text":"answer"}]}`,
			want:  "answer",
		},
		{
			name:  "google",
			shape: ShapeGoogle,
			body:  `{"candidates":[{"content":{"parts":[{"text":"gemini says"}]}}]}`,
			want:  "gemini says",
		},
		{
			name:  "cohere v2",
			shape: ShapeCohere,
			body:  `{"message":{"role":"assistant","content":[{"type":"text","text":"command says"}]}}`,
			want:  "command says",
		},
		{
			name:  "cohere v1",
			shape: ShapeCohere,
			body:  `{"text":"v1 text"}`,
			want:  "v1 text",
		},
		{
			name:  "custom falls back through known shapes",
			shape: ShapeCustom,
			body:  `{"candidates":[{"content":{"parts":[{"text":"found"}]}}]}`,
			want:  "found",
		},
		{
			name:  "custom responses api",
			shape: ShapeCustom,
			body:  `{"output_text":"responses"}`,
			want:  "responses",
		},
		{
			name:  "custom text generation inference",
			shape: ShapeCustom,
			body:  `[{"generated_text":"tgi"}]`,
			want:  "tgi",
		},
		{
			name:    "wrong shape",
			shape:   ShapeGoogle,
			body:    `{"choices":[{"message":{"content":"x"}}]}`,
			wantErr: ErrNoText,
		},
		{
			name:    "empty content",
			shape:   ShapeOpenAI,
			body:    `{"choices":[{"message":{"content":""}}]}`,
			wantErr: ErrNoText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.shape, []byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ExtractText() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextInvalidJSON(t *testing.T) {
	if _, err := ExtractText(ShapeOpenAI, []byte("<html>bad gateway</html>")); err == nil {
		t.Error("ExtractText() of non-JSON succeeded, want error")
	}
}
