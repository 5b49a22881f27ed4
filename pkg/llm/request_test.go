// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"encoding/json"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestParamsValues(t *testing.T) {
	v := Params{Model: "m", Prompt: "p", Instructions: "i", Temperature: ptr(0.3), MaxTokens: 50}.Values()
	if v["model"] != "m" || v["prompt"] != "p" || v["instructions"] != "i" {
		t.Errorf("Values() = %v", v)
	}
	if v["temperature"] != 0.3 || v["max_tokens"] != 50 {
		t.Errorf("Values() = %v", v)
	}

	v = Params{Prompt: "p"}.Values()
	if _, ok := v["temperature"]; ok {
		t.Error("unset temperature present in Values()")
	}
	if _, ok := v["max_tokens"]; ok {
		t.Error("unset max_tokens present in Values()")
	}
}

func TestDefaultBody(t *testing.T) {
	p := Params{Model: "m", Prompt: "hello", Instructions: "be brief", Temperature: ptr(0.5), MaxTokens: 64}

	tests := []struct {
		shape Shape
		p     Params
		want  string
	}{
		{
			shape: ShapeOpenAI,
			p:     p,
			want:  `{"model":"m","messages":[{"role":"system","content":"be brief"},{"role":"user","content":"hello"}],"temperature":0.5,"max_tokens":64}`,
		},
		{
			shape: ShapeAnthropic,
			p:     p,
			want:  `{"model":"m","system":"be brief","messages":[{"role":"user","content":"hello"}],"temperature":0.5,"max_tokens":64}`,
		},
		{
			shape: ShapeAnthropic,
			p:     Params{Model: "m", Prompt: "hello"},
			want:  `{"model":"m","messages":[{"role":"user","content":"hello"}],"max_tokens":1024}`,
		},
		{
			shape: ShapeGoogle,
			p:     p,
			want:  `{"contents":[{"role":"user","parts":[{"text":"hello"}]}],"systemInstruction":{"parts":[{"text":"be brief"}]},"generationConfig":{"temperature":0.5,"maxOutputTokens":64}}`,
		},
		{
			shape: ShapeGoogle,
			p:     Params{Prompt: "hello"},
			want:  `{"contents":[{"role":"user","parts":[{"text":"hello"}]}]}`,
		},
		{
			shape: ShapeCohere,
			p:     Params{Model: "m", Prompt: "hello"},
			want:  `{"model":"m","messages":[{"role":"user","content":"hello"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.shape), func(t *testing.T) {
			body, err := DefaultBody(tt.shape, tt.p)
			if err != nil {
				t.Fatalf("DefaultBody() error = %v", err)
			}
			got, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("DefaultBody() = %s\nwant %s", got, tt.want)
			}
		})
	}

	if _, err := DefaultBody(Shape("bogus"), p); err == nil {
		t.Error("DefaultBody() with unknown shape succeeded")
	}
}
