// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leseb/docingest/pkg/template"
)

// recordedRequest is what a fake provider saw.
type recordedRequest struct {
	path   string
	query  string
	header http.Header
	body   map[string]any
}

func fakeProvider(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.header = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &rec.body); err != nil {
			t.Errorf("request body is not JSON: %s", data)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClientOpenAI(t *testing.T) {
	srv, rec := fakeProvider(t, http.StatusOK, `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hello!"}}]
	}`)

	c, err := NewClient(Config{Shape: ShapeOpenAI, Endpoint: srv.URL + "/v1", APIKey: "test-key", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	got, err := c.Complete(context.Background(), Params{Prompt: "Hi", Instructions: "Be nice", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Hello!" {
		t.Errorf("Complete() = %q, want %q", got, "Hello!")
	}
	if rec.path != "/v1/chat/completions" {
		t.Errorf("path = %q", rec.path)
	}
	if auth := rec.header.Get("Authorization"); auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if rec.body["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", rec.body["model"])
	}
	if msgs, _ := rec.body["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v, want system and user", rec.body["messages"])
	}
}

func TestClientAnthropic(t *testing.T) {
	srv, rec := fakeProvider(t, http.StatusOK, `{"content":[{"type":"text","text":"claude says hi"}]}`)

	c, err := NewClient(Config{Shape: ShapeAnthropic, Endpoint: srv.URL + "/v1/messages", APIKey: "ak", Model: "claude"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	got, err := c.Complete(context.Background(), Params{Prompt: "Hi"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "claude says hi" {
		t.Errorf("Complete() = %q", got)
	}
	if rec.header.Get("x-api-key") != "ak" || rec.header.Get("anthropic-version") != anthropicVersion {
		t.Errorf("headers = %v", rec.header)
	}
	if rec.header.Get("Authorization") != "" {
		t.Error("unexpected Authorization header")
	}
	if rec.body["max_tokens"] != float64(DefaultMaxTokens) {
		t.Errorf("max_tokens = %v", rec.body["max_tokens"])
	}
}

func TestClientGoogle(t *testing.T) {
	srv, rec := fakeProvider(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"gemini"}]}}]}`)

	c, err := NewClient(Config{
		Shape:    ShapeGoogle,
		Endpoint: srv.URL + "/v1beta/models/{model}:generateContent",
		APIKey:   "gk",
		Model:    "gemini-pro",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	got, err := c.Complete(context.Background(), Params{Prompt: "Hi"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "gemini" {
		t.Errorf("Complete() = %q", got)
	}
	if rec.path != "/v1beta/models/gemini-pro:generateContent" {
		t.Errorf("path = %q", rec.path)
	}
	if rec.query != "key=gk" {
		t.Errorf("query = %q", rec.query)
	}
}

func TestClientTemplate(t *testing.T) {
	srv, rec := fakeProvider(t, http.StatusOK, `{"result":{"answer":"ignored"},"output_text":"templated"}`)

	tmpl, err := template.Parse([]byte(`{
		"engine": "{model}",
		"input": {"question": "{prompt}", "context": "{instructions}"},
		"options": {"temperature": "{temperature}", "stream": false}
	}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	c, err := NewClient(Config{Shape: ShapeCustom, Endpoint: srv.URL + "/generate", APIKey: "ck", Template: tmpl})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	temp := 0.2
	got, err := c.Complete(context.Background(), Params{Model: "local", Prompt: "why?", Instructions: "ctx", Temperature: &temp})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "templated" {
		t.Errorf("Complete() = %q", got)
	}
	if rec.body["engine"] != "local" {
		t.Errorf("engine = %v", rec.body["engine"])
	}
	input, _ := rec.body["input"].(map[string]any)
	if input["question"] != "why?" || input["context"] != "ctx" {
		t.Errorf("input = %v", input)
	}
	options, _ := rec.body["options"].(map[string]any)
	if options["temperature"] != "0.2" || options["stream"] != false {
		t.Errorf("options = %v", options)
	}
	if rec.header.Get("Authorization") != "Bearer ck" {
		t.Errorf("Authorization = %q", rec.header.Get("Authorization"))
	}
}

func TestClientOpenAITemplateUsesPlainPost(t *testing.T) {
	srv, rec := fakeProvider(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`)

	tmpl := template.Object{
		{Key: "model", Value: template.String("{model}")},
		{Key: "messages", Value: template.Array{template.Object{
			{Key: "role", Value: template.String("user")},
			{Key: "content", Value: template.String("{prompt}")},
		}}},
	}
	c, err := NewClient(Config{Shape: ShapeOpenAI, Endpoint: srv.URL + "/v1/", Model: "m", Template: tmpl})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := c.Complete(context.Background(), Params{Prompt: "x"}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if rec.path != "/v1/chat/completions" {
		t.Errorf("path = %q", rec.path)
	}
	if rec.body["model"] != "m" {
		t.Errorf("model = %v", rec.body["model"])
	}
}

func TestClientErrors(t *testing.T) {
	t.Run("status error", func(t *testing.T) {
		srv, _ := fakeProvider(t, http.StatusTooManyRequests, `{"error":"slow down"}`)
		c, err := NewClient(Config{Shape: ShapeCohere, Endpoint: srv.URL})
		if err != nil {
			t.Fatal(err)
		}
		_, err = c.Complete(context.Background(), Params{Prompt: "x"})
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("Complete() error = %v, want StatusError 429", err)
		}
	})

	t.Run("long status body cut on a rune boundary", func(t *testing.T) {
		body := strings.Repeat("a", maxErrorBodySize-1) + "é" + strings.Repeat("b", 10)
		srv, _ := fakeProvider(t, http.StatusBadGateway, body)
		c, err := NewClient(Config{Shape: ShapeCohere, Endpoint: srv.URL})
		if err != nil {
			t.Fatal(err)
		}
		_, err = c.Complete(context.Background(), Params{Prompt: "x"})
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("Complete() error = %v, want StatusError", err)
		}
		if want := strings.Repeat("a", maxErrorBodySize-1); statusErr.Body != want {
			t.Errorf("Body has %d bytes, want %d", len(statusErr.Body), len(want))
		}
		if !utf8.ValidString(statusErr.Body) {
			t.Error("Body is not valid UTF-8")
		}
	})

	t.Run("no text", func(t *testing.T) {
		srv, _ := fakeProvider(t, http.StatusOK, `{"message":{"content":[]}}`)
		c, err := NewClient(Config{Shape: ShapeCohere, Endpoint: srv.URL})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.Complete(context.Background(), Params{Prompt: "x"}); !errors.Is(err, ErrNoText) {
			t.Fatalf("Complete() error = %v, want ErrNoText", err)
		}
	})

	t.Run("empty prompt", func(t *testing.T) {
		c, err := NewClient(Config{Shape: ShapeCohere})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.Complete(context.Background(), Params{Prompt: "  "}); err == nil {
			t.Fatal("Complete() with empty prompt succeeded")
		}
	})

	t.Run("custom without endpoint", func(t *testing.T) {
		if _, err := NewClient(Config{Shape: ShapeCustom}); err == nil {
			t.Fatal("NewClient() succeeded without endpoint")
		}
	})

	t.Run("unknown shape", func(t *testing.T) {
		if _, err := NewClient(Config{Shape: "bogus"}); err == nil {
			t.Fatal("NewClient() succeeded with unknown shape")
		}
	})
}

func TestClientDefaults(t *testing.T) {
	temp := 0.9
	c, err := NewClient(Config{Shape: ShapeAnthropic, Model: "default-model", Temperature: &temp, MaxTokens: 99})
	if err != nil {
		t.Fatal(err)
	}
	if c.cfg.Endpoint != defaultEndpoints[ShapeAnthropic] {
		t.Errorf("Endpoint = %q", c.cfg.Endpoint)
	}

	p := c.withDefaults(Params{Prompt: "x"})
	if p.Model != "default-model" || p.Temperature == nil || *p.Temperature != 0.9 || p.MaxTokens != 99 {
		t.Errorf("withDefaults() = %+v", p)
	}

	own := 0.1
	p = c.withDefaults(Params{Model: "m", Temperature: &own, MaxTokens: 5})
	if p.Model != "m" || *p.Temperature != 0.1 || p.MaxTokens != 5 {
		t.Errorf("withDefaults() overrode explicit params: %+v", p)
	}
}
