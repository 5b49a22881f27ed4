// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/leseb/docingest/pkg/template"
)

const (
	// DefaultMaxTokens is used where a provider requires a token limit and
	// none was configured.
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
	maxResponseSize  = 10 << 20
	maxErrorBodySize = 512
)

// defaultEndpoints are used when Config.Endpoint is empty. For ShapeOpenAI the
// endpoint is the API base URL; for the other shapes it is the full URL.
var defaultEndpoints = map[Shape]string{
	ShapeOpenAI:    "https://api.openai.com/v1",
	ShapeAnthropic: "https://api.anthropic.com/v1/messages",
	ShapeGoogle:    "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent",
	ShapeCohere:    "https://api.cohere.com/v2/chat",
}

// Config describes one provider.
type Config struct {
	Shape    Shape
	Endpoint string // may contain {model}
	APIKey   string

	// Defaults applied to Params fields left unset.
	Model       string
	Temperature *float64
	MaxTokens   int

	// Template replaces the built-in request body when non-nil.
	Template template.Node
	Timeout  time.Duration
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client sends completion requests to a single provider. Requests to OpenAI
// without a template go through the official SDK; everything else is a plain
// JSON POST.
type Client struct {
	cfg    Config
	http   *http.Client
	openai *openai.Client
	logger *slog.Logger
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	shape, err := ParseShape(string(cfg.Shape))
	if err != nil {
		return nil, err
	}
	cfg.Shape = shape

	if cfg.Endpoint == "" {
		if shape == ShapeCustom {
			return nil, fmt.Errorf("custom provider requires an endpoint")
		}
		cfg.Endpoint = defaultEndpoints[shape]
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}

	if shape == ShapeOpenAI && cfg.Template == nil {
		apiKey := cfg.APIKey
		if apiKey == "" {
			// Local OpenAI-compatible servers accept any key.
			apiKey = "dummy"
		}
		oc := openai.NewClient(
			option.WithBaseURL(cfg.Endpoint),
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(c.http),
		)
		c.openai = &oc
	}
	return c, nil
}

// Shape returns the provider shape.
func (c *Client) Shape() Shape { return c.cfg.Shape }

// Complete sends a single-turn completion request and returns the text.
func (c *Client) Complete(ctx context.Context, p Params) (string, error) {
	p = c.withDefaults(p)
	if strings.TrimSpace(p.Prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}

	if c.openai != nil {
		return c.completeOpenAI(ctx, p)
	}

	var body any
	if c.cfg.Template != nil {
		body = template.Format(c.cfg.Template, p.Values())
	} else {
		var err error
		if body, err = DefaultBody(c.cfg.Shape, p); err != nil {
			return "", err
		}
	}
	return c.post(ctx, c.endpointURL(p), body)
}

func (c *Client) withDefaults(p Params) Params {
	if p.Model == "" {
		p.Model = c.cfg.Model
	}
	if p.Temperature == nil {
		p.Temperature = c.cfg.Temperature
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = c.cfg.MaxTokens
	}
	return p
}

func (c *Client) endpointURL(p Params) string {
	endpoint := c.cfg.Endpoint
	if c.cfg.Shape == ShapeOpenAI {
		endpoint = strings.TrimRight(endpoint, "/") + "/chat/completions"
	}
	formatted := template.Format(template.String(endpoint), template.Values{"model": p.Model})
	return string(formatted.(template.String))
}

func (c *Client) completeOpenAI(ctx context.Context, p Params) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if p.Instructions != "" {
		messages = append(messages, openai.SystemMessage(p.Instructions))
	}
	messages = append(messages, openai.UserMessage(p.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.Model),
		Messages: messages,
	}
	if p.Temperature != nil {
		params.Temperature = openai.Float(*p.Temperature)
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxTokens))
	}

	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrNoText
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, url string, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	c.logger.DebugContext(ctx, "Provider call finished",
		"shape", c.cfg.Shape, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: truncateBody(respBody, maxErrorBodySize)}
	}
	return ExtractText(c.cfg.Shape, respBody)
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Shape == ShapeAnthropic {
		req.Header.Set("anthropic-version", anthropicVersion)
	}
	if c.cfg.APIKey == "" {
		return
	}
	switch c.cfg.Shape {
	case ShapeAnthropic:
		req.Header.Set("x-api-key", c.cfg.APIKey)
	case ShapeGoogle:
		q := req.URL.Query()
		q.Set("key", c.cfg.APIKey)
		req.URL.RawQuery = q.Encode()
	default:
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// truncateBody cuts b to at most n bytes without splitting a UTF-8 sequence.
func truncateBody(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n])
}
