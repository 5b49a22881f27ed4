// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/leseb/docingest/pkg/core/schema"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	zw.Close()
	return buf.Bytes()
}

func brotliBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	if _, err := bw.Write(data); err != nil {
		t.Fatalf("brotli: %v", err)
	}
	bw.Close()
	return buf.Bytes()
}

func TestCompressedRequestBody(t *testing.T) {
	body := []byte(`{"template":{"q":"{prompt}"},"values":{"prompt":"compressed"}}`)

	tests := []struct {
		name       string
		encoding   string
		body       []byte
		wantStatus int
	}{
		{name: "identity", body: body, wantStatus: http.StatusOK},
		{name: "gzip", encoding: "gzip", body: gzipBytes(t, body), wantStatus: http.StatusOK},
		{name: "brotli", encoding: "br", body: brotliBytes(t, body), wantStatus: http.StatusOK},
		{name: "corrupt gzip", encoding: "gzip", body: []byte("not gzip"), wantStatus: http.StatusUnsupportedMediaType},
		{name: "unsupported", encoding: "zstd", body: body, wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			req := httptest.NewRequest(http.MethodPost, "/v1/templates/format", bytes.NewReader(tt.body))
			if tt.encoding != "" {
				req.Header.Set("Content-Encoding", tt.encoding)
			}

			rec := do(t, h, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp schema.FormatTemplateResponse
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if string(resp.Result) != `{"q":"compressed"}` {
				t.Errorf("result = %s", resp.Result)
			}
		})
	}
}

func TestCompressedUpload(t *testing.T) {
	h := newTestHandler(t)
	req := uploadRequest(t, "notes.txt", "text/plain", []byte(readable))

	var raw bytes.Buffer
	raw.ReadFrom(req.Body)
	compressed := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewReader(gzipBytes(t, raw.Bytes())))
	compressed.Header.Set("Content-Type", req.Header.Get("Content-Type"))
	compressed.Header.Set("Content-Encoding", "gzip")

	rec := do(t, h, compressed)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var doc schema.Document
	json.Unmarshal(rec.Body.Bytes(), &doc)
	if doc.Content != readable {
		t.Errorf("content = %q", doc.Content)
	}
}
