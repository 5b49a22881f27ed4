// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// decodeRequestBody replaces a compressed request body with a decompressing
// reader. Size limits applied later count decompressed bytes.
func decodeRequestBody(r *http.Request) error {
	encoding := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding")))
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	var body io.Reader
	switch encoding {
	case "", "identity":
		return nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		body = zr
	case "br":
		body = brotli.NewReader(r.Body)
	default:
		return fmt.Errorf("unsupported content encoding: %s", encoding)
	}

	r.Body = readCloser{Reader: body, Closer: r.Body}
	r.Header.Del("Content-Encoding")
	r.Header.Del("Content-Length")
	r.ContentLength = -1
	return nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
