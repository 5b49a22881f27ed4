// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package docstore persists the extraction result of every ingested document.
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/leseb/docingest/pkg/extraction"
	"github.com/leseb/docingest/pkg/provider"
)

// ErrNotFound is returned when no document exists for an id.
var ErrNotFound = errors.New("document not found")

// Providers is the registry of document store backends.
//
//	import _ "github.com/leseb/docingest/pkg/docstore/memory"
//	import _ "github.com/leseb/docingest/pkg/docstore/postgres"
//	import _ "github.com/leseb/docingest/pkg/docstore/sqlite"
var Providers = provider.NewRegistry[Store]("doc_store")

// Document is the stored record of one upload and its extracted text.
type Document struct {
	ID               string
	Filename         string
	ContentType      string
	Size             int64
	Content          string
	ExtractionMethod extraction.Method
	IsReadable       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Order values accepted by ListOptions.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListOptions selects a page of documents ordered by creation time.
type ListOptions struct {
	After string // id of the last document of the previous page
	Limit int    // 1-100, default 20
	Order string // OrderAsc or OrderDesc (default)
}

// Normalize applies the defaults and bounds.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Order != OrderAsc {
		o.Order = OrderDesc
	}
	return o
}

// Store is a pluggable document backend.
//
// Upsert inserts doc or replaces every field of the existing record with the
// same id except CreatedAt, which keeps its first value. Calling it twice
// with the same document leaves the same state.
type Store interface {
	Upsert(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, opts ListOptions) (docs []*Document, hasMore bool, err error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}
