// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package blobstore keeps the original bytes of uploaded documents so they
// can be extracted again later.
package blobstore

import (
	"context"
	"errors"
	"time"

	"github.com/leseb/docingest/pkg/provider"
)

// ErrNotFound is returned when no blob exists for an id.
var ErrNotFound = errors.New("blob not found")

// Providers is the registry of blob store backends. Backends register
// themselves from init; blank-import the ones a binary should offer:
//
//	import _ "github.com/leseb/docingest/pkg/blobstore/memory"
//	import _ "github.com/leseb/docingest/pkg/blobstore/filesystem"
//	import _ "github.com/leseb/docingest/pkg/blobstore/s3"
var Providers = provider.NewRegistry[Store]("blob_store")

// Blob is an uploaded file. Content is nil when returned from Stat.
type Blob struct {
	ID          string
	Name        string
	ContentType string
	Size        int64
	Content     []byte
	CreatedAt   time.Time
}

// Store is a pluggable blob backend. Put replaces any existing blob with the
// same id.
type Store interface {
	Put(ctx context.Context, blob *Blob) error
	Get(ctx context.Context, id string) (*Blob, error)
	Stat(ctx context.Context, id string) (*Blob, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}
