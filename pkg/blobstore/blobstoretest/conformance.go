// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package blobstoretest is the shared conformance suite for blobstore.Store
// backends. Each backend calls RunConformanceTests from its own tests.
package blobstoretest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leseb/docingest/pkg/blobstore"
)

// RunConformanceTests runs the suite. newStore is called once per sub-test
// and must return an isolated store.
func RunConformanceTests(t *testing.T, newStore func(t *testing.T) blobstore.Store) {
	t.Helper()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("PutAndStat", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		b := &blobstore.Blob{
			ID:          "doc_stat",
			Name:        "quarterly report.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.7 body"),
			CreatedAt:   created,
		}
		if err := store.Put(ctx, b); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := store.Stat(ctx, b.ID)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if got.ID != b.ID || got.Name != b.Name || got.ContentType != b.ContentType {
			t.Errorf("Stat returned unexpected metadata: %+v", got)
		}
		if got.Size != int64(len(b.Content)) {
			t.Errorf("Size = %d, want %d", got.Size, len(b.Content))
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
		}
		if got.Content != nil {
			t.Errorf("Stat returned %d content bytes, want none", len(got.Content))
		}
	})

	t.Run("GetContent", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		content := []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0xFF, 'x'}
		if err := store.Put(ctx, &blobstore.Blob{ID: "doc_bin", Name: "a.docx", Content: content, CreatedAt: created}); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := store.Get(ctx, "doc_bin")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got.Content) != string(content) {
			t.Errorf("content = %q, want %q", got.Content, content)
		}
		if got.Name != "a.docx" {
			t.Errorf("Name = %q", got.Name)
		}
	})

	t.Run("PutReplaces", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		if err := store.Put(ctx, &blobstore.Blob{ID: "doc_rep", Name: "v1.txt", Content: []byte("one"), CreatedAt: created}); err != nil {
			t.Fatalf("Put v1: %v", err)
		}
		if err := store.Put(ctx, &blobstore.Blob{ID: "doc_rep", Name: "v2.txt", Content: []byte("second"), CreatedAt: created}); err != nil {
			t.Fatalf("Put v2: %v", err)
		}

		got, err := store.Get(ctx, "doc_rep")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got.Content) != "second" || got.Name != "v2.txt" || got.Size != 6 {
			t.Errorf("Get after replace = %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		if err := store.Put(ctx, &blobstore.Blob{ID: "doc_del", Content: []byte("bye"), CreatedAt: created}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := store.Delete(ctx, "doc_del"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Get(ctx, "doc_del"); !errors.Is(err, blobstore.ErrNotFound) {
			t.Errorf("Get after delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		if _, err := store.Get(ctx, "doc_missing"); !errors.Is(err, blobstore.ErrNotFound) {
			t.Errorf("Get: got %v, want ErrNotFound", err)
		}
		if _, err := store.Stat(ctx, "doc_missing"); !errors.Is(err, blobstore.ErrNotFound) {
			t.Errorf("Stat: got %v, want ErrNotFound", err)
		}
		if err := store.Delete(ctx, "doc_missing"); !errors.Is(err, blobstore.ErrNotFound) {
			t.Errorf("Delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("StoredCopyIsIndependent", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		content := []byte("original")
		if err := store.Put(ctx, &blobstore.Blob{ID: "doc_copy", Content: content, CreatedAt: created}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		content[0] = 'X'

		got, err := store.Get(ctx, "doc_copy")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got.Content) != "original" {
			t.Errorf("content = %q, caller mutation leaked into store", got.Content)
		}
	})
}
