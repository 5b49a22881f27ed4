// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package docstoretest is the shared conformance suite for docstore.Store
// backends.
package docstoretest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leseb/docingest/pkg/docstore"
	"github.com/leseb/docingest/pkg/extraction"
)

// IDs lists every document id the suite writes, so backends sharing a
// database between sub-tests can clean up.
var IDs = func() []string {
	ids := []string{"doc_get", "doc_upsert", "doc_del", "doc_unicode"}
	for i := 0; i < listSize; i++ {
		ids = append(ids, listID(i))
	}
	return ids
}()

const listSize = 5

func listID(i int) string { return fmt.Sprintf("doc_list_%d", i) }

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// RunConformanceTests runs the suite. newStore is called once per sub-test
// and must return an empty store.
func RunConformanceTests(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()

	t.Run("UpsertAndGet", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		doc := &docstore.Document{
			ID:               "doc_get",
			Filename:         "report.pdf",
			ContentType:      "application/pdf",
			Size:             2048,
			Content:          "Quarterly numbers look fine.",
			ExtractionMethod: extraction.MethodPDF,
			IsReadable:       true,
			CreatedAt:        base,
			UpdatedAt:        base,
		}
		if err := store.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert: %v", err)
		}

		got, err := store.Get(ctx, doc.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ID != doc.ID || got.Filename != doc.Filename || got.ContentType != doc.ContentType ||
			got.Size != doc.Size || got.Content != doc.Content ||
			got.ExtractionMethod != doc.ExtractionMethod || got.IsReadable != doc.IsReadable {
			t.Errorf("Get returned %+v, want %+v", got, doc)
		}
		if !got.CreatedAt.Equal(base) || !got.UpdatedAt.Equal(base) {
			t.Errorf("timestamps = %v / %v, want %v", got.CreatedAt, got.UpdatedAt, base)
		}
	})

	t.Run("UpsertReplacesAndKeepsCreatedAt", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		first := &docstore.Document{
			ID:               "doc_upsert",
			Filename:         "scan.pdf",
			Content:          "[Warning] garbled",
			ExtractionMethod: extraction.MethodPDF,
			CreatedAt:        base,
			UpdatedAt:        base,
		}
		if err := store.Upsert(ctx, first); err != nil {
			t.Fatalf("Upsert first: %v", err)
		}

		later := base.Add(time.Hour)
		second := &docstore.Document{
			ID:               "doc_upsert",
			Filename:         "scan.pdf",
			Content:          "Readable text now.",
			ExtractionMethod: extraction.MethodPDF,
			IsReadable:       true,
			CreatedAt:        later,
			UpdatedAt:        later,
		}
		for i := 0; i < 2; i++ {
			if err := store.Upsert(ctx, second); err != nil {
				t.Fatalf("Upsert second (%d): %v", i, err)
			}
		}

		got, err := store.Get(ctx, "doc_upsert")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Content != "Readable text now." || !got.IsReadable {
			t.Errorf("Upsert did not replace fields: %+v", got)
		}
		if !got.CreatedAt.Equal(base) {
			t.Errorf("CreatedAt = %v, want first value %v", got.CreatedAt, base)
		}
		if !got.UpdatedAt.Equal(later) {
			t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
		}

		docs, _, err := store.List(ctx, docstore.ListOptions{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(docs) != 1 {
			t.Errorf("List returned %d documents after repeated upserts, want 1", len(docs))
		}
	})

	t.Run("UnicodeContent", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		content := "Café crème\n\n\tTabbed line"
		doc := &docstore.Document{ID: "doc_unicode", Content: content, ExtractionMethod: extraction.MethodText, CreatedAt: base, UpdatedAt: base}
		if err := store.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		got, err := store.Get(ctx, "doc_unicode")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Content != content {
			t.Errorf("Content = %q, want %q", got.Content, content)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		doc := &docstore.Document{ID: "doc_del", ExtractionMethod: extraction.MethodFailed, CreatedAt: base, UpdatedAt: base}
		if err := store.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if err := store.Delete(ctx, "doc_del"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Get(ctx, "doc_del"); !errors.Is(err, docstore.ErrNotFound) {
			t.Errorf("Get after delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		if _, err := store.Get(ctx, "doc_missing"); !errors.Is(err, docstore.ErrNotFound) {
			t.Errorf("Get: got %v, want ErrNotFound", err)
		}
		if err := store.Delete(ctx, "doc_missing"); !errors.Is(err, docstore.ErrNotFound) {
			t.Errorf("Delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("ListPaginated", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		for i := 0; i < listSize; i++ {
			created := base.Add(time.Duration(i) * time.Second)
			doc := &docstore.Document{ID: listID(i), ExtractionMethod: extraction.MethodText, CreatedAt: created, UpdatedAt: created}
			if err := store.Upsert(ctx, doc); err != nil {
				t.Fatalf("Upsert[%d]: %v", i, err)
			}
		}

		docs, hasMore, err := store.List(ctx, docstore.ListOptions{Order: docstore.OrderAsc, Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(docs) != listSize || hasMore {
			t.Fatalf("List all = %d docs, hasMore=%v", len(docs), hasMore)
		}
		for i, doc := range docs {
			if doc.ID != listID(i) {
				t.Errorf("asc[%d] = %s, want %s", i, doc.ID, listID(i))
			}
		}

		docs, hasMore, err = store.List(ctx, docstore.ListOptions{Order: docstore.OrderAsc, Limit: 2})
		if err != nil {
			t.Fatalf("List page 1: %v", err)
		}
		if len(docs) != 2 || !hasMore || docs[1].ID != listID(1) {
			t.Fatalf("page 1 = %d docs, hasMore=%v", len(docs), hasMore)
		}

		docs, hasMore, err = store.List(ctx, docstore.ListOptions{Order: docstore.OrderAsc, Limit: 2, After: docs[1].ID})
		if err != nil {
			t.Fatalf("List page 2: %v", err)
		}
		if len(docs) != 2 || !hasMore || docs[0].ID != listID(2) {
			t.Fatalf("page 2 = %v, hasMore=%v", ids(docs), hasMore)
		}

		docs, hasMore, err = store.List(ctx, docstore.ListOptions{Order: docstore.OrderAsc, Limit: 2, After: docs[1].ID})
		if err != nil {
			t.Fatalf("List page 3: %v", err)
		}
		if len(docs) != 1 || hasMore || docs[0].ID != listID(4) {
			t.Fatalf("page 3 = %v, hasMore=%v", ids(docs), hasMore)
		}

		docs, _, err = store.List(ctx, docstore.ListOptions{Limit: 2})
		if err != nil {
			t.Fatalf("List desc: %v", err)
		}
		if len(docs) != 2 || docs[0].ID != listID(4) || docs[1].ID != listID(3) {
			t.Errorf("desc = %v, want newest first", ids(docs))
		}
	})
}

func ids(docs []*docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
