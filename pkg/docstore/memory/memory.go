// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leseb/docingest/pkg/docstore"
)

func init() {
	docstore.Providers.Register("memory", func(_ context.Context, _ map[string]string) (docstore.Store, error) {
		return New(), nil
	})
}

var _ docstore.Store = (*Store)(nil)

// Store is an in-memory document store.
type Store struct {
	mu   sync.RWMutex
	docs map[string]docstore.Document
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[string]docstore.Document)}
}

// Upsert implements docstore.Store.
func (s *Store) Upsert(_ context.Context, doc *docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *doc
	if prev, ok := s.docs[doc.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	}
	s.docs[doc.ID] = cp
	return nil
}

// Get implements docstore.Store.
func (s *Store) Get(_ context.Context, id string) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
	}
	return &doc, nil
}

// List implements docstore.Store.
func (s *Store) List(_ context.Context, opts docstore.ListOptions) ([]*docstore.Document, bool, error) {
	opts = opts.Normalize()

	s.mu.RLock()
	all := make([]docstore.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		all = append(all, doc)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if opts.Order == docstore.OrderDesc {
			return before(all[j], all[i])
		}
		return before(all[i], all[j])
	})

	start := 0
	if opts.After != "" {
		start = len(all)
		for i, doc := range all {
			if doc.ID == opts.After {
				start = i + 1
				break
			}
		}
	}

	var page []*docstore.Document
	for i := start; i < len(all) && len(page) < opts.Limit; i++ {
		doc := all[i]
		page = append(page, &doc)
	}
	hasMore := start+len(page) < len(all)
	return page, hasMore, nil
}

// before orders documents by creation time, then id.
func before(a, b docstore.Document) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Delete implements docstore.Store.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
	}
	delete(s.docs, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close(_ context.Context) error { return nil }
