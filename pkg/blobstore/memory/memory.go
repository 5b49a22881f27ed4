// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/leseb/docingest/pkg/blobstore"
)

func init() {
	blobstore.Providers.Register("memory", func(_ context.Context, _ map[string]string) (blobstore.Store, error) {
		return New(), nil
	})
}

var _ blobstore.Store = (*Store)(nil)

// Store keeps blobs in a map. Stored and returned blobs are copies.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]blobstore.Blob
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{blobs: make(map[string]blobstore.Blob)}
}

// Put stores a copy of blob.
func (s *Store) Put(_ context.Context, blob *blobstore.Blob) error {
	cp := *blob
	cp.Content = bytes.Clone(blob.Content)
	if cp.Size == 0 {
		cp.Size = int64(len(cp.Content))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[blob.ID] = cp
	return nil
}

// Get returns the blob with its content.
func (s *Store) Get(_ context.Context, id string) (*blobstore.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, blobstore.ErrNotFound)
	}
	b.Content = bytes.Clone(b.Content)
	return &b, nil
}

// Stat returns the blob metadata.
func (s *Store) Stat(_ context.Context, id string) (*blobstore.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, blobstore.ErrNotFound)
	}
	b.Content = nil
	return &b, nil
}

// Delete removes a blob.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return fmt.Errorf("blob %s: %w", id, blobstore.ErrNotFound)
	}
	delete(s.blobs, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close(_ context.Context) error { return nil }
