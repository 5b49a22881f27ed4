// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/leseb/docingest/pkg/blobstore"
)

func init() {
	blobstore.Providers.Register("filesystem", func(_ context.Context, params map[string]string) (blobstore.Store, error) {
		return New(params["base_dir"])
	})
}

var _ blobstore.Store = (*Store)(nil)

const (
	contentFile = "content"
	metaFile    = "meta.json"
)

type blobMeta struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store keeps each blob in its own directory:
//
//	<baseDir>/<id>/content
//	<baseDir>/<id>/meta.json
type Store struct {
	baseDir string
}

// New creates a Store rooted at baseDir, creating it if needed.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("filesystem blob store: base_dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// dir returns the directory of id, rejecting ids that would escape baseDir.
func (s *Store) dir(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid blob id %q", id)
	}
	return filepath.Join(s.baseDir, id), nil
}

// Put writes content and metadata, each through a temp file and rename.
func (s *Store) Put(_ context.Context, blob *blobstore.Blob) error {
	dir, err := s.dir(blob.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	size := blob.Size
	if size == 0 {
		size = int64(len(blob.Content))
	}
	meta, err := json.Marshal(blobMeta{
		ID:          blob.ID,
		Name:        blob.Name,
		ContentType: blob.ContentType,
		Size:        size,
		CreatedAt:   blob.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, contentFile), blob.Content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, metaFile), meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get returns the blob with its content.
func (s *Store) Get(ctx context.Context, id string) (*blobstore.Blob, error) {
	b, err := s.Stat(ctx, id)
	if err != nil {
		return nil, err
	}
	dir, _ := s.dir(id)
	content, err := os.ReadFile(filepath.Join(dir, contentFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", id, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("read content: %w", err)
	}
	b.Content = content
	return b, nil
}

// Stat returns the blob metadata.
func (s *Store) Stat(_ context.Context, id string) (*blobstore.Blob, error) {
	dir, err := s.dir(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", id, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta blobMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", id, err)
	}
	return &blobstore.Blob{
		ID:          meta.ID,
		Name:        meta.Name,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		CreatedAt:   meta.CreatedAt,
	}, nil
}

// Delete removes the blob directory.
func (s *Store) Delete(_ context.Context, id string) error {
	dir, err := s.dir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("blob %s: %w", id, blobstore.ErrNotFound)
		}
		return fmt.Errorf("stat blob dir: %w", err)
	}
	return os.RemoveAll(dir)
}

// Close is a no-op.
func (s *Store) Close(_ context.Context) error { return nil }
