// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem_test

import (
	"context"
	"testing"

	"github.com/leseb/docingest/pkg/blobstore"
	"github.com/leseb/docingest/pkg/blobstore/blobstoretest"
	"github.com/leseb/docingest/pkg/blobstore/filesystem"
)

func TestFilesystemConformance(t *testing.T) {
	blobstoretest.RunConformanceTests(t, func(t *testing.T) blobstore.Store {
		store, err := filesystem.New(t.TempDir())
		if err != nil {
			t.Fatalf("filesystem.New: %v", err)
		}
		return store
	})
}

func TestFilesystemRejectsPathTraversal(t *testing.T) {
	store, err := filesystem.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", "a/b"} {
		if err := store.Put(ctx, &blobstore.Blob{ID: id, Content: []byte("x")}); err == nil {
			t.Errorf("Put(%q) succeeded, want error", id)
		}
		if _, err := store.Get(ctx, id); err == nil {
			t.Errorf("Get(%q) succeeded, want error", id)
		}
	}
}

func TestFilesystemRequiresBaseDir(t *testing.T) {
	if _, err := filesystem.New(""); err == nil {
		t.Error("New(\"\") succeeded, want error")
	}
}

func TestFilesystemRegistered(t *testing.T) {
	store, err := blobstore.Providers.New(context.Background(), "filesystem", map[string]string{"base_dir": t.TempDir()})
	if err != nil {
		t.Fatalf("Providers.New: %v", err)
	}
	defer store.Close(context.Background())
}
