// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory_test

import (
	"testing"

	"github.com/leseb/docingest/pkg/blobstore"
	"github.com/leseb/docingest/pkg/blobstore/blobstoretest"
	"github.com/leseb/docingest/pkg/blobstore/memory"
)

func TestMemoryConformance(t *testing.T) {
	blobstoretest.RunConformanceTests(t, func(t *testing.T) blobstore.Store {
		return memory.New()
	})
}
