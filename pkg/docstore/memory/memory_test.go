// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory_test

import (
	"testing"

	"github.com/leseb/docingest/pkg/docstore"
	"github.com/leseb/docingest/pkg/docstore/docstoretest"
	"github.com/leseb/docingest/pkg/docstore/memory"
)

func TestMemoryConformance(t *testing.T) {
	docstoretest.RunConformanceTests(t, func(t *testing.T) docstore.Store {
		return memory.New()
	})
}
