// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package ingest stores uploaded documents, extracts their text and keeps
// the extraction result up to date.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leseb/docingest/pkg/blobstore"
	"github.com/leseb/docingest/pkg/docstore"
	"github.com/leseb/docingest/pkg/extraction"
)

const (
	// DefaultExtractTimeout bounds a single extraction.
	DefaultExtractTimeout = 2 * time.Minute

	// minReusableContent is the length above which a readable prior result
	// is kept instead of extracting again.
	minReusableContent = 100

	defaultWorkers = 4
)

// ErrEmptyUpload is returned when an upload carries no bytes.
var ErrEmptyUpload = errors.New("uploaded file is empty")

// Extractor turns raw content into text. *extraction.Pipeline implements it.
type Extractor interface {
	Extract(ctx context.Context, req extraction.Request) extraction.Result
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithExtractTimeout bounds each extraction. Zero disables the bound.
func WithExtractTimeout(d time.Duration) Option {
	return func(s *Service) { s.extractTimeout = d }
}

// WithWorkers sets how many documents ProcessAll extracts at once.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the document id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service coordinates the blob store, the extractor and the document store.
type Service struct {
	blobs          blobstore.Store
	docs           docstore.Store
	extractor      Extractor
	logger         *slog.Logger
	extractTimeout time.Duration
	workers        int
	now            func() time.Time
	newID          func() string
}

// NewService creates a Service.
func NewService(blobs blobstore.Store, docs docstore.Store, extractor Extractor, opts ...Option) *Service {
	s := &Service{
		blobs:          blobs,
		docs:           docs,
		extractor:      extractor,
		extractTimeout: DefaultExtractTimeout,
		workers:        defaultWorkers,
		now:            time.Now,
		newID:          func() string { return "doc_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// ShouldExtract reports whether a document needs extraction. A prior result
// is reused when it is readable and longer than 100 characters, unless force
// is set.
func ShouldExtract(prior *docstore.Document, force bool) bool {
	if force || prior == nil {
		return true
	}
	return !(len(prior.Content) > minReusableContent && prior.IsReadable)
}

// UploadRequest is a new document.
type UploadRequest struct {
	Name        string
	ContentType string
	Content     []byte
}

// Upload stores the bytes under a new id, extracts the text and records it.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*docstore.Document, error) {
	if len(req.Content) == 0 {
		return nil, ErrEmptyUpload
	}

	now := s.now().UTC()
	blob := &blobstore.Blob{
		ID:          s.newID(),
		Name:        req.Name,
		ContentType: req.ContentType,
		Size:        int64(len(req.Content)),
		Content:     req.Content,
		CreatedAt:   now,
	}
	if err := s.blobs.Put(ctx, blob); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := s.extract(ctx, blob, nil, false)
	if err := s.docs.Upsert(ctx, doc); err != nil {
		// The record is the only way to list a blob, so drop it too.
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), blob.ID); derr != nil {
			s.logger.WarnContext(ctx, "Failed to remove upload after save error", "id", blob.ID, "error", derr)
		}
		return nil, fmt.Errorf("save document: %w", err)
	}
	s.logger.InfoContext(ctx, "Document ingested",
		"id", doc.ID, "name", doc.Filename, "method", doc.ExtractionMethod, "readable", doc.IsReadable)
	return doc, nil
}

// Process extracts a stored document again. It returns the current record
// and whether an extraction ran.
func (s *Service) Process(ctx context.Context, id string, force bool) (*docstore.Document, bool, error) {
	prior, err := s.docs.Get(ctx, id)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return nil, false, err
	}
	if err != nil {
		prior = nil
	}

	if !ShouldExtract(prior, force) {
		s.logger.DebugContext(ctx, "Skipping extraction, stored text is readable", "id", id)
		return prior, false, nil
	}

	blob, err := s.blobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, false, fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
		}
		return nil, false, fmt.Errorf("load upload: %w", err)
	}

	doc := s.extract(ctx, blob, prior, force)
	if err := s.docs.Upsert(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("save document: %w", err)
	}
	return doc, true, nil
}

// Summary counts the outcome of ProcessAll.
type Summary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ProcessAll runs Process over every stored document with a bounded number
// of workers. Per-document failures are counted and logged; only listing
// errors and cancellation abort the run.
func (s *Service) ProcessAll(ctx context.Context, force bool) (Summary, error) {
	var (
		mu      sync.Mutex
		summary Summary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	opts := docstore.ListOptions{Order: docstore.OrderAsc, Limit: 100}
	for {
		page, hasMore, err := s.docs.List(gctx, opts)
		if err != nil {
			g.Wait()
			return summary, fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range page {
			id := doc.ID
			g.Go(func() error {
				_, extracted, err := s.Process(gctx, id, force)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					summary.Failed++
					s.logger.WarnContext(gctx, "Reprocessing failed", "id", id, "error", err)
				case extracted:
					summary.Processed++
				default:
					summary.Skipped++
				}
				return gctx.Err()
			})
		}
		if !hasMore || len(page) == 0 {
			break
		}
		opts.After = page[len(page)-1].ID
	}

	err := g.Wait()
	return summary, err
}

// Get returns a document record.
func (s *Service) Get(ctx context.Context, id string) (*docstore.Document, error) {
	return s.docs.Get(ctx, id)
}

// List returns a page of document records.
func (s *Service) List(ctx context.Context, opts docstore.ListOptions) ([]*docstore.Document, bool, error) {
	return s.docs.List(ctx, opts)
}

// Content returns the original upload.
func (s *Service) Content(ctx context.Context, id string) (*blobstore.Blob, error) {
	return s.blobs.Get(ctx, id)
}

// Delete removes the record and the stored upload.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, id); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// extract runs the extractor under the configured deadline and builds the
// record to store. A result that arrives after the deadline is discarded.
func (s *Service) extract(ctx context.Context, blob *blobstore.Blob, prior *docstore.Document, force bool) *docstore.Document {
	req := extraction.Request{
		Content: blob.Content,
		Name:    blob.Name,
		Type:    blob.ContentType,
		Force:   force,
	}

	if s.extractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.extractTimeout)
		defer cancel()
	}

	done := make(chan extraction.Result, 1)
	go func() { done <- s.extractor.Extract(ctx, req) }()

	var res extraction.Result
	select {
	case res = <-done:
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Extraction abandoned", "id", blob.ID, "error", ctx.Err())
		res = extraction.Result{
			Text:   fmt.Sprintf("Error extracting text from %s: %v", blob.Name, ctx.Err()),
			Method: extraction.MethodError,
		}
	}

	now := s.now().UTC()
	doc := &docstore.Document{
		ID:               blob.ID,
		Filename:         blob.Name,
		ContentType:      blob.ContentType,
		Size:             blob.Size,
		Content:          res.Text,
		ExtractionMethod: res.Method,
		IsReadable:       res.IsReadable,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if prior != nil {
		doc.CreatedAt = prior.CreatedAt
	}
	return doc
}
