// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/leseb/docingest/pkg/blobstore"
)

func init() {
	blobstore.Providers.Register("s3", func(ctx context.Context, params map[string]string) (blobstore.Store, error) {
		return New(ctx, Options{
			Bucket:   params["bucket"],
			Region:   params["region"],
			Prefix:   params["prefix"],
			Endpoint: params["endpoint"],
		})
	})
}

var _ blobstore.Store = (*Store)(nil)

// Object user metadata keys.
const (
	metaName      = "name"
	metaSize      = "size"
	metaCreatedAt = "created-at"
)

// Options configures the S3 backend.
type Options struct {
	Bucket   string // required
	Region   string
	Prefix   string // key prefix, e.g. "uploads/"
	Endpoint string // custom endpoint for MinIO and other compatible services
}

// Store keeps each blob in a single object at <prefix><id>. Name, size and
// creation time travel as object user metadata.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an S3-backed Store using the default AWS credential chain.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 blob store: bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Put uploads the blob, replacing any existing object.
func (s *Store) Put(ctx context.Context, blob *blobstore.Blob) error {
	size := blob.Size
	if size == 0 {
		size = int64(len(blob.Content))
	}
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(blob.ID)),
		Body:        bytes.NewReader(blob.Content),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			metaName:      url.PathEscape(blob.Name),
			metaSize:      strconv.FormatInt(size, 10),
			metaCreatedAt: blob.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Get downloads the blob with its content.
func (s *Store) Get(ctx context.Context, id string) (*blobstore.Blob, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("blob %s: %w", id, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	b := blobFromMetadata(id, aws.ToString(out.ContentType), out.Metadata)
	b.Content = content
	return b, nil
}

// Stat reads the object metadata without downloading the body.
func (s *Store) Stat(ctx context.Context, id string) (*blobstore.Blob, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("blob %s: %w", id, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("head object: %w", err)
	}
	return blobFromMetadata(id, aws.ToString(out.ContentType), out.Metadata), nil
}

// Delete removes the object. S3 deletes are idempotent, so existence is
// checked first to report ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Stat(ctx, id); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close(_ context.Context) error { return nil }

func blobFromMetadata(id, contentType string, meta map[string]string) *blobstore.Blob {
	b := &blobstore.Blob{ID: id, ContentType: contentType}
	if name, err := url.PathUnescape(meta[metaName]); err == nil {
		b.Name = name
	}
	b.Size, _ = strconv.ParseInt(meta[metaSize], 10, 64)
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, meta[metaCreatedAt])
	return b
}

// isNotFound reports whether err means the object does not exist. HeadObject
// has no body, so some services only return a bare status code.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
