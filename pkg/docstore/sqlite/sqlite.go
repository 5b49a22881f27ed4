// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leseb/docingest/pkg/docstore"
	"github.com/leseb/docingest/pkg/extraction"
)

func init() {
	docstore.Providers.Register("sqlite", func(ctx context.Context, params map[string]string) (docstore.Store, error) {
		path := params["path"]
		if path == "" {
			path = "docingest.db"
		}
		return New(ctx, path)
	})
}

var _ docstore.Store = (*Store)(nil)

// Store is a SQLite-backed document store. Timestamps are stored as Unix
// nanoseconds.
type Store struct {
	db *sql.DB
}

// New opens the database at path; ":memory:" gives a private in-memory
// database.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Every connection to ":memory:" is a different database, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL DEFAULT '',
			extraction_method TEXT NOT NULL DEFAULT '',
			is_readable INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at, id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite create tables: %w", err)
		}
	}
	return nil
}

// Upsert implements docstore.Store.
func (s *Store) Upsert(ctx context.Context, doc *docstore.Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, content_type, size, content, extraction_method, is_readable, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			filename = excluded.filename,
			content_type = excluded.content_type,
			size = excluded.size,
			content = excluded.content,
			extraction_method = excluded.extraction_method,
			is_readable = excluded.is_readable,
			updated_at = excluded.updated_at`,
		doc.ID, doc.Filename, doc.ContentType, doc.Size, doc.Content,
		string(doc.ExtractionMethod), doc.IsReadable, doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}

const selectColumns = `id, filename, content_type, size, content, extraction_method, is_readable, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*docstore.Document, error) {
	var (
		doc              docstore.Document
		method           string
		created, updated int64
	)
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.ContentType, &doc.Size, &doc.Content,
		&method, &doc.IsReadable, &created, &updated); err != nil {
		return nil, err
	}
	doc.ExtractionMethod = extraction.Method(method)
	doc.CreatedAt = time.Unix(0, created).UTC()
	doc.UpdatedAt = time.Unix(0, updated).UTC()
	return &doc, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, id string) (*docstore.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// List implements docstore.Store.
func (s *Store) List(ctx context.Context, opts docstore.ListOptions) ([]*docstore.Document, bool, error) {
	opts = opts.Normalize()

	cmp, dir := ">", "ASC"
	if opts.Order == docstore.OrderDesc {
		cmp, dir = "<", "DESC"
	}

	query := `SELECT ` + selectColumns + ` FROM documents`
	var args []any
	if opts.After != "" {
		query += ` WHERE (created_at, id) ` + cmp + ` (SELECT created_at, id FROM documents WHERE id = ?)`
		args = append(args, opts.After)
	}
	query += ` ORDER BY created_at ` + dir + `, id ` + dir + ` LIMIT ?`
	args = append(args, opts.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*docstore.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("list documents: %w", err)
	}

	hasMore := len(docs) > opts.Limit
	if hasMore {
		docs = docs[:opts.Limit]
	}
	return docs, hasMore, nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
