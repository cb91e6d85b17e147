// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/storage"
)

// DefaultDimensions matches text-embedding-3-large.
const DefaultDimensions = 3072

// ErrInvalidDimensions is returned for a non-positive embedding column width.
var ErrInvalidDimensions = errors.New("embedding dimensions must be positive")

const (
	insertDocumentSQL = `INSERT INTO documents (id, address, title, content, source, embedding)
VALUES ($1, $2, $3, $4, $5, $6)`

	// %[1]s is the metric operator; it comes from a validated storage.Metric.
	queryNearestSQL = `SELECT id::text, address, title, content, source, embedding,
       (embedding %[1]s $1)::float8 AS distance
FROM documents
ORDER BY embedding %[1]s $1
LIMIT $2`

	countDocumentsSQL = `SELECT count(*) FROM documents`
)

// DocumentRepository implements storage.DocumentRepository on PostgreSQL
// with the pgvector extension.
// Every operation acquires a pooled connection for its own duration and
// releases it on every exit path.
type DocumentRepository struct {
	pool       *pgxpool.Pool
	metric     storage.Metric
	dimensions int
	closed     atomic.Bool
	logger     *slog.Logger
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// Option configures a DocumentRepository.
type Option func(*DocumentRepository) error

// WithMetric sets the distance metric used by QueryNearest.
// Default is storage.DefaultMetric.
func WithMetric(metric storage.Metric) Option {
	return func(r *DocumentRepository) error {
		m, err := storage.ParseMetric(string(metric))
		if err != nil {
			return err
		}
		r.metric = m
		return nil
	}
}

// WithDimensions sets the width of the embedding column created by EnsureSchema.
// Default is DefaultDimensions.
func WithDimensions(n int) Option {
	return func(r *DocumentRepository) error {
		if n <= 0 {
			return ErrInvalidDimensions
		}
		r.dimensions = n
		return nil
	}
}

// Open creates a connection pool for dsn. Connections are established lazily,
// so a malformed DSN fails here while an unreachable server fails on first use.
func Open(ctx context.Context, dsn string, opts ...Option) (*DocumentRepository, error) {
	if dsn == "" {
		return nil, core.MissingConfig("PG_DSN")
	}

	r := &DocumentRepository{
		metric:     storage.DefaultMetric,
		dimensions: DefaultDimensions,
		logger:     slog.Default().With("component", "postgres-documents"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	r.pool = pool

	r.logger.Info("document store opened", "metric", r.metric, "dimensions", r.dimensions)
	return r, nil
}

// Metric returns the distance metric used by QueryNearest.
func (r *DocumentRepository) Metric() storage.Metric {
	return r.metric
}

// Close closes the connection pool.
func (r *DocumentRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.pool.Close()
	return nil
}

func (r *DocumentRepository) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	if r.closed.Load() {
		return storage.ErrStorageClosed
	}
	return r.pool.AcquireFunc(ctx, fn)
}

// EnsureSchema creates the vector extension and the documents table when
// they do not exist yet.
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
    id        uuid PRIMARY KEY,
    address   text,
    title     text NOT NULL,
    content   text NOT NULL,
    source    text NOT NULL,
    embedding vector(%d) NOT NULL
)`, r.dimensions),
	}

	return r.withConn(ctx, func(conn *pgxpool.Conn) error {
		for _, stmt := range stmts {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		r.logger.Info("schema ready", "dimensions", r.dimensions)
		return nil
	})
}

// InsertDocuments appends one row per document. Each row is its own
// statement; there is no enclosing transaction.
func (r *DocumentRepository) InsertDocuments(ctx context.Context, docs ...*core.Document) (int, error) {
	inserted := 0
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		for _, doc := range docs {
			if err := core.ValidateDocument(doc); err != nil {
				return err
			}

			var address any
			if doc.Address != "" {
				address = doc.Address
			}

			_, err := conn.Exec(ctx, insertDocumentSQL,
				doc.ID.String(), address, doc.Title, doc.Content, doc.Source,
				pgvector.NewVector(doc.Embedding))
			if err != nil {
				return fmt.Errorf("failed to insert document %s: %w", doc.Title, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return inserted, err
	}

	r.logger.Debug("documents inserted", "count", inserted)
	return inserted, nil
}

// QueryNearest returns up to k documents ordered by ascending distance.
func (r *DocumentRepository) QueryNearest(ctx context.Context, vector []float32, k int) ([]*core.Match, error) {
	if k < 1 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	query := fmt.Sprintf(queryNearestSQL, r.metric.Operator())
	var matches []*core.Match
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, pgvector.NewVector(vector), k)
		if err != nil {
			return fmt.Errorf("failed to query nearest documents: %w", err)
		}
		matches, err = pgx.CollectRows(rows, scanMatch)
		if err != nil {
			return fmt.Errorf("failed to read nearest documents: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func scanMatch(row pgx.CollectableRow) (*core.Match, error) {
	var (
		id        string
		address   *string
		embedding pgvector.Vector
		distance  float64
	)
	doc := &core.Document{}
	if err := row.Scan(&id, &address, &doc.Title, &doc.Content, &doc.Source, &embedding, &distance); err != nil {
		return nil, err
	}

	parsed, err := core.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id %q: %w", id, err)
	}
	doc.ID = parsed
	if address != nil {
		doc.Address = *address
	}
	doc.Embedding = embedding.Slice()

	return &core.Match{Document: doc, Distance: float32(distance)}, nil
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	var count int64
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, countDocumentsSQL).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}
