package badger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
// Nearest-neighbor queries scan every row and compute the configured metric
// in process.
type DocumentRepository struct {
	backend     *Backend
	ownsBackend bool
	seq         *badger.Sequence
	closed      atomic.Bool
	metric      storage.Metric
	logger      *slog.Logger
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

// NewDocumentRepository creates a repository on an open backend.
// The caller keeps ownership of the backend and must close it after the repository.
func NewDocumentRepository(backend *Backend, opts ...Option) (*DocumentRepository, error) {
	seq, err := backend.GetSequence(documentSeq)
	if err != nil {
		return nil, err
	}

	r := &DocumentRepository{
		backend: backend,
		seq:     seq,
		metric:  storage.DefaultMetric,
		logger:  slog.Default().With("component", "badger-documents"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			seq.Release()
			return nil, err
		}
	}

	r.logger.Info("document store opened", "metric", r.metric)
	return r, nil
}

// Open opens (or creates) a BadgerDB document store at path.
// The returned repository owns the backend and closes it on Close.
func Open(path string, opts ...Option) (*DocumentRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r, err := NewDocumentRepository(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	r.ownsBackend = true
	return r, nil
}

// Metric returns the distance metric used by QueryNearest.
func (r *DocumentRepository) Metric() storage.Metric {
	return r.metric
}

// Close releases the sequence and, if owned, the backend.
func (r *DocumentRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if err := r.seq.Release(); err != nil {
		return err
	}
	if r.ownsBackend {
		return r.backend.Close()
	}
	return nil
}

// InsertDocuments appends each document in its own transaction.
func (r *DocumentRepository) InsertDocuments(ctx context.Context, docs ...*core.Document) (int, error) {
	if r.closed.Load() || r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := core.ValidateDocument(doc); err != nil {
			return i, err
		}

		seq, err := r.nextSeq()
		if err != nil {
			return i, err
		}

		err = r.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set(makeDocumentKey(seq), storage.MarshalDocument(doc)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != nil {
			r.logger.Error("failed to insert document", "title", doc.Title, "err", err)
			return i, err
		}
	}

	return len(docs), nil
}

// nextSeq returns the next non-zero insertion sequence.
func (r *DocumentRepository) nextSeq() (uint64, error) {
	next, err := r.seq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		return r.seq.Next()
	}
	return next, nil
}

// QueryNearest scans all documents and returns the k closest to vector.
// Ties keep insertion order.
func (r *DocumentRepository) QueryNearest(ctx context.Context, vector []float32, k int) ([]*core.Match, error) {
	if k < 1 || len(vector) == 0 {
		return nil, fmt.Errorf("%w: k=%d, dimensions=%d", storage.ErrInvalidQuery, k, len(vector))
	}
	if r.closed.Load() || r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var matches []*core.Match

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}

			if len(doc.Embedding) != len(vector) {
				return fmt.Errorf("%w: query has %d dimensions, document %s has %d",
					storage.ErrDimensionMismatch, len(vector), doc.ID, len(doc.Embedding))
			}

			matches = append(matches, &core.Match{
				Document: doc,
				Distance: r.metric.Distance(vector, doc.Embedding),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(matches, func(a, b *core.Match) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}

// CountDocuments counts document rows without reading their values.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	if r.closed.Load() || r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}
