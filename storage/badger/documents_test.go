package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(title string, vector ...float32) *core.Document {
	return &core.Document{
		ID:        core.NewDocumentID(),
		Title:     title,
		Content:   "content of " + title,
		Source:    "internal",
		Embedding: vector,
	}
}

func newRepo(t *testing.T, opts ...Option) *DocumentRepository {
	repo, err := NewMemoryRepository(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewMemoryRepository(t *testing.T) {
	t.Run("default metric", func(t *testing.T) {
		repo := newRepo(t)
		assert.Equal(t, storage.MetricCosine, repo.Metric())
	})

	t.Run("custom metric", func(t *testing.T) {
		repo := newRepo(t, WithMetric(storage.MetricL2))
		assert.Equal(t, storage.MetricL2, repo.Metric())
	})

	t.Run("unknown metric", func(t *testing.T) {
		_, err := NewMemoryRepository(WithMetric("hamming"))
		assert.ErrorIs(t, err, storage.ErrUnknownMetric)
	})
}

func TestOpen_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := Open(dir)
	require.NoError(t, err)
	_, err = repo.InsertDocuments(ctx, newDoc("a.txt", 1, 0))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = Open(dir)
	require.NoError(t, err)
	defer repo.Close()

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// the sequence must continue past existing rows
	_, err = repo.InsertDocuments(ctx, newDoc("b.txt", 0, 1))
	require.NoError(t, err)
	count, err = repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("appends rows", func(t *testing.T) {
		repo := newRepo(t)
		n, err := repo.InsertDocuments(ctx, newDoc("a.txt", 1, 0), newDoc("b.txt", 0, 1))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		count, err := repo.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("same content twice creates two rows", func(t *testing.T) {
		repo := newRepo(t)
		doc := newDoc("lease.txt", 1, 0)
		twin := *doc
		twin.ID = core.NewDocumentID()

		_, err := repo.InsertDocuments(ctx, doc)
		require.NoError(t, err)
		_, err = repo.InsertDocuments(ctx, &twin)
		require.NoError(t, err)

		count, err := repo.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("invalid document stops the run and keeps earlier rows", func(t *testing.T) {
		repo := newRepo(t)
		bad := newDoc("bad.txt")
		n, err := repo.InsertDocuments(ctx, newDoc("a.txt", 1, 0), bad, newDoc("c.txt", 0, 1))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
		assert.Equal(t, 1, n)

		count, err := repo.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := newRepo(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		n, err := repo.InsertDocuments(cctx, newDoc("a.txt", 1, 0))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, n)
	})
}

func TestQueryNearest(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		repo := newRepo(t)
		matches, err := repo.QueryNearest(ctx, []float32{1, 0, 0}, 8)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("ordered by ascending distance", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.InsertDocuments(ctx,
			newDoc("far.txt", 0, 0, 1),
			newDoc("near.txt", 1, 0, 0),
			newDoc("mid.txt", 0.7, 0.7, 0),
		)
		require.NoError(t, err)

		matches, err := repo.QueryNearest(ctx, []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)

		assert.Equal(t, "near.txt", matches[0].Document.Title)
		assert.Equal(t, "mid.txt", matches[1].Document.Title)
		assert.Equal(t, "far.txt", matches[2].Document.Title)
		for i := 0; i < len(matches)-1; i++ {
			assert.LessOrEqual(t, matches[i].Distance, matches[i+1].Distance)
		}
		assert.InDelta(t, 0, matches[0].Distance, 1e-6)
	})

	t.Run("at most k", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 10; i++ {
			_, err := repo.InsertDocuments(ctx, newDoc(fmt.Sprintf("%d.txt", i), float32(i), 1))
			require.NoError(t, err)
		}

		matches, err := repo.QueryNearest(ctx, []float32{1, 1}, 4)
		require.NoError(t, err)
		assert.Len(t, matches, 4)
	})

	t.Run("k larger than store returns every row", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.InsertDocuments(ctx, newDoc("a.txt", 1, 0), newDoc("b.txt", 0, 1))
		require.NoError(t, err)

		matches, err := repo.QueryNearest(ctx, []float32{1, 0}, 8)
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.InsertDocuments(ctx,
			newDoc("first.txt", 1, 0),
			newDoc("second.txt", 1, 0),
			newDoc("third.txt", 1, 0),
		)
		require.NoError(t, err)

		matches, err := repo.QueryNearest(ctx, []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "first.txt", matches[0].Document.Title)
		assert.Equal(t, "second.txt", matches[1].Document.Title)
		assert.Equal(t, "third.txt", matches[2].Document.Title)
	})

	t.Run("results are stored documents", func(t *testing.T) {
		repo := newRepo(t)
		doc := newDoc("lease.txt", 0.3, 0.4)
		doc.Address = "1 Main St"
		_, err := repo.InsertDocuments(ctx, doc)
		require.NoError(t, err)

		matches, err := repo.QueryNearest(ctx, []float32{0.3, 0.4}, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, doc, matches[0].Document)
	})

	t.Run("l2 metric", func(t *testing.T) {
		repo := newRepo(t, WithMetric(storage.MetricL2))
		_, err := repo.InsertDocuments(ctx,
			newDoc("long.txt", 10, 0),
			newDoc("short.txt", 1, 0),
		)
		require.NoError(t, err)

		// cosine would tie these; euclidean prefers the closer point
		matches, err := repo.QueryNearest(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, "short.txt", matches[0].Document.Title)
		assert.InDelta(t, 9, matches[1].Distance, 1e-6)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.InsertDocuments(ctx, newDoc("a.txt", 1, 0, 0))
		require.NoError(t, err)

		_, err = repo.QueryNearest(ctx, []float32{1, 0}, 1)
		assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	})

	t.Run("invalid k", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.QueryNearest(ctx, []float32{1, 0}, 0)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})

	t.Run("closed store", func(t *testing.T) {
		repo, err := NewMemoryRepository()
		require.NoError(t, err)
		require.NoError(t, repo.Close())

		_, err = repo.QueryNearest(ctx, []float32{1, 0}, 1)
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
	})
}
