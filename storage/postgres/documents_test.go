package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSNVar = "SUPERIOR_TEST_PG_DSN"

func TestOpen_Options(t *testing.T) {
	ctx := context.Background()

	t.Run("missing dsn", func(t *testing.T) {
		_, err := Open(ctx, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrMissingConfig)
		assert.Equal(t, "Missing PG_DSN", err.Error())
	})

	t.Run("malformed dsn", func(t *testing.T) {
		_, err := Open(ctx, "postgres://user@localhost:notaport/db")
		assert.Error(t, err)
	})

	t.Run("unknown metric", func(t *testing.T) {
		_, err := Open(ctx, "postgres://user@localhost/db", WithMetric("manhattan"))
		assert.ErrorIs(t, err, storage.ErrUnknownMetric)
	})

	t.Run("invalid dimensions", func(t *testing.T) {
		_, err := Open(ctx, "postgres://user@localhost/db", WithDimensions(0))
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	})

	t.Run("lazy connect", func(t *testing.T) {
		repo, err := Open(ctx, "postgres://user@127.0.0.1:1/db",
			WithMetric(storage.MetricInnerProduct), WithDimensions(4))
		require.NoError(t, err)
		defer repo.Close()

		assert.Equal(t, storage.MetricInnerProduct, repo.Metric())
		assert.Equal(t, 4, repo.dimensions)
	})

	t.Run("closed repository", func(t *testing.T) {
		repo, err := Open(ctx, "postgres://user@127.0.0.1:1/db")
		require.NoError(t, err)
		require.NoError(t, repo.Close())
		require.NoError(t, repo.Close())

		_, err = repo.CountDocuments(ctx)
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
		_, err = repo.QueryNearest(ctx, []float32{1}, 1)
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
	})

	t.Run("invalid k", func(t *testing.T) {
		repo, err := Open(ctx, "postgres://user@127.0.0.1:1/db")
		require.NoError(t, err)
		defer repo.Close()

		_, err = repo.QueryNearest(ctx, []float32{1}, 0)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}

// openTestRepository connects to the database named by SUPERIOR_TEST_PG_DSN,
// creates the schema and clears the documents table.
func openTestRepository(t *testing.T, opts ...Option) *DocumentRepository {
	t.Helper()
	dsn := os.Getenv(testDSNVar)
	if dsn == "" {
		t.Skipf("%s not set", testDSNVar)
	}

	ctx := context.Background()
	repo, err := Open(ctx, dsn, append([]Option{WithDimensions(3)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	_, err = repo.pool.Exec(ctx, `DROP TABLE IF EXISTS documents`)
	require.NoError(t, err)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func newDoc(title string, vector ...float32) *core.Document {
	return &core.Document{
		ID:        core.NewDocumentID(),
		Title:     title,
		Content:   "content of " + title,
		Source:    "internal",
		Embedding: vector,
	}
}

func TestDocumentRepository_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		repo := openTestRepository(t)
		matches, err := repo.QueryNearest(ctx, []float32{1, 0, 0}, 8)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("insert and query", func(t *testing.T) {
		repo := openTestRepository(t)
		withAddress := newDoc("lease.txt", 1, 0, 0)
		withAddress.Address = "1 Main St"

		n, err := repo.InsertDocuments(ctx,
			newDoc("far.txt", 0, 0, 1),
			withAddress,
			newDoc("mid.txt", 0.7, 0.7, 0),
		)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		matches, err := repo.QueryNearest(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "lease.txt", matches[0].Document.Title)
		assert.Equal(t, "1 Main St", matches[0].Document.Address)
		assert.Equal(t, withAddress.ID, matches[0].Document.ID)
		assert.Equal(t, []float32{1, 0, 0}, matches[0].Document.Embedding)
		assert.Equal(t, "mid.txt", matches[1].Document.Title)
		assert.Empty(t, matches[1].Document.Address)
		assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		repo := openTestRepository(t)
		for i := 0; i < 2; i++ {
			_, err := repo.InsertDocuments(ctx, newDoc("lease.txt", 1, 0, 0))
			require.NoError(t, err)
		}
		count, err := repo.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("l2 metric", func(t *testing.T) {
		repo := openTestRepository(t, WithMetric(storage.MetricL2))
		_, err := repo.InsertDocuments(ctx, newDoc("long.txt", 10, 0, 0), newDoc("short.txt", 1, 0, 0))
		require.NoError(t, err)

		matches, err := repo.QueryNearest(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "short.txt", matches[0].Document.Title)
	})
}
