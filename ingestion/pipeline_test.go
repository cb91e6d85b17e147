package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/superior/ai"
	"github.com/poiesic/superior/ai/mock"
	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/storage"
	"github.com/poiesic/superior/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepository wraps a repository and counts calls to it.
type countingRepository struct {
	storage.DocumentRepository
	inserts atomic.Int32
	failAt  int // fail the insert of the document at this index (1-based); 0 disables
}

func (r *countingRepository) InsertDocuments(ctx context.Context, docs ...*core.Document) (int, error) {
	r.inserts.Add(1)
	if r.failAt > 0 && r.failAt <= len(docs) {
		n, err := r.DocumentRepository.InsertDocuments(ctx, docs[:r.failAt-1]...)
		if err != nil {
			return n, err
		}
		return n, errors.New("insert failed")
	}
	return r.DocumentRepository.InsertDocuments(ctx, docs...)
}

func setupPipeline(t *testing.T, opts ...Option) (*Pipeline, *countingRepository, *mock.MockEmbedder) {
	t.Helper()
	store, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	repo := &countingRepository{DocumentRepository: store}
	embedder := mock.NewMockEmbedder()

	pipeline, err := NewPipeline(repo, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, repo, embedder
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewPipeline(t *testing.T) {
	store, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer store.Close()
	embedder := mock.NewMockEmbedder()

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewPipeline(nil, embedder)
		assert.ErrorIs(t, err, ErrRepositoryRequired)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(store, nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := NewPipeline(store, embedder, WithPattern("[unclosed"))
		assert.ErrorIs(t, err, ErrInvalidPattern)
	})

	t.Run("options", func(t *testing.T) {
		p, err := NewPipeline(store, embedder,
			WithPoolSize(3), WithPattern("*.md"), WithDebounce(time.Second), WithLogger(nil))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 3, p.readPool.Cap())
		assert.Equal(t, "*.md", p.pattern)
		assert.Equal(t, time.Second, p.debounce)
	})
}

func TestIngest_EmptyTree(t *testing.T) {
	pipeline, repo, embedder := setupPipeline(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), "not text")

	report, err := pipeline.Ingest(context.Background(), root, "internal")
	require.NoError(t, err)

	assert.True(t, report.Empty())
	assert.Zero(t, report.Inserted)
	assert.Zero(t, embedder.CallCount())
	assert.Zero(t, repo.inserts.Load())
}

func TestIngest_Tree(t *testing.T) {
	ctx := context.Background()
	pipeline, repo, embedder := setupPipeline(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "nested", "deeper", "b.txt"), "bravo")
	writeFile(t, filepath.Join(root, "nested", "c.md"), "ignored")

	report, err := pipeline.Ingest(ctx, root, "handbook")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "nested", "deeper", "b.txt"),
	}, report.Files)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, "handbook", report.Source)

	// one batch with every file's content
	assert.Equal(t, 1, embedder.CallCount())
	assert.Equal(t, []string{"alpha", "bravo"}, embedder.Texts())
	assert.Equal(t, int32(1), repo.inserts.Load())

	matches, err := repo.QueryNearest(ctx, mock.DeterministicVector("bravo", mock.DefaultDimensions), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	doc := matches[0].Document
	assert.Equal(t, "b.txt", doc.Title)
	assert.Equal(t, "bravo", doc.Content)
	assert.Equal(t, "handbook", doc.Source)
	assert.Empty(t, doc.Address)
}

func TestIngest_DefaultSource(t *testing.T) {
	pipeline, _, _ := setupPipeline(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")

	report, err := pipeline.Ingest(context.Background(), root, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSource, report.Source)
}

func TestIngest_Twice(t *testing.T) {
	ctx := context.Background()
	pipeline, repo, _ := setupPipeline(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "b.txt"), "bravo")

	for i := 0; i < 2; i++ {
		_, err := pipeline.Ingest(ctx, root, "internal")
		require.NoError(t, err)
	}

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestIngest_DuplicateContentIsKept(t *testing.T) {
	ctx := context.Background()
	pipeline, repo, _ := setupPipeline(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "same")
	writeFile(t, filepath.Join(root, "b.txt"), "same")

	report, err := pipeline.Ingest(ctx, root, "internal")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngest_EmptyFile(t *testing.T) {
	pipeline, _, embedder := setupPipeline(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty.txt"), "")

	report, err := pipeline.Ingest(context.Background(), root, "internal")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, []string{""}, embedder.Texts())
}

func TestIngest_EmbedFailureLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	pipeline, repo, embedder := setupPipeline(t)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service unavailable")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")

	_, err := pipeline.Ingest(ctx, root, "internal")
	require.Error(t, err)

	assert.Zero(t, repo.inserts.Load())
	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_EmbeddingCountMismatch(t *testing.T) {
	pipeline, repo, embedder := setupPipeline(t)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "b.txt"), "bravo")

	_, err := pipeline.Ingest(context.Background(), root, "internal")
	assert.ErrorIs(t, err, ai.ErrEmbeddingMismatch)
	assert.Zero(t, repo.inserts.Load())
}

func TestIngest_InsertFailureKeepsEarlierRows(t *testing.T) {
	ctx := context.Background()
	pipeline, repo, _ := setupPipeline(t)
	repo.failAt = 3
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		writeFile(t, filepath.Join(root, name), "content "+name)
	}

	_, err := pipeline.Ingest(ctx, root, "internal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 of 4")

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngest_ReadFailure(t *testing.T) {
	pipeline, repo, embedder := setupPipeline(t)
	root := t.TempDir()

	_, err := pipeline.IngestFiles(context.Background(), root, "internal",
		[]string{filepath.Join(root, "missing.txt")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, embedder.CallCount())
	assert.Zero(t, repo.inserts.Load())
}

func TestIngest_BadRoot(t *testing.T) {
	pipeline, _, _ := setupPipeline(t)

	t.Run("empty", func(t *testing.T) {
		_, err := pipeline.Ingest(context.Background(), "", "internal")
		assert.ErrorIs(t, err, ErrRootRequired)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := pipeline.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope"), "internal")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a.txt")
		writeFile(t, path, "alpha")
		_, err := pipeline.Ingest(context.Background(), path, "internal")
		assert.ErrorIs(t, err, ErrNotDirectory)
	})
}

func TestIngest_CustomPattern(t *testing.T) {
	pipeline, _, embedder := setupPipeline(t, WithPattern("**/*.md"))
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "sub", "b.md"), "bravo")

	report, err := pipeline.Ingest(context.Background(), root, "internal")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "sub", "b.md")}, report.Files)
	assert.Equal(t, []string{"bravo"}, embedder.Texts())
}
