package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/superior/ai"
	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/storage"
)

const (
	// DefaultPattern matches plain-text files at any depth.
	DefaultPattern = "**/*.txt"

	// DefaultSource is the provenance label used when none is given.
	DefaultSource = "internal"

	// DefaultDebounce is how long Watch waits for a burst of events to settle.
	DefaultDebounce = 500 * time.Millisecond
)

// Report summarizes a completed ingestion run.
type Report struct {
	Root     string
	Source   string
	Files    []string // Paths read, in ingestion order
	Inserted int      // Documents written to the store
}

// Empty reports whether the run found nothing to ingest.
func (r *Report) Empty() bool {
	return len(r.Files) == 0
}

// Pipeline orchestrates discovery, reading, embedding and storage of files.
type Pipeline struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	readPool   *ants.Pool
	pattern    string
	debounce   time.Duration
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent file reads.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.readPool != nil {
			p.readPool.Release()
		}
		p.readPool = pool
		return nil
	}
}

// WithPattern sets the doublestar pattern, relative to the root, that
// selects files for ingestion. Default is DefaultPattern.
func WithPattern(pattern string) Option {
	return func(p *Pipeline) error {
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		p.pattern = pattern
		return nil
	}
}

// WithDebounce sets how long Watch waits after the last event before ingesting.
// Default is DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d <= 0 {
			d = DefaultDebounce
		}
		p.debounce = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	readPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		embedder:   embedder,
		readPool:   readPool,
		pattern:    DefaultPattern,
		debounce:   DefaultDebounce,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Ingest ingests every file under root matching the pipeline's pattern.
// Finding no files is not an error: the returned report is empty and neither
// the embedder nor the repository is called.
func (p *Pipeline) Ingest(ctx context.Context, root, source string) (*Report, error) {
	files, err := p.Discover(root)
	if err != nil {
		return nil, err
	}
	return p.IngestFiles(ctx, root, source, files)
}

// Discover returns the sorted paths of the files under root that match the
// pipeline's pattern.
func (p *Pipeline) Discover(root string) ([]string, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	matches, err := doublestar.Glob(os.DirFS(root), p.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}
	slices.Sort(matches)

	files := make([]string, len(matches))
	for i, match := range matches {
		files[i] = filepath.Join(root, filepath.FromSlash(match))
	}
	return files, nil
}

// IngestFiles reads, embeds and stores the given files as documents
// labeled with source. Titles are the files' base names.
func (p *Pipeline) IngestFiles(ctx context.Context, root, source string, files []string) (*Report, error) {
	if source == "" {
		source = DefaultSource
	}
	report := &Report{Root: root, Source: source, Files: files}
	if len(files) == 0 {
		p.logger.Info("nothing to ingest", "root", root)
		return report, nil
	}

	contents, err := p.readAll(ctx, files)
	if err != nil {
		return nil, err
	}
	p.warnDuplicates(files, contents)

	vectors, err := p.embedder.EmbedTexts(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d files: %w", len(files), err)
	}
	if len(vectors) != len(contents) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", ai.ErrEmbeddingMismatch, len(contents), len(vectors))
	}

	docs := make([]*core.Document, len(files))
	for i, path := range files {
		docs[i] = &core.Document{
			ID:        core.NewDocumentID(),
			Title:     filepath.Base(path),
			Content:   contents[i],
			Source:    source,
			Embedding: vectors[i],
		}
	}

	inserted, err := p.repository.InsertDocuments(ctx, docs...)
	report.Inserted = inserted
	if err != nil {
		return nil, fmt.Errorf("ingestion aborted after %d of %d documents: %w", inserted, len(docs), err)
	}

	p.logger.Info("ingestion complete", "root", root, "source", source, "documents", inserted)
	return report, nil
}

// readAll reads files concurrently on the read pool. Results keep the
// order of files.
func (p *Pipeline) readAll(ctx context.Context, files []string) ([]string, error) {
	contents := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		submitErr := p.readPool.Submit(func() {
			defer wg.Done()
			data, err := os.ReadFile(path)
			if err != nil {
				errs[i] = fmt.Errorf("failed to read %s: %w", path, err)
				return
			}
			contents[i] = string(data)
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to schedule read of %s: %w", path, submitErr)
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return contents, nil
}

// warnDuplicates logs files whose content is identical to an earlier file.
// Duplicates are still ingested.
func (p *Pipeline) warnDuplicates(files, contents []string) {
	seen := make(map[string]string, len(files))
	for i, content := range contents {
		digest := core.ContentDigest(content)
		if first, ok := seen[digest]; ok {
			p.logger.Warn("duplicate content", "path", files[i], "same_as", first)
			continue
		}
		seen[digest] = files[i]
	}
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.readPool != nil {
		p.readPool.Release()
	}
}
