package ask

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/poiesic/superior/ai"
	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/enrich"
	"github.com/poiesic/superior/storage"
	"golang.org/x/sync/errgroup"
)

// Pipeline answers questions using retrieved documents and live data.
// A Pipeline holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	repository        storage.DocumentRepository
	embedder          ai.Embedder
	chat              ai.ChatModel
	fetchers          []enrich.Fetcher
	contextLimit      int
	systemPrompt      string
	enrichmentTimeout time.Duration
	lenient           bool
	logger            *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithFetchers replaces the live-data fetchers. Their results are merged in
// the order given, later keys overwriting earlier ones.
// Default is enrich.Defaults().
func WithFetchers(fetchers ...enrich.Fetcher) Option {
	return func(p *Pipeline) error {
		p.fetchers = fetchers
		return nil
	}
}

// WithContextLimit sets the maximum number of characters of retrieved
// context sent to the chat model.
// Default is DefaultContextLimit.
func WithContextLimit(limit int) Option {
	return func(p *Pipeline) error {
		if limit < 1 {
			return ErrInvalidContextLimit
		}
		p.contextLimit = limit
		return nil
	}
}

// WithSystemPrompt replaces the system instruction.
// Default is DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(p *Pipeline) error {
		if prompt != "" {
			p.systemPrompt = prompt
		}
		return nil
	}
}

// WithEnrichmentTimeout bounds each fetcher. Zero means fetchers are
// bounded only by the request context.
func WithEnrichmentTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			d = 0
		}
		p.enrichmentTimeout = d
		return nil
	}
}

// WithLenientEnrichment makes fetcher failures non-fatal: the failing
// fetcher's data is left out of the response and the failure is logged.
func WithLenientEnrichment() Option {
	return func(p *Pipeline) error {
		p.lenient = true
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

// NewPipeline creates a new ask pipeline.
func NewPipeline(repository storage.DocumentRepository, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		repository:   repository,
		embedder:     provider.Embedder(),
		chat:         provider.ChatModel(),
		fetchers:     enrich.Defaults(),
		contextLimit: DefaultContextLimit,
		systemPrompt: DefaultSystemPrompt,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ask")

	return p, nil
}

// Ask answers a single request.
func (p *Pipeline) Ask(ctx context.Context, req *core.AskRequest) (*core.AskResponse, error) {
	return p.AskWithMonitor(ctx, req, nil)
}

// AskWithMonitor answers a single request, reporting each stage to monitor.
// Any failure aborts the request; no partial response is returned.
func (p *Pipeline) AskWithMonitor(ctx context.Context, req *core.AskRequest, monitor Monitor) (resp *core.AskResponse, err error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := core.ValidateAskRequest(req); err != nil {
		return nil, err
	}

	monitor.Start(req)
	defer func() { monitor.Finish(resp, err) }()

	started := time.Now()

	// 1. Embed the query as a batch of one
	vectors, err := p.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil {
		p.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", ai.ErrEmbeddingMismatch, len(vectors))
	}
	monitor.AfterEmbedding(vectors[0])

	// 2. Retrieve nearest documents; k=0 asks for none
	var matches []*core.Match
	if k := req.Limit(); k > 0 {
		matches, err = p.repository.QueryNearest(ctx, vectors[0], k)
		if err != nil {
			p.logger.Error("error querying for nearest documents", "err", err)
			return nil, fmt.Errorf("failed to retrieve documents: %w", err)
		}
	}
	monitor.AfterRetrieval(matches)

	// 3. Build the bounded context block
	block := Truncate(BuildContext(matches), p.contextLimit)
	monitor.AfterContext(block)

	// 4. Start live-data fetchers; they overlap the chat call
	enrichCtx, cancelEnrichment := context.WithCancel(ctx)
	defer cancelEnrichment()
	group, results := p.startEnrichment(enrichCtx, req.Address, monitor)

	// 5. Ask the chat model
	answer, err := p.chat.Complete(ctx, buildMessages(p.systemPrompt, req.Query, req.Address, block))
	if err != nil {
		cancelEnrichment()
		_ = group.Wait()
		p.logger.Error("error completing chat", "err", err)
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	monitor.AfterCompletion(answer)

	// 6. Join fetchers and merge their data in order
	if err := group.Wait(); err != nil {
		p.logger.Error("error fetching live data", "err", err)
		return nil, err
	}
	data := make(map[string]any)
	for _, r := range results {
		maps.Copy(data, r)
	}

	// 7. References
	resp = &core.AskResponse{
		Answer:     answer,
		References: References(matches),
		Data:       data,
	}

	p.logger.Debug("question answered",
		"k", req.Limit(),
		"documents", len(matches),
		"context_chars", len(block),
		"references", len(resp.References),
		"elapsed", time.Since(started))
	return resp, nil
}

// startEnrichment launches one goroutine per fetcher. results[i] holds the
// data of fetchers[i] once the group has been waited on.
func (p *Pipeline) startEnrichment(ctx context.Context, address string, monitor Monitor) (*errgroup.Group, []map[string]any) {
	group, gctx := errgroup.WithContext(ctx)
	results := make([]map[string]any, len(p.fetchers))

	for i, fetcher := range p.fetchers {
		group.Go(func() error {
			fctx := gctx
			if p.enrichmentTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, p.enrichmentTimeout)
				defer cancel()
			}

			name := fetcher.Name()
			monitor.EnrichmentStarted(name)
			data, err := fetcher.Fetch(fctx, address)
			monitor.EnrichmentFinished(name, data, err)

			if err != nil {
				if p.lenient {
					p.logger.Warn("live data unavailable", "fetcher", name, "err", err)
					return nil
				}
				return fmt.Errorf("%w: %s: %w", ErrEnrichmentFailed, name, err)
			}
			results[i] = data
			return nil
		})
	}

	return group, results
}
