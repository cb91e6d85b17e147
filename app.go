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

package superior

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/poiesic/superior/ai"
	"github.com/poiesic/superior/ai/openai"
	"github.com/poiesic/superior/ask"
	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/enrich"
	"github.com/poiesic/superior/ingestion"
	"github.com/poiesic/superior/server"
	"github.com/poiesic/superior/storage"
	"github.com/poiesic/superior/storage/badger"
	"github.com/poiesic/superior/storage/postgres"
)

// App wires configuration, the AI provider, the Document Store and the
// pipelines together.
//
// The provider and the store are created on first use. A missing credential
// therefore fails the operation that needs it, before any network call,
// while operations that need neither keep working.
type App struct {
	config   *Config
	fetchers []enrich.Fetcher

	mu         sync.Mutex
	provider   ai.AIProvider
	repository storage.DocumentRepository
	asker      *ask.Pipeline

	logger *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithProvider uses provider instead of building one from the configuration.
func WithProvider(provider ai.AIProvider) Option {
	return func(a *App) {
		a.provider = provider
	}
}

// WithRepository uses repository instead of opening the configured store.
func WithRepository(repository storage.DocumentRepository) Option {
	return func(a *App) {
		a.repository = repository
	}
}

// WithFetchers replaces the live-data fetchers used by Ask.
func WithFetchers(fetchers ...enrich.Fetcher) Option {
	return func(a *App) {
		a.fetchers = fetchers
	}
}

// New creates an App. Only the structure of config is checked here.
func New(config *Config, opts ...Option) (*App, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config:   config,
		fetchers: enrich.Defaults(),
		logger:   slog.Default().With("component", "app"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Provider returns the AI provider, creating it on first use.
func (a *App) Provider() (ai.AIProvider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.providerLocked()
}

func (a *App) providerLocked() (ai.AIProvider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	provider, err := openai.NewProvider(&a.config.AI)
	if err != nil {
		return nil, err
	}
	a.provider = provider
	return provider, nil
}

// Repository returns the Document Store, opening it on first use.
func (a *App) Repository(ctx context.Context) (storage.DocumentRepository, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.repositoryLocked(ctx)
}

func (a *App) repositoryLocked(ctx context.Context) (storage.DocumentRepository, error) {
	if a.repository != nil {
		return a.repository, nil
	}

	cfg := a.config.Store
	metric := storage.Metric(cfg.Metric)

	var (
		repo storage.DocumentRepository
		err  error
	)
	switch cfg.Driver {
	case DriverBadger:
		if cfg.Path == "" {
			return nil, errors.New("badger store path required")
		}
		repo, err = badger.Open(cfg.Path, badger.WithMetric(metric))
	default:
		if cfg.DSN == "" {
			return nil, core.MissingConfig(DSNVar)
		}
		repo, err = postgres.Open(ctx, cfg.DSN,
			postgres.WithMetric(metric),
			postgres.WithDimensions(cfg.Dimensions))
	}
	if err != nil {
		return nil, err
	}

	a.repository = repo
	return repo, nil
}

// resolve returns the provider and the store, checking the credential of
// the provider first.
func (a *App) resolve(ctx context.Context) (ai.AIProvider, storage.DocumentRepository, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	provider, err := a.providerLocked()
	if err != nil {
		return nil, nil, err
	}
	repo, err := a.repositoryLocked(ctx)
	if err != nil {
		return nil, nil, err
	}
	return provider, repo, nil
}

// Ask answers a question. It implements server.Asker.
func (a *App) Ask(ctx context.Context, req *core.AskRequest) (*core.AskResponse, error) {
	pipeline, err := a.askPipeline(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Ask(ctx, req)
}

func (a *App) askPipeline(ctx context.Context) (*ask.Pipeline, error) {
	provider, repo, err := a.resolve(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.asker != nil {
		return a.asker, nil
	}

	opts := []ask.Option{
		ask.WithFetchers(a.fetchers...),
		ask.WithContextLimit(a.config.Ask.ContextLimit),
		ask.WithEnrichmentTimeout(a.config.Ask.EnrichmentTimeout),
	}
	if a.config.Ask.LenientEnrichment {
		opts = append(opts, ask.WithLenientEnrichment())
	}
	pipeline, err := ask.NewPipeline(repo, provider, opts...)
	if err != nil {
		return nil, err
	}
	a.asker = pipeline
	return pipeline, nil
}

func (a *App) ingestionPipeline(ctx context.Context) (*ingestion.Pipeline, error) {
	provider, repo, err := a.resolve(ctx)
	if err != nil {
		return nil, err
	}

	opts := []ingestion.Option{
		ingestion.WithPattern(a.config.Ingest.Pattern),
		ingestion.WithDebounce(a.config.Ingest.Debounce),
	}
	if a.config.Ingest.PoolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(a.config.Ingest.PoolSize))
	}
	return ingestion.NewPipeline(repo, provider.Embedder(), opts...)
}

// Ingest ingests the files under root, labeling them with source.
func (a *App) Ingest(ctx context.Context, root, source string) (*ingestion.Report, error) {
	pipeline, err := a.ingestionPipeline(ctx)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()
	return pipeline.Ingest(ctx, root, source)
}

// Watch ingests files under root as they change, until ctx is cancelled.
func (a *App) Watch(ctx context.Context, root, source string) error {
	pipeline, err := a.ingestionPipeline(ctx)
	if err != nil {
		return err
	}
	defer pipeline.Release()
	return pipeline.Watch(ctx, root, source)
}

// Migrate prepares the store's schema. Stores without a schema are left as is.
func (a *App) Migrate(ctx context.Context) error {
	repo, err := a.Repository(ctx)
	if err != nil {
		return err
	}

	migrator, ok := repo.(interface {
		EnsureSchema(ctx context.Context) error
	})
	if !ok {
		a.logger.Info("store has no schema to migrate", "driver", a.config.Store.Driver)
		return nil
	}
	return migrator.EnsureSchema(ctx)
}

// NewServer creates the HTTP server for this App.
func (a *App) NewServer() (*server.Server, error) {
	return server.New(a,
		server.WithAddress(a.config.Server.Host, a.config.Server.Port),
		server.WithAllowedOrigins(a.config.Server.AllowedOrigins...))
}

// Close releases the provider and the store.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if a.repository != nil {
		if err := a.repository.Close(); err != nil {
			a.logger.Error("error closing document store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
