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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/poiesic/superior/ai"
	"github.com/poiesic/superior/ask"
	"github.com/poiesic/superior/ingestion"
	"github.com/poiesic/superior/server"
	"github.com/poiesic/superior/storage"
	"github.com/poiesic/superior/storage/postgres"
)

// DSNVar is the environment variable that carries the Postgres connection string.
const DSNVar = "PG_DSN"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// ErrUnknownDriver is returned for an unsupported store driver.
var ErrUnknownDriver = errors.New("unknown store driver")

// StoreConfig selects and configures the Document Store.
type StoreConfig struct {
	// Driver is "postgres" (default) or "badger".
	Driver string `yaml:"driver"`

	// DSN is the Postgres connection string. Required for the postgres driver.
	DSN string `yaml:"dsn"`

	// Path is the BadgerDB directory. Required for the badger driver.
	Path string `yaml:"path"`

	// Metric is the nearest-neighbor distance metric: cosine, l2 or inner_product.
	// It must match the metric the embedding model is trained for.
	Metric string `yaml:"metric"`

	// Dimensions is the width of the embedding column created by migrate.
	Dimensions int `yaml:"dimensions"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AskConfig tunes the ask pipeline.
type AskConfig struct {
	ContextLimit      int           `yaml:"context_limit"`
	EnrichmentTimeout time.Duration `yaml:"enrichment_timeout"`
	LenientEnrichment bool          `yaml:"lenient_enrichment"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	Pattern  string        `yaml:"pattern"`
	PoolSize int           `yaml:"pool_size"`
	Debounce time.Duration `yaml:"debounce"`
}

// Config is the process configuration. It is built once at startup and
// passed to New; nothing reads the environment after that.
type Config struct {
	AI     ai.Config    `yaml:"ai"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Ask    AskConfig    `yaml:"ask"`
	Ingest IngestConfig `yaml:"ingest"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
// Credentials are left empty.
func DefaultConfig() *Config {
	return &Config{
		AI: *ai.DefaultConfig(),
		Store: StoreConfig{
			Driver:     DriverPostgres,
			Path:       "superior.db",
			Metric:     string(storage.DefaultMetric),
			Dimensions: postgres.DefaultDimensions,
		},
		Server: ServerConfig{
			Host: server.DefaultHost,
			Port: server.DefaultPort,
		},
		Ask: AskConfig{
			ContextLimit: ask.DefaultContextLimit,
		},
		Ingest: IngestConfig{
			Pattern:  ingestion.DefaultPattern,
			Debounce: ingestion.DefaultDebounce,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. Keys absent from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the structure of the configuration. Missing credentials
// are not reported here; they surface as core.MissingConfigError when the
// component that needs them is first used.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverBadger:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}
	if _, err := storage.ParseMetric(c.Store.Metric); err != nil {
		return err
	}
	if c.Store.Dimensions <= 0 {
		return errors.New("config: store dimensions must be positive")
	}
	if c.Ask.ContextLimit <= 0 {
		return errors.New("config: ask context limit must be positive")
	}
	return nil
}
