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

package ai

import (
	"errors"
	"strings"
	"time"

	"github.com/poiesic/superior/core"
)

// APIKeyVar is the environment variable that carries the service credential.
const APIKeyVar = "OPENAI_API_KEY"

// Config holds configuration for AI service providers.
type Config struct {
	// BaseURL is the base URL of an OpenAI-compatible API.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer credential for the API. Required.
	APIKey string `yaml:"api_key"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Documents and queries must be embedded with the same model.
	EmbeddingModel string `yaml:"embedding_model"`

	// ChatModel is the model identifier used to generate answers.
	ChatModel string `yaml:"chat_model"`

	// Temperature is the sampling temperature for answers.
	// Default: 0.2
	Temperature float64 `yaml:"temperature"`

	// EmbeddingTimeout bounds a single embedding call.
	// Default: 60s
	EmbeddingTimeout time.Duration `yaml:"embedding_timeout"`

	// ChatTimeout bounds a single chat call.
	// Default: 120s
	ChatTimeout time.Duration `yaml:"chat_timeout"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithAPIKey sets the API credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithTemperature sets the sampling temperature for answers.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithTimeouts sets the per-call timeouts for embedding and chat requests.
func WithTimeouts(embedding, chat time.Duration) ConfigOption {
	return func(c *Config) {
		c.EmbeddingTimeout = embedding
		c.ChatTimeout = chat
	}
}

// DefaultConfig returns a Config targeting the OpenAI API.
// The API key is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://api.openai.com/v1",
		EmbeddingModel:   "text-embedding-3-large",
		ChatModel:        "gpt-4.1-mini",
		Temperature:      0.2,
		EmbeddingTimeout: 60 * time.Second,
		ChatTimeout:      120 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the base URL if missing, which is required
// by OpenAI-compatible APIs.
func (c *Config) Normalize() {
	if c.BaseURL != "" && !strings.HasSuffix(c.BaseURL, "/v1") {
		c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
		c.BaseURL = c.BaseURL + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// A missing API key is reported as a *core.MissingConfigError.
func (c *Config) Validate() error {
	c.Normalize()

	if c.APIKey == "" {
		return core.MissingConfig(APIKeyVar)
	}
	if c.BaseURL == "" {
		return errors.New("ai config: BaseURL is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.EmbeddingTimeout <= 0 || c.ChatTimeout <= 0 {
		return errors.New("ai config: timeouts must be positive")
	}
	return nil
}
