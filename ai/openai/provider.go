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

package openai

import (
	"log/slog"

	"github.com/poiesic/superior/ai"
)

// Provider pairs the two clients an ask needs: the embedder that turns the
// question and ingested documents into vectors, and the chat model that
// writes the answer from the retrieved context. Both share one ai.Config,
// so they talk to the same endpoint with the same key.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	chat     *ChatModel
	logger   *slog.Logger
}

// NewProvider builds both clients from config.
//
// Validation runs first: without OPENAI_API_KEY the call returns a
// *core.MissingConfigError and no client is constructed, so no request can
// reach the service. The result is an ai.AIProvider so callers and tests can
// swap in ai/mock.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	chat, err := newChatModel(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready",
		"embedding_model", config.EmbeddingModel,
		"chat_model", config.ChatModel)

	return &Provider{
		config:   config,
		embedder: embedder,
		chat:     chat,
		logger:   logger,
	}, nil
}

// Embedder returns the client used for ingestion and query embeddings.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// ChatModel returns the client that generates answers.
func (p *Provider) ChatModel() ai.ChatModel {
	return p.chat
}

// Close is a no-op; the HTTP clients hold no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
