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

// Package ai provides abstractions for the AI services used by superior.
//
// The package defines interfaces for the two external model services the
// answer pipeline depends on, so ingestion and question answering can be
// written and tested without a live model endpoint.
//
// # Interfaces
//
//   - Embedder: turns an ordered batch of texts into vectors of matching order
//   - ChatModel: turns role-tagged messages into one generated text
//   - AIProvider: aggregates both for initialization and shutdown
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can inject behavior and read call counts.
//
// # Failure Semantics
//
// Both services are all-or-nothing: a batch either fully succeeds or the call
// returns an error. Nothing is retried. A missing credential is reported by
// Config.Validate as a *core.MissingConfigError before any request is made.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(key))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, []string{"lease terms"})
//	answer, err := provider.ChatModel().Complete(ctx, messages)
package ai
