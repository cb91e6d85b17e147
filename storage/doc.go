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

// Package storage provides the Document Store abstraction for superior.
//
// This package defines the DocumentRepository interface that decouples the
// ingestion and ask pipelines from a concrete backend. Two backends exist:
//
//   - storage/postgres: a pgvector "documents" table behind a pgx pool; the
//     distance is computed by the database's vector operator
//   - storage/badger: an embedded BadgerDB store computing the same metrics
//     in process, used for local runs and tests
//
// # Distance Metric
//
// Nearest-neighbor order depends on a Metric (cosine, l2, inner_product).
// The metric is configuration, not data: nothing in a store records which
// metric or embedding model produced its rows. Querying with a metric or a
// model different from the one used at ingestion silently degrades results,
// so both backends log the metric when they open.
//
// # Usage
//
//	repo, err := postgres.Open(ctx, dsn, postgres.WithMetric(storage.MetricCosine))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
package storage
