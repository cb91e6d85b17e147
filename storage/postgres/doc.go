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

// Package postgres provides the PostgreSQL Document Store.
//
// Embeddings live in a pgvector column and nearest-neighbor search is done
// by the database with the operator of the configured storage.Metric:
//
//	repo, err := postgres.Open(ctx, dsn, postgres.WithMetric(storage.MetricCosine))
//	if err != nil {
//		return err
//	}
//	defer repo.Close()
//
//	if err := repo.EnsureSchema(ctx); err != nil {
//		return err
//	}
//
// Connections come from a pgxpool.Pool and are held only for the duration
// of a single operation.
package postgres
