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

package storage

import (
	"context"

	"github.com/poiesic/superior/core"
)

// DocumentRepository is the Document Store contract.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// InsertDocuments appends documents in order, one row each.
	// There is no upsert and no duplicate detection: inserting the same
	// content twice creates two rows. Rows are written independently, so a
	// failure part-way leaves earlier rows in place; the returned count is
	// the number of rows written before the failure.
	InsertDocuments(ctx context.Context, docs ...*core.Document) (int, error)

	// QueryNearest returns up to k documents ordered by ascending distance
	// between vector and each stored embedding, using the repository's
	// configured Metric. Fewer than k results are returned when the store
	// holds fewer documents. Returns ErrInvalidQuery if k < 1.
	QueryNearest(ctx context.Context, vector []float32, k int) ([]*core.Match, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// Metric returns the distance metric used by QueryNearest.
	Metric() Metric

	// Close releases the repository's resources.
	Close() error
}
