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

// Package ingestion loads plain-text files into the Document Store.
//
// A run discovers every file under a root directory that matches the
// configured pattern, reads them on a worker pool, embeds all contents with
// a single batch call and inserts one document per file:
//
//	pipeline, err := ingestion.NewPipeline(repo, provider.Embedder())
//	if err != nil {
//		return err
//	}
//	defer pipeline.Release()
//
//	report, err := pipeline.Ingest(ctx, "./docs", "internal")
//
// Runs are not transactional. A failed insert leaves the rows written
// before it in place, and ingesting the same file twice stores it twice.
//
// Watch keeps a pipeline running against a directory and ingests files as
// they are created or modified.
package ingestion
