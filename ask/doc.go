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

// Package ask answers questions from the Document Store.
//
// A Pipeline runs one request at a time through a fixed sequence:
//   - embed the query
//   - retrieve the k nearest documents
//   - build a bounded context block from them
//   - start the live-data fetchers for the request's address
//   - ask the chat model
//   - join the fetchers and merge their data
//   - collect deduplicated references from the retrieved documents
//
// The fetchers run while the chat model is working. If the chat call fails
// they are cancelled and awaited before Ask returns, so no work outlives the
// request. A Monitor can observe each stage.
package ask
