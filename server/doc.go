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

// Package server exposes the ask pipeline over HTTP.
//
// Routes:
//
//	GET  /        liveness, {"message": "Superior AI online"}
//	POST /ai/ask  {query, address?, k?} -> {answer, references, data}
//
// The query must be a non-empty string; an empty query is rejected with 422
// rather than sent to the model. An absent k retrieves core.DefaultK
// documents, while an explicit "k": 0 retrieves none and the model answers
// from the question alone. A negative k is rejected with 422.
//
// Errors are JSON objects with a single "detail" field. A malformed or
// invalid request is answered with 422. Missing configuration is reported
// with 500 and names the missing variable; every other failure is a bare
// 500 so that no partial answer leaves the server.
package server
