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

// Package enrich provides live-data fetchers that add structured facts about
// an address to an answer.
//
// A Fetcher returns a map that is merged into the response's data object.
// The fetchers shipped here are placeholders that echo the address with a
// note; real integrations implement the same interface:
//
//	rent := enrich.Func("rentcast", func(ctx context.Context, address string) (map[string]any, error) {
//		return client.Estimate(ctx, address)
//	})
package enrich
