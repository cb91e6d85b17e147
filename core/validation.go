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

package core

import "fmt"

// ValidateDocument validates a Document before it is written to a store.
//
// Validation rules:
//   - Title must not be empty
//   - Embedding must not be empty
//
// NOT validated:
//   - Content (stored verbatim, even when empty)
//   - Address (optional)
//   - Source (an empty label simply never shows up as a reference)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyEmbedding)
	}

	return nil
}

// ValidateAskRequest validates an incoming question.
// A nil K selects DefaultK. A zero K is valid and retrieves nothing.
func ValidateAskRequest(req *AskRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidAskRequest)
	}

	if req.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAskRequest, ErrEmptyQuery)
	}

	if req.K != nil && *req.K < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidAskRequest, ErrNegativeK)
	}

	return nil
}
