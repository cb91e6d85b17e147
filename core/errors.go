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

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidAskRequest indicates an AskRequest failed validation.
	ErrInvalidAskRequest = errors.New("invalid ask request")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyEmbedding indicates a document has no embedding vector.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")

	// ErrEmptyQuery indicates the Query field is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrNegativeK indicates a negative retrieval count.
	ErrNegativeK = errors.New("k cannot be negative")

	// ErrMissingConfig indicates a required configuration value is absent.
	ErrMissingConfig = errors.New("missing required configuration")
)

// MissingConfigError names the configuration variable that was required but absent.
type MissingConfigError struct {
	Name string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("Missing %s", e.Name)
}

// Is reports ErrMissingConfig as a match so callers can test the category.
func (e *MissingConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// MissingConfig returns a configuration error for the named variable.
func MissingConfig(name string) error {
	return &MissingConfigError{Name: name}
}
