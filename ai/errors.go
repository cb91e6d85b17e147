package ai

import "errors"

var (
	// ErrEmbeddingMismatch indicates the embedding service returned a different
	// number of vectors than texts submitted.
	ErrEmbeddingMismatch = errors.New("embedding result count mismatch")

	// ErrEmptyCompletion indicates the chat service returned no choices.
	ErrEmptyCompletion = errors.New("chat completion returned no choices")
)
