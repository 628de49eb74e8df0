package ai

import "errors"

var (
	// ErrEmptyCompletion is returned when the generation service responds
	// with no choices.
	ErrEmptyCompletion = errors.New("generation returned no choices")

	// ErrEmptyEmbedding is returned when the embedding service responds
	// with fewer vectors than texts were submitted.
	ErrEmptyEmbedding = errors.New("embedding returned no vectors")

	// ErrDimensionMismatch is returned when an embedding vector does not
	// have the width the configuration promises.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
