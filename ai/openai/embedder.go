package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/triage/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder against an OpenAI-compatible embedding
// API. Vectors are checked against the configured dimensionality before
// they reach storage: a model swap that silently changes the width would
// otherwise corrupt every similarity comparison.
type Embedder struct {
	embedder   embeddings.Embedder
	dimensions int
	logger     *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:   embedder,
		dimensions: config.EmbeddingDimensions,
		logger:     slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in one
// batch call. The returned vectors are index-aligned with the input.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding call failed", "count", len(texts), "err", err)
		return nil, err
	}

	if len(vectors) < len(texts) {
		e.logger.Error("embedding response incomplete",
			"want", len(texts), "got", len(vectors))
		return nil, ai.ErrEmptyEmbedding
	}

	for _, vector := range vectors {
		if len(vector) != e.dimensions {
			e.logger.Error("embedding width differs from configured dimensions",
				"want", e.dimensions, "got", len(vector))
			return nil, fmt.Errorf("%w: want %d, got %d",
				ai.ErrDimensionMismatch, e.dimensions, len(vector))
		}
	}

	return vectors, nil
}
