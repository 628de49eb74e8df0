package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/triage/ai/mock"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/storage"
	"github.com/poiesic/triage/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	refRepo, cacheStore, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		cacheStore.Close()
		refRepo.Close()
		backend.Close()
	}()

	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		engine, err := NewEngine(refRepo, provider)
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("with custom logger", func(t *testing.T) {
		engine, err := NewEngine(refRepo, provider, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		engine, err := NewEngine(refRepo, provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewEngine(nil, provider)
		assert.Equal(t, ErrRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewEngine(refRepo, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestRetrieve_EmptyDatabase(t *testing.T) {
	refRepo, cacheStore, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	provider := mock.NewMockProvider()
	engine, err := NewEngine(refRepo, provider)
	require.NoError(t, err)

	query := core.Query{
		Text:     "major earthquake damage downtown",
		Disaster: core.DisasterEarthquake,
		Location: "San Francisco",
		Severity: core.SeverityHigh,
	}

	results, err := engine.Retrieve(context.Background(), query, DefaultWeights(), 10, storage.Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_InvalidWeights(t *testing.T) {
	refRepo, cacheStore, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	engine, err := NewEngine(refRepo, mock.NewMockProvider())
	require.NoError(t, err)

	query := core.Query{Text: "flooding in low lying areas", Disaster: core.DisasterFlood, Location: "Mumbai"}

	_, err = engine.Retrieve(context.Background(), query, Weights{}, 10, storage.Filters{})
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = engine.Retrieve(context.Background(), query, Weights{Vector: -1, Keyword: 2}, 10, storage.Filters{})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestRetrieve_DegenerateQuery(t *testing.T) {
	refRepo, cacheStore, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	engine, err := NewEngine(refRepo, mock.NewMockProvider())
	require.NoError(t, err)

	query := core.Query{
		Text:     "Emergency",
		Disaster: core.DisasterOther,
		Location: "Unknown",
		Severity: core.SeverityHigh,
	}

	results, err := engine.Retrieve(context.Background(), query, DefaultWeights(), 10, storage.Filters{})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Final)
}

func TestRetrieve_MergesSources(t *testing.T) {
	refRepo, cacheStore, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	ctx := context.Background()
	provider := mock.NewMockProvider()
	engine, err := NewEngine(refRepo, provider)
	require.NoError(t, err)

	queryText := "severe earthquake structural damage downtown"

	// Embed with the same deterministic embedder the engine uses so the
	// vector sub-search scores this record highest.
	queryVector, err := provider.Embedder().EmbedText(ctx, queryText)
	require.NoError(t, err)

	now := time.Now().UTC()
	records := []*core.ReferenceRecord{
		{
			Kind:      core.SourceIncident,
			Title:     "Downtown earthquake damage survey",
			Contents:  "Severe structural damage to several downtown buildings after the earthquake.",
			Disaster:  core.DisasterEarthquake,
			Severity:  core.SeverityHigh,
			Location:  "San Francisco",
			Timestamp: now,
			Vector:    queryVector,
		},
		{
			Kind:      core.SourceProtocol,
			Title:     "Earthquake response protocol",
			Contents:  "Procedure for post-earthquake triage and building inspection.",
			Disaster:  core.DisasterEarthquake,
			Severity:  core.SeverityModerate,
			Location:  "California",
			Timestamp: now,
			Vector:    []float32{0.01, 0.01, 0.01},
		},
	}

	_, err = refRepo.AddRecords(ctx, records...)
	require.NoError(t, err)

	query := core.Query{
		Text:     queryText,
		Disaster: core.DisasterEarthquake,
		Location: "San Francisco",
		Severity: core.SeverityHigh,
	}

	weights := DefaultWeights()
	results, err := engine.Retrieve(ctx, query, weights, 10, storage.Filters{})
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "Downtown earthquake damage survey", results[0].Title)

	// Present in both sub-lists, so both raw scores are populated
	assert.Greater(t, results[0].VectorScore, float32(0))
	assert.Greater(t, results[0].KeywordScore, float32(0))

	// Normalized combined score is bounded by the weight sum
	for _, r := range results {
		assert.LessOrEqual(t, r.Combined, float32(weights.Vector+weights.Keyword)+1e-6)
	}
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Combined, results[i].Combined)
	}
}

func TestRetrieve_DegradesOnVectorFailure(t *testing.T) {
	refRepo, cacheStore, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = refRepo.AddRecords(ctx, &core.ReferenceRecord{
		Kind:      core.SourceIncident,
		Title:     "Wildfire spreading near the highway",
		Contents:  "Grass fire spreading toward the highway interchange.",
		Disaster:  core.DisasterWildfire,
		Severity:  core.SeverityHigh,
		Location:  "Australia",
		Timestamp: time.Now().UTC(),
		Vector:    []float32{1, 0, 0},
	})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service unavailable")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockGenerator())

	engine, err := NewEngine(refRepo, provider)
	require.NoError(t, err)

	query := core.Query{
		Text:     "wildfire spreading highway",
		Disaster: core.DisasterWildfire,
		Location: "Australia",
		Severity: core.SeverityHigh,
	}

	// Keyword side still answers
	results, err := engine.Retrieve(ctx, query, DefaultWeights(), 10, storage.Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, float32(0), results[0].VectorScore)
	assert.Greater(t, results[0].KeywordScore, float32(0))
}

// failingRepository errors on both sub-searches.
type failingRepository struct {
	storage.ReferenceRepository
}

func (f *failingRepository) NearestByVector(ctx context.Context, vector []float32, filters storage.Filters, limit int) ([]*core.SearchResult, error) {
	return nil, errors.New("store unavailable")
}

func (f *failingRepository) SearchByKeyword(ctx context.Context, text string, filters storage.Filters, limit int) ([]*core.SearchResult, error) {
	return nil, errors.New("store unavailable")
}

func TestRetrieve_AllSourcesFailed(t *testing.T) {
	engine, err := NewEngine(&failingRepository{}, mock.NewMockProvider())
	require.NoError(t, err)

	query := core.Query{
		Text:     "flooding across the river basin",
		Disaster: core.DisasterFlood,
		Location: "Mumbai",
		Severity: core.SeverityCritical,
	}

	_, err = engine.Retrieve(context.Background(), query, DefaultWeights(), 10, storage.Filters{})
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
}
