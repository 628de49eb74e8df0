package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/triage/ai"
	"github.com/poiesic/triage/ai/mock"
	"github.com/poiesic/triage/breaker"
	"github.com/poiesic/triage/cache"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/search"
	"github.com/poiesic/triage/storage"
	"github.com/poiesic/triage/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHarness struct {
	orchestrator *Orchestrator
	embedder     *mock.MockEmbedder
	generator    *mock.MockGenerator
}

func newHarness(t *testing.T, config *Config) *testHarness {
	t.Helper()

	refRepo, cacheStore, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		cacheStore.Close()
		refRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	generator := mock.NewMockGenerator()
	provider := mock.NewMockProviderWithServices(embedder, generator)

	engine, err := search.NewEngine(refRepo, provider)
	require.NoError(t, err)

	planCache, err := cache.New(cacheStore, cache.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { planCache.Close() })

	o, err := New(engine, planCache, provider, config)
	require.NoError(t, err)

	return &testHarness{orchestrator: o, embedder: embedder, generator: generator}
}

func earthquakeQuery() core.Query {
	return core.Query{
		Text:     "Major earthquake has hit the city center",
		Disaster: core.DisasterEarthquake,
		Location: "San Francisco",
		Severity: core.SeverityHigh,
	}
}

func TestNew_Validation(t *testing.T) {
	h := newHarness(t, nil)

	_, err := New(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEngineRequired)

	_, err = New(h.orchestrator.engine, nil, nil, nil)
	assert.ErrorIs(t, err, ErrCacheRequired)

	_, err = New(h.orchestrator.engine, h.orchestrator.planCache, nil, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestRespond_RejectsInvalidQuery(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.orchestrator.Respond(ctx, core.Query{
		Disaster: core.DisasterFlood,
		Location: "Mumbai",
		Severity: core.SeverityHigh,
	})
	assert.ErrorIs(t, err, core.ErrEmptyQueryText)

	_, err = h.orchestrator.Respond(ctx, core.Query{
		Text:     "flooding in the river basin",
		Disaster: core.DisasterFlood,
		Severity: core.SeverityHigh,
	})
	assert.ErrorIs(t, err, core.ErrMissingLocation)

	// Validation failures never reach the generator
	assert.Equal(t, 0, h.generator.CallCount())
}

func TestRespond_GenerationBackedPlan(t *testing.T) {
	h := newHarness(t, nil)

	response, err := h.orchestrator.Respond(context.Background(), earthquakeQuery())
	require.NoError(t, err)

	require.NotNil(t, response.Plan)
	assert.NotEmpty(t, response.RequestID)
	assert.False(t, response.Cached)
	assert.False(t, response.Fallback)
	assert.Empty(t, response.Plan.FallbackReason)

	// Scenario expectations: elevated risk, actionable plan, staffed response
	risk := response.Plan.Assessment.RiskLevel
	assert.True(t, risk == core.RiskHigh || risk == core.RiskCritical, "risk was %v", risk)
	assert.GreaterOrEqual(t, len(response.Plan.ImmediateActions), 3)
	assert.NotEmpty(t, response.Plan.Resources.Personnel)
	require.NoError(t, core.ValidatePlan(response.Plan))
}

func TestRespond_ConfidenceFormula(t *testing.T) {
	h := newHarness(t, nil)

	// Complete plan for a templated disaster type with >=3 actions:
	// 0.5 base + 0.2 template + 0.2 sections + 0.1 actions = 1.0
	response, err := h.orchestrator.Respond(context.Background(), earthquakeQuery())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, response.Plan.Confidence, 1e-9)
}

func TestRespond_Idempotence(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first, err := h.orchestrator.Respond(ctx, earthquakeQuery())
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := h.orchestrator.Respond(ctx, earthquakeQuery())
	require.NoError(t, err)
	assert.True(t, second.Cached)

	assert.Equal(t, first.Plan.Assessment, second.Plan.Assessment)
	assert.Equal(t, first.Plan.ImmediateActions, second.Plan.ImmediateActions)
	assert.Equal(t, first.Plan.Resources, second.Plan.Resources)
	assert.Equal(t, first.Plan.Confidence, second.Plan.Confidence)

	// One generation served both responses
	assert.Equal(t, 1, h.generator.CallCount())
}

func TestRespond_DegenerateQuery(t *testing.T) {
	h := newHarness(t, nil)

	response, err := h.orchestrator.Respond(context.Background(), core.Query{
		Text:     "Emergency",
		Disaster: core.DisasterOther,
		Location: "Unknown",
		Severity: core.SeverityModerate,
	})
	require.NoError(t, err)

	assert.True(t, response.Fallback)
	assert.NotEmpty(t, response.Plan.FallbackReason)
	assert.LessOrEqual(t, response.Plan.Confidence, 0.85)
	assert.GreaterOrEqual(t, response.Plan.Assessment.RiskLevel, core.RiskHigh)
	require.NoError(t, core.ValidatePlan(response.Plan))

	// Generation is bypassed entirely
	assert.Equal(t, 0, h.generator.CallCount())
}

// outageRepository fails the keyword sub-search, simulating a storage
// outage behind the retrieval path.
type outageRepository struct {
	storage.ReferenceRepository
}

func (r *outageRepository) SearchByKeyword(ctx context.Context, text string, filters storage.Filters, limit int) ([]*core.SearchResult, error) {
	return nil, errors.New("keyword index unavailable")
}

func TestRespond_DegenerateQueryServedWhileRetrievalDown(t *testing.T) {
	refRepo, cacheStore, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		cacheStore.Close()
		refRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}
	generator := mock.NewMockGenerator()
	provider := mock.NewMockProviderWithServices(embedder, generator)

	engine, err := search.NewEngine(&outageRepository{refRepo}, provider)
	require.NoError(t, err)
	planCache, err := cache.New(cacheStore, cache.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { planCache.Close() })

	config := DefaultConfig()
	config.RetrievalBreaker = &breaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Hour}
	o, err := New(engine, planCache, provider, config)
	require.NoError(t, err)

	ctx := context.Background()

	// One total retrieval failure trips the breaker; the request itself
	// still proceeds on an empty context.
	_, err = o.Respond(ctx, earthquakeQuery())
	require.NoError(t, err)
	require.Equal(t, "OPEN", o.BreakerStats()["retrieval"].State)

	// Degenerate input still gets its escalation plan without ever
	// reaching the generation provider.
	before := generator.CallCount()
	response, err := o.Respond(ctx, core.Query{
		Text:     "Emergency",
		Disaster: core.DisasterOther,
		Location: "Unknown",
		Severity: core.SeverityModerate,
	})
	require.NoError(t, err)
	assert.True(t, response.Fallback)
	assert.GreaterOrEqual(t, response.Plan.Assessment.RiskLevel, core.RiskHigh)
	assert.Equal(t, before, generator.CallCount())
}

func TestRespond_FallbackOnGenerationError(t *testing.T) {
	h := newHarness(t, nil)
	h.generator.CompleteFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
		return "", errors.New("connection refused")
	}

	response, err := h.orchestrator.Respond(context.Background(), earthquakeQuery())
	require.NoError(t, err)

	assert.True(t, response.Fallback)
	assert.Contains(t, response.Plan.FallbackReason, "unreachable")
	assert.LessOrEqual(t, response.Plan.Confidence, 0.85)
	require.NoError(t, core.ValidatePlan(response.Plan))
}

func TestRespond_FallbackOnMalformedCompletion(t *testing.T) {
	h := newHarness(t, nil)
	h.generator.CompleteFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
		return "The situation is serious, here is my advice:", nil
	}

	response, err := h.orchestrator.Respond(context.Background(), earthquakeQuery())
	require.NoError(t, err)

	assert.True(t, response.Fallback)
	assert.NotEmpty(t, response.Plan.FallbackReason)
	require.NoError(t, core.ValidatePlan(response.Plan))
}

func TestRespond_BreakerShedsGeneration(t *testing.T) {
	config := DefaultConfig()
	config.GenerationBreaker = &breaker.Config{FailureThreshold: 2, RecoveryTimeout: time.Hour}

	h := newHarness(t, config)
	generator := h.generator
	generator.CompleteFunc = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
		return "", errors.New("boom")
	}

	ctx := context.Background()

	// Distinct queries so cache hits don't mask breaker behavior
	queries := []core.Query{
		{Text: "river flooding in the north district", Disaster: core.DisasterFlood, Location: "Mumbai", Severity: core.SeverityHigh},
		{Text: "flooding reported near the rail yard", Disaster: core.DisasterFlood, Location: "Chennai", Severity: core.SeverityHigh},
		{Text: "flood waters rising in the old town", Disaster: core.DisasterFlood, Location: "Pune", Severity: core.SeverityHigh},
	}

	for _, q := range queries[:2] {
		response, err := h.orchestrator.Respond(ctx, q)
		require.NoError(t, err)
		assert.True(t, response.Fallback)
	}
	assert.Equal(t, 2, generator.CallCount())

	// Breaker is now open: the third request falls back without a call
	response, err := h.orchestrator.Respond(ctx, queries[2])
	require.NoError(t, err)
	assert.True(t, response.Fallback)
	assert.Equal(t, 2, generator.CallCount())

	stats := h.orchestrator.BreakerStats()
	assert.Equal(t, "OPEN", stats["generation"].State)
	assert.Equal(t, uint64(1), stats["generation"].TimesTripped)

	// Operator reset restores service
	h.orchestrator.ResetBreakers()
	generator.CompleteFunc = nil

	response, err = h.orchestrator.Respond(ctx, queries[2])
	require.NoError(t, err)
	assert.False(t, response.Fallback)
}

func TestRespond_NearDuplicateServedFromCache(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first, err := h.orchestrator.Respond(ctx, earthquakeQuery())
	require.NoError(t, err)
	require.False(t, first.Cached)

	paraphrased := earthquakeQuery()
	paraphrased.Text = "Major earthquake has hit the city centre"

	second, err := h.orchestrator.Respond(ctx, paraphrased)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, h.generator.CallCount())
}

func TestRespond_MissingSeverityStillServes(t *testing.T) {
	h := newHarness(t, nil)

	// Severity was never reported; the query is still served, treated
	// as moderate rather than rejected.
	response, err := h.orchestrator.Respond(context.Background(), core.Query{
		Text:     "landslide blocking the mountain road",
		Disaster: core.DisasterLandslide,
		Location: "Shimla",
	})
	require.NoError(t, err)
	require.NotNil(t, response.Plan)
	assert.NoError(t, core.ValidatePlan(response.Plan))
}
