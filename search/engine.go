package search

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/poiesic/triage/ai"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/storage"
)

// Weights tunes the contribution of each sub-search to the merged ranking.
type Weights struct {
	Vector  float64
	Keyword float64
}

// DefaultWeights favors semantic similarity over literal keyword overlap.
func DefaultWeights() Weights {
	return Weights{Vector: 0.65, Keyword: 0.35}
}

// Valid reports whether the weights can produce a meaningful ranking.
func (w Weights) Valid() bool {
	return w.Vector >= 0 && w.Keyword >= 0 && w.Vector+w.Keyword > 0
}

const excerptLength = 240

// Engine provides hybrid retrieval over reference records, merging
// vector-similarity and keyword-relevance rankings into one list.
type Engine struct {
	repository storage.ReferenceRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new retrieval engine.
func NewEngine(
	repository storage.ReferenceRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Engine, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		repository: repository,
		embedder:   provider.Embedder(),
		logger:     slog.Default().With("component", "search"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Retrieve merges vector and keyword lookups into one ranked result list.
// Returns up to limit results ordered by combined score.
func (e *Engine) Retrieve(ctx context.Context, query core.Query, weights Weights, limit int, filters storage.Filters) ([]*core.RetrievalResult, error) {
	return e.RetrieveWithMonitor(ctx, query, weights, limit, filters, nil)
}

// RetrieveWithMonitor merges vector and keyword lookups with monitoring.
// The monitor receives callbacks at each stage of the retrieval process.
//
// The two sub-searches run concurrently. A failure in one degrades the
// call to the surviving source; only when both fail does Retrieve return
// an error.
func (e *Engine) RetrieveWithMonitor(ctx context.Context, query core.Query, weights Weights, limit int, filters storage.Filters, monitor RetrievalMonitor) ([]*core.RetrievalResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if !weights.Valid() {
		return nil, ErrInvalidWeights
	}

	monitor.Start(query)

	// Queries too short to carry meaning get a synthetic escalation
	// result instead of a retrieval pass. The orchestrator treats it
	// as a signal to answer conservatively without generation.
	tokens := core.TokenCount(query.Text)
	if tokens < 2 {
		monitor.DegenerateQuery(tokens)
		escalation := []*core.RetrievalResult{newEscalationResult()}
		monitor.Finish(escalation)
		return escalation, nil
	}

	var (
		wg             sync.WaitGroup
		vectorResults  []*core.SearchResult
		keywordResults []*core.SearchResult
		vectorErr      error
		keywordErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorResults, vectorErr = e.vectorSearch(ctx, query.Text, filters, limit)
	}()
	go func() {
		defer wg.Done()
		keywordResults, keywordErr = e.repository.SearchByKeyword(ctx, query.Text, filters, limit)
	}()
	wg.Wait()

	if vectorErr != nil {
		e.logger.Warn("vector search degraded", "err", vectorErr)
		monitor.SourceDegraded("vector", vectorErr)
	}
	if keywordErr != nil {
		e.logger.Warn("keyword search degraded", "err", keywordErr)
		monitor.SourceDegraded("keyword", keywordErr)
	}
	if vectorErr != nil && keywordErr != nil {
		return nil, ErrAllSourcesFailed
	}

	monitor.AfterVectorSearch(resultIds(vectorResults))
	monitor.AfterKeywordSearch(resultIds(keywordResults))

	results := mergeRanked(vectorResults, keywordResults, weights)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	monitor.Finish(results)
	return results, nil
}

// vectorSearch embeds the query text and runs the nearest-vector lookup.
func (e *Engine) vectorSearch(ctx context.Context, text string, filters storage.Filters, limit int) ([]*core.SearchResult, error) {
	embedding, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return e.repository.NearestByVector(ctx, embedding, filters, limit)
}

// mergeRanked combines the two ranked sub-lists into one list ordered by
// combined score.
//
// Raw scores from the two sources are in incomparable units, so each
// sub-list is normalized by rank decay before merging: the i-th ranked
// item of a list of length N contributes (1 - i/N) * weight. Identifiers
// present in both lists sum both contributions, which bounds the top
// combined score by the weight sum.
func mergeRanked(vectorResults, keywordResults []*core.SearchResult, weights Weights) []*core.RetrievalResult {
	merged := make(map[core.ID]*core.RetrievalResult, len(vectorResults)+len(keywordResults))

	for i, sr := range vectorResults {
		contribution := rankDecay(i, len(vectorResults)) * weights.Vector
		rr := resultFromRecord(sr.Record)
		rr.VectorScore = sr.Score
		rr.Combined = float32(contribution)
		merged[sr.Record.Id] = rr
	}

	for i, sr := range keywordResults {
		contribution := rankDecay(i, len(keywordResults)) * weights.Keyword
		if existing, ok := merged[sr.Record.Id]; ok {
			existing.KeywordScore = sr.Score
			existing.Combined += float32(contribution)
			continue
		}
		rr := resultFromRecord(sr.Record)
		rr.KeywordScore = sr.Score
		rr.Combined = float32(contribution)
		merged[sr.Record.Id] = rr
	}

	results := make([]*core.RetrievalResult, 0, len(merged))
	for _, rr := range merged {
		results = append(results, rr)
	}

	sort.Slice(results, func(a, b int) bool {
		ra, rb := results[a], results[b]
		if ra.Combined != rb.Combined {
			return ra.Combined > rb.Combined
		}
		if !ra.Timestamp.Equal(rb.Timestamp) {
			return ra.Timestamp.After(rb.Timestamp)
		}
		return ra.Id < rb.Id
	})

	return results
}

func rankDecay(rank, length int) float64 {
	return 1 - float64(rank)/float64(length)
}

func resultFromRecord(record *core.ReferenceRecord) *core.RetrievalResult {
	return &core.RetrievalResult{
		Id:        record.Id,
		Kind:      record.Kind,
		Title:     record.Title,
		Excerpt:   excerpt(record.Contents),
		Timestamp: record.Timestamp,
	}
}

// newEscalationResult builds the synthetic result returned for degenerate
// queries. Final tells the orchestrator to skip generation entirely.
func newEscalationResult() *core.RetrievalResult {
	return &core.RetrievalResult{
		Title:     "Escalation: insufficient query detail",
		Excerpt:   "Query text too short for retrieval; escalate to a conservative high-risk response.",
		Timestamp: time.Now().UTC(),
		Final:     true,
	}
}

func excerpt(contents string) string {
	if len(contents) <= excerptLength {
		return contents
	}
	return contents[:excerptLength]
}

func resultIds(results []*core.SearchResult) []uint64 {
	ids := make([]uint64, 0, len(results))
	for _, sr := range results {
		ids = append(ids, uint64(sr.Record.Id))
	}
	return ids
}
