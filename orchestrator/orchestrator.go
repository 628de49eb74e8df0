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


package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/triage/ai"
	"github.com/poiesic/triage/breaker"
	"github.com/poiesic/triage/cache"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/fallback"
	"github.com/poiesic/triage/search"
	"github.com/poiesic/triage/storage"
)

// Request states, used for logging the per-request state machine.
const (
	stateValidating       = "VALIDATING"
	stateCacheLookup      = "CACHE_LOOKUP"
	stateRetrieving       = "RETRIEVING"
	stateGenerating       = "GENERATING"
	stateValidatingOutput = "VALIDATING_OUTPUT"
	stateCaching          = "CACHING"
	stateFallback         = "FALLBACK"
)

// PlanResponse is the orchestrator's answer to one query.
type PlanResponse struct {
	RequestID string           `json:"request_id"`
	Plan      *core.ActionPlan `json:"plan"`
	Cached    bool             `json:"cached"`
	Fallback  bool             `json:"fallback"`
	ElapsedMS int64            `json:"elapsed_ms"`
}

// Orchestrator sequences one request through validation, cache lookup,
// retrieval, generation, enrichment, and cache write. Every dependency
// failure terminates in a usable plan; the only error a caller sees is
// input validation.
type Orchestrator struct {
	config    *Config
	engine    *search.Engine
	planCache *cache.PlanCache
	generator ai.Generator
	logger    *slog.Logger

	genBreaker   *breaker.Breaker
	retBreaker   *breaker.Breaker
	cacheBreaker *breaker.Breaker
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// New creates an orchestrator over the retrieval engine, plan cache, and
// generation provider. Each guarded dependency gets its own circuit
// breaker so failures in one never shed load from another.
func New(
	engine *search.Engine,
	planCache *cache.PlanCache,
	provider ai.AIProvider,
	config *Config,
	opts ...Option,
) (*Orchestrator, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if planCache == nil {
		return nil, ErrCacheRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	genBreaker, err := breaker.New("generation", config.GenerationBreaker)
	if err != nil {
		return nil, err
	}
	retBreaker, err := breaker.New("retrieval", config.RetrievalBreaker)
	if err != nil {
		return nil, err
	}
	cacheBreaker, err := breaker.New("cache", config.CacheBreaker)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		config:       config,
		engine:       engine,
		planCache:    planCache,
		generator:    provider.Generator(),
		logger:       slog.Default().With("component", "orchestrator"),
		genBreaker:   genBreaker,
		retBreaker:   retBreaker,
		cacheBreaker: cacheBreaker,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Respond produces an action plan for the query. The response is always
// usable: generation failures, open breakers, and elapsed budgets all
// terminate in a template fallback plan. The only returned error is a
// validation error on malformed input.
func (o *Orchestrator) Respond(ctx context.Context, query core.Query) (*PlanResponse, error) {
	started := time.Now()
	requestID := uuid.NewString()
	log := o.logger.With("requestId", requestID)

	log.Debug("state", "state", stateValidating)
	query.Text = core.SanitizeText(query.Text)
	if err := core.ValidateQuery(&query); err != nil {
		log.Warn("query rejected", "err", err)
		return nil, err
	}
	if core.ValidateSeverity(query.Severity) != nil {
		log.Warn("unrecognized severity, treating as moderate", "severity", int(query.Severity))
		query.Severity = core.SeverityModerate
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.OverallTimeout)
	defer cancel()

	log.Debug("state", "state", stateCacheLookup)
	if plan, ok := o.planCache.Lookup(ctx, query); ok {
		log.Info("cache hit", "disaster", query.Disaster.String(), "location", query.Location)
		return &PlanResponse{RequestID: requestID, Plan: plan, Cached: true, ElapsedMS: time.Since(started).Milliseconds()}, nil
	}
	if plan, ok := o.planCache.LookupSimilar(ctx, query); ok {
		log.Info("near-duplicate cache hit", "disaster", query.Disaster.String(), "location", query.Location)
		return &PlanResponse{RequestID: requestID, Plan: plan, Cached: true, ElapsedMS: time.Since(started).Milliseconds()}, nil
	}

	// Queries too short to carry meaning skip retrieval and generation
	// entirely and answer conservatively. The check is pure, so the
	// escalation path stays available whatever the health of the
	// dependencies behind the retrieval breaker.
	if tokens := core.TokenCount(query.Text); tokens < 2 {
		log.Info("degenerate query, serving escalation plan", "tokens", tokens)
		plan := o.escalationPlan(query)
		o.writeCache(ctx, query, plan, log)
		return &PlanResponse{RequestID: requestID, Plan: plan, Fallback: true, ElapsedMS: time.Since(started).Milliseconds()}, nil
	}

	log.Debug("state", "state", stateRetrieving)
	results := o.retrieve(ctx, query, log)

	log.Debug("state", "state", stateGenerating)
	plan, genErr := o.generate(ctx, query, results)

	fellBack := false
	if genErr != nil {
		log.Warn("generation failed, serving fallback plan", "state", stateFallback, "err", genErr)
		plan = fallback.Generate(query, genErr)
		fellBack = true
	} else {
		log.Debug("state", "state", stateValidatingOutput)
		o.enrich(plan, query)
	}
	plan.GeneratedAt = time.Now().UTC()

	log.Debug("state", "state", stateCaching)
	o.writeCache(ctx, query, plan, log)

	return &PlanResponse{RequestID: requestID, Plan: plan, Fallback: fellBack, ElapsedMS: time.Since(started).Milliseconds()}, nil
}

// retrieve runs the hybrid retrieval pass under its breaker and timeout.
// Total retrieval failure degrades to an empty context; generation still
// proceeds.
func (o *Orchestrator) retrieve(ctx context.Context, query core.Query, log *slog.Logger) []*core.RetrievalResult {
	rctx, cancel := context.WithTimeout(ctx, o.config.RetrievalTimeout)
	defer cancel()

	filters := storage.Filters{}
	if query.Disaster != core.DisasterOther {
		filters.Disasters = []core.DisasterType{query.Disaster}
	}

	var results []*core.RetrievalResult
	err := o.retBreaker.Do(rctx, func(ctx context.Context) error {
		var err error
		results, err = o.engine.Retrieve(ctx, query, o.config.Weights, o.config.RetrievalLimit, filters)
		return err
	})
	if err != nil {
		log.Warn("retrieval failed, proceeding with empty context", "err", err)
		return nil
	}
	return results
}

// generate runs the guarded generation call and races it against the
// overall request budget. On budget expiry the in-flight call is
// detached, not awaited; the breaker settles when it finishes.
func (o *Orchestrator) generate(ctx context.Context, query core.Query, results []*core.RetrievalResult) (*core.ActionPlan, error) {
	prompt := buildPrompt(query, results)

	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.GenerationTimeout)

	type outcome struct {
		plan *core.ActionPlan
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer cancel()
		var plan *core.ActionPlan
		err := o.genBreaker.Do(gctx, func(ctx context.Context) error {
			text, err := o.generator.Complete(ctx, prompt, ai.GenerateOptions{})
			if err != nil {
				return err
			}
			parsed, err := parsePlan(text)
			if err != nil {
				return err
			}
			plan = parsed
			return nil
		})
		done <- outcome{plan: plan, err: err}
	}()

	select {
	case result := <-done:
		return result.plan, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// enrich backfills sparse resources from the static template and scores
// confidence: base 0.5, +0.2 for a type-specific template, +0.2 for all
// required sections present, +0.1 for three or more immediate actions.
func (o *Orchestrator) enrich(plan *core.ActionPlan, query core.Query) {
	if plan.Resources.Empty() {
		plan.Resources = fallback.TemplateResources(query.Disaster)
	} else {
		template := fallback.TemplateResources(query.Disaster)
		if len(plan.Resources.Personnel) == 0 {
			plan.Resources.Personnel = template.Personnel
		}
		if len(plan.Resources.Equipment) == 0 {
			plan.Resources.Equipment = template.Equipment
		}
		if len(plan.Resources.Facilities) == 0 {
			plan.Resources.Facilities = template.Facilities
		}
	}

	confidence := 0.5
	if fallback.HasTemplate(query.Disaster) {
		confidence += 0.2
	}
	if sectionsComplete(plan) {
		confidence += 0.2
	}
	if len(plan.ImmediateActions) >= 3 {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	plan.Confidence = confidence
}

func sectionsComplete(plan *core.ActionPlan) bool {
	return plan.Assessment.Summary != "" &&
		len(plan.ImmediateActions) > 0 &&
		!plan.Resources.Empty() &&
		(len(plan.Timeline.Immediate) > 0 || len(plan.Timeline.ShortTerm) > 0) &&
		plan.Coordination.LeadAgency != ""
}

// escalationPlan is the conservative answer for degenerate queries. The
// template fallback is floored at HIGH risk because the input gave no
// evidence the situation is minor.
func (o *Orchestrator) escalationPlan(query core.Query) *core.ActionPlan {
	plan := fallback.Generate(query, ErrInsufficientSpecificity)
	if plan.Assessment.RiskLevel < core.RiskHigh {
		plan.Assessment.RiskLevel = core.RiskHigh
	}
	return plan
}

// writeCache stores the finished plan under its key. Best-effort: cache
// failures are logged and absorbed by the cache breaker, never surfaced.
// The write runs on a detached context so a spent request budget cannot
// abort it mid-write.
func (o *Orchestrator) writeCache(ctx context.Context, query core.Query, plan *core.ActionPlan, log *slog.Logger) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := o.cacheBreaker.Do(wctx, func(ctx context.Context) error {
		return o.planCache.Store(ctx, query, plan)
	})
	if err != nil {
		log.Warn("cache write skipped", "err", err)
	}
}

// BreakerStats returns snapshots of all dependency breakers, keyed by
// dependency name.
func (o *Orchestrator) BreakerStats() map[string]breaker.Stats {
	return map[string]breaker.Stats{
		o.genBreaker.Name():   o.genBreaker.Stats(),
		o.retBreaker.Name():   o.retBreaker.Stats(),
		o.cacheBreaker.Name(): o.cacheBreaker.Stats(),
	}
}

// ResetBreakers forces every dependency breaker back to CLOSED.
// Operator action for recovery drills; not called on any request path.
func (o *Orchestrator) ResetBreakers() {
	o.genBreaker.Reset()
	o.retBreaker.Reset()
	o.cacheBreaker.Reset()
}
