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


package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/storage"
	"github.com/xrash/smetrics"
)

// Config holds cache tier tuning parameters.
type Config struct {
	// SharedTTL is the time-to-live for entries in the out-of-process tier.
	SharedTTL time.Duration

	// LocalTTL is the time-to-live for entries in the in-process tier.
	// Kept short so multi-instance deployments converge on the shared tier.
	LocalTTL time.Duration

	// SimilarityThreshold is the minimum Jaro-Winkler similarity for a
	// near-duplicate lookup to count as a hit.
	SimilarityThreshold float64

	// MaxLocalEntries bounds the in-process tier.
	MaxLocalEntries int64
}

// ConfigOption configures a cache Config.
type ConfigOption func(*Config)

// WithSharedTTL sets the shared-tier TTL.
func WithSharedTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		if ttl > 0 {
			c.SharedTTL = ttl
		}
	}
}

// WithLocalTTL sets the in-process tier TTL.
func WithLocalTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		if ttl > 0 {
			c.LocalTTL = ttl
		}
	}
}

// WithSimilarityThreshold sets the near-duplicate similarity threshold.
func WithSimilarityThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		if threshold > 0 && threshold <= 1 {
			c.SimilarityThreshold = threshold
		}
	}
}

// DefaultConfig returns the standard cache tuning.
func DefaultConfig() *Config {
	return &Config{
		SharedTTL:           6 * time.Hour,
		LocalTTL:            10 * time.Minute,
		SimilarityThreshold: 0.92,
		MaxLocalEntries:     4096,
	}
}

// PlanCache is the two-tier action plan cache. Lookups check a small
// in-process tier before the shared store; writes populate both.
// Near-duplicate lookups absorb paraphrased repeats of a query that is
// already answered for the same disaster type and location.
type PlanCache struct {
	config *Config
	store  storage.CacheStore
	local  *ristretto.Cache[string, *core.ActionPlan]
	logger *slog.Logger
}

// Option configures a PlanCache.
type Option func(*PlanCache) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *PlanCache) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// New creates a two-tier plan cache over the shared store.
func New(store storage.CacheStore, config *Config, opts ...Option) (*PlanCache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	local, err := ristretto.NewCache(&ristretto.Config[string, *core.ActionPlan]{
		NumCounters: config.MaxLocalEntries * 10,
		MaxCost:     config.MaxLocalEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalCacheInit, err)
	}

	p := &PlanCache{
		config: config,
		store:  store,
		local:  local,
		logger: slog.Default().With("component", "cache"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			local.Close()
			return nil, err
		}
	}

	return p, nil
}

// Close releases the in-process tier. The shared store is owned by the
// caller and is not closed here.
func (p *PlanCache) Close() error {
	p.local.Close()
	return nil
}

// Lookup checks both tiers for an exact match on the query's cache key.
// Shared-tier failures degrade to a miss.
func (p *PlanCache) Lookup(ctx context.Context, query core.Query) (*core.ActionPlan, bool) {
	key := core.KeyForQuery(query)

	if plan, ok := p.local.Get(key.String()); ok {
		return plan.Clone(), true
	}

	envelope, err := p.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("shared cache read failed, treating as miss", "err", err)
		}
		return nil, false
	}

	plan, err := decodePlan(envelope.Payload)
	if err != nil {
		p.logger.Warn("cached plan payload unreadable, treating as miss", "err", err)
		return nil, false
	}

	// Promote to the in-process tier
	p.local.SetWithTTL(key.String(), plan, 1, p.config.LocalTTL)

	return plan.Clone(), true
}

// LookupSimilar scans cached entries for the same disaster type and
// location and returns the best plan whose original query text is a
// near-duplicate of this one. Failures degrade to a miss.
func (p *PlanCache) LookupSimilar(ctx context.Context, query core.Query) (*core.ActionPlan, bool) {
	envelopes, err := p.store.ScanContext(ctx, query.Disaster, query.Location)
	if err != nil {
		p.logger.Warn("near-duplicate scan failed, treating as miss", "err", err)
		return nil, false
	}

	normalized := core.NormalizeText(query.Text)

	var best *core.CacheEnvelope
	bestScore := p.config.SimilarityThreshold
	for _, envelope := range envelopes {
		score := smetrics.JaroWinkler(normalized, envelope.Text, 0.7, 4)
		if score >= bestScore {
			best = envelope
			bestScore = score
		}
	}
	if best == nil {
		return nil, false
	}

	plan, err := decodePlan(best.Payload)
	if err != nil {
		p.logger.Warn("cached plan payload unreadable, treating as miss", "err", err)
		return nil, false
	}

	p.logger.Debug("near-duplicate cache hit",
		"similarity", bestScore,
		"disaster", query.Disaster.String(),
		"location", query.Location)

	return plan.Clone(), true
}

// Store writes the plan to both tiers. Best-effort: a failed shared
// write is logged and reported but callers are expected to continue.
func (p *PlanCache) Store(ctx context.Context, query core.Query, plan *core.ActionPlan) error {
	key := core.KeyForQuery(query)

	p.local.SetWithTTL(key.String(), plan.Clone(), 1, p.config.LocalTTL)

	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}

	envelope := &core.CacheEnvelope{
		Key:      key,
		Text:     core.NormalizeText(query.Text),
		Disaster: query.Disaster,
		Location: query.Location,
		Payload:  payload,
		TTL:      p.config.SharedTTL,
	}

	if err := p.store.Set(ctx, envelope); err != nil {
		p.logger.Warn("shared cache write failed", "err", err)
		return err
	}
	return nil
}

// Invalidate drops the entry for the query from both tiers.
func (p *PlanCache) Invalidate(ctx context.Context, query core.Query) error {
	key := core.KeyForQuery(query)
	p.local.Del(key.String())
	return p.store.Delete(ctx, key)
}

// Wait blocks until pending in-process writes are visible. Intended for
// tests; production callers never need it.
func (p *PlanCache) Wait() {
	p.local.Wait()
}

func decodePlan(payload []byte) (*core.ActionPlan, error) {
	var plan core.ActionPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
