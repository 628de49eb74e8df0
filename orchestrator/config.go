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
	"time"

	"github.com/poiesic/triage/breaker"
	"github.com/poiesic/triage/search"
)

// Config holds orchestrator tuning parameters.
type Config struct {
	// RetrievalTimeout bounds the hybrid retrieval pass.
	RetrievalTimeout time.Duration

	// GenerationTimeout bounds a single generation call.
	GenerationTimeout time.Duration

	// OverallTimeout is the whole-request budget. When it elapses the
	// orchestrator abandons in-flight work and serves a fallback plan.
	OverallTimeout time.Duration

	// RetrievalLimit caps how many reference results feed the prompt.
	RetrievalLimit int

	// Weights tunes the hybrid retrieval merge.
	Weights search.Weights

	// GenerationBreaker, RetrievalBreaker, and CacheBreaker tune the
	// per-dependency circuit breakers.
	GenerationBreaker *breaker.Config
	RetrievalBreaker  *breaker.Config
	CacheBreaker      *breaker.Config
}

// ConfigOption configures an orchestrator Config.
type ConfigOption func(*Config)

// WithRetrievalTimeout sets the retrieval pass timeout.
func WithRetrievalTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout > 0 {
			c.RetrievalTimeout = timeout
		}
	}
}

// WithGenerationTimeout sets the generation call timeout.
func WithGenerationTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout > 0 {
			c.GenerationTimeout = timeout
		}
	}
}

// WithOverallTimeout sets the whole-request budget.
func WithOverallTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout > 0 {
			c.OverallTimeout = timeout
		}
	}
}

// WithRetrievalLimit sets the reference context size.
func WithRetrievalLimit(limit int) ConfigOption {
	return func(c *Config) {
		if limit > 0 {
			c.RetrievalLimit = limit
		}
	}
}

// WithWeights sets the hybrid retrieval weights.
func WithWeights(weights search.Weights) ConfigOption {
	return func(c *Config) {
		if weights.Valid() {
			c.Weights = weights
		}
	}
}

// DefaultConfig returns the standard orchestrator tuning. The generation
// breaker trips faster and holds longer than the storage-backed ones
// because a struggling model benefits most from backpressure.
func DefaultConfig() *Config {
	return &Config{
		RetrievalTimeout:  2 * time.Second,
		GenerationTimeout: 15 * time.Second,
		OverallTimeout:    20 * time.Second,
		RetrievalLimit:    5,
		Weights:           search.DefaultWeights(),
		GenerationBreaker: &breaker.Config{FailureThreshold: 3, RecoveryTimeout: 30 * time.Second},
		RetrievalBreaker:  &breaker.Config{FailureThreshold: 5, RecoveryTimeout: 10 * time.Second},
		CacheBreaker:      &breaker.Config{FailureThreshold: 5, RecoveryTimeout: 10 * time.Second},
	}
}

// NewConfig creates a Config with defaults and applies options.
func NewConfig(opts ...ConfigOption) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}
