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


package triage

import (
	"log/slog"

	"github.com/poiesic/triage/ai"
	"github.com/poiesic/triage/ai/openai"
	"github.com/poiesic/triage/cache"
	"github.com/poiesic/triage/ingestion"
	"github.com/poiesic/triage/orchestrator"
	"github.com/poiesic/triage/search"
	"github.com/poiesic/triage/storage"
	"github.com/poiesic/triage/storage/badger"
)

// System bundles the storage backend, reference store, plan cache store,
// and AI provider behind one handle. Responders and ingestion pipelines
// are created from it and share the underlying stores.
type System struct {
	backend    *badger.Backend
	refRepo    storage.ReferenceRepository
	cacheStore storage.CacheStore
	provider   ai.AIProvider
	logger     *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing
// one from config. The System takes ownership and closes it.
func WithProvider(provider ai.AIProvider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

func Open(filePath string, opts ...SystemOption) (*System, error) {
	// Apply options
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create reference repository
	refRepo, err := badger.NewReferenceRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create cache store
	cacheStore, err := badger.NewCacheStore(backend)
	if err != nil {
		refRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			cacheStore.Close()
			refRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &System{
		backend:    backend,
		refRepo:    refRepo,
		cacheStore: cacheStore,
		provider:   provider,
		logger:     slog.Default(),
	}, nil
}

func (s *System) Close() error {
	// Close AI provider first
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	// Close stores
	if err := s.cacheStore.Close(); err != nil {
		s.logger.Error("error closing cache store", "err", err)
		return err
	}
	if err := s.refRepo.Close(); err != nil {
		s.logger.Error("error closing reference repository", "err", err)
		return err
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *System) ReferenceRepository() storage.ReferenceRepository {
	return s.refRepo
}

func (s *System) CacheStore() storage.CacheStore {
	return s.cacheStore
}

func (s *System) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.refRepo, s.provider, opts...)
}

func (s *System) NewEngine(opts ...search.Option) (*search.Engine, error) {
	return search.NewEngine(s.refRepo, s.provider, opts...)
}

// NewResponder wires a retrieval engine, plan cache, and orchestrator
// over the System's stores. Pass nil configs for defaults.
func (s *System) NewResponder(
	cacheConfig *cache.Config,
	orchConfig *orchestrator.Config,
	opts ...orchestrator.Option,
) (*orchestrator.Orchestrator, error) {
	engine, err := search.NewEngine(s.refRepo, s.provider)
	if err != nil {
		return nil, err
	}

	planCache, err := cache.New(s.cacheStore, cacheConfig)
	if err != nil {
		return nil, err
	}

	return orchestrator.New(engine, planCache, s.provider, orchConfig, opts...)
}
