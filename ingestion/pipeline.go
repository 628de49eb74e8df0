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


package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/triage/ai"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/storage"
)

// Document is one incident report or response protocol to ingest.
type Document struct {
	Title     string
	Contents  string
	Disaster  core.DisasterType
	Severity  core.Severity
	Location  string
	Timestamp time.Time
	Metadata  map[string]string
}

// Pipeline ingests reference documents and embeds them asynchronously.
// Writes are synchronous so ingested documents are immediately visible
// to keyword search; embedding runs on a worker pool and records become
// visible to vector search as vectors land.
type Pipeline struct {
	repository    storage.ReferenceRepository
	embeddingPool *ants.Pool
	embeddingProc *embeddingProcessor
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.ReferenceRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:    repository,
		embeddingPool: pool,
		logger:        slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.embeddingProc = newEmbeddingProcessor(repository, provider.Embedder(), p.logger)

	return p, nil
}

// IngestIncidents stores incident reports and schedules their embedding.
func (p *Pipeline) IngestIncidents(ctx context.Context, documents ...Document) ([]*core.ReferenceRecord, error) {
	return p.ingest(ctx, core.SourceIncident, documents)
}

// IngestProtocols stores response protocols and schedules their embedding.
func (p *Pipeline) IngestProtocols(ctx context.Context, documents ...Document) ([]*core.ReferenceRecord, error) {
	return p.ingest(ctx, core.SourceProtocol, documents)
}

func (p *Pipeline) ingest(ctx context.Context, kind core.SourceKind, documents []Document) ([]*core.ReferenceRecord, error) {
	records := make([]*core.ReferenceRecord, len(documents))
	for i, doc := range documents {
		timestamp := doc.Timestamp
		if timestamp.IsZero() {
			timestamp = time.Now().UTC()
		}

		records[i] = &core.ReferenceRecord{
			Kind:      kind,
			Title:     doc.Title,
			Contents:  doc.Contents,
			Disaster:  doc.Disaster,
			Severity:  doc.Severity,
			Location:  doc.Location,
			Timestamp: timestamp,
			Metadata:  doc.Metadata,
		}

		if err := core.ValidateRecord(records[i]); err != nil {
			return nil, err
		}
	}

	added, err := p.repository.AddRecords(ctx, records...)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return added, nil
	}

	ids := make([]core.ID, len(added))
	for i, record := range added {
		ids[i] = record.Id
	}

	// Async embedding; errors are logged, never fail the ingest
	err = p.embeddingPool.Submit(func() {
		if _, err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
		}
	})
	if err != nil {
		p.logger.Error("error scheduling embedding work", "err", err)
	}

	return added, nil
}

// ProcessPending embeds up to limit records that have no vector yet and
// returns how many gained a vector. Synchronous; intended for background
// sweeps and catch-up after embedding provider outages. Records whose
// embedding still fails stay pending and do not count.
func (p *Pipeline) ProcessPending(ctx context.Context, limit int) (int, error) {
	pending, err := p.repository.PendingEmbedding(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ids := make([]core.ID, len(pending))
	for i, record := range pending {
		ids[i] = record.Id
	}

	return p.embeddingProc.process(ctx, ids...)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
