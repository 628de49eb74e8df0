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

func setupTestRepository(t *testing.T) storage.ReferenceRepository {
	refRepo, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return refRepo
}

func testDocument(title string) Document {
	return Document{
		Title:    title,
		Contents: "Magnitude 6.9 earthquake caused structural damage across the metro area.",
		Disaster: core.DisasterEarthquake,
		Severity: core.SeverityHigh,
		Location: "San Francisco",
	}
}

// waitForVectors polls until every record has an embedding or the
// deadline passes. The pool embeds asynchronously after ingest.
func waitForVectors(t *testing.T, repo storage.ReferenceRepository, ids ...core.ID) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		records, err := repo.GetRecords(context.Background(), ids...)
		require.NoError(t, err)

		done := true
		for _, record := range records {
			if len(record.Vector) == 0 {
				done = false
				break
			}
		}
		if done {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for embeddings")
}

func TestNewPipeline_Validation(t *testing.T) {
	refRepo := setupTestRepository(t)
	provider := mock.NewMockProvider()

	t.Run("nil repository", func(t *testing.T) {
		pipeline, err := NewPipeline(nil, provider)
		assert.ErrorIs(t, err, ErrRepositoryRequired)
		assert.Nil(t, pipeline)
	})

	t.Run("nil provider", func(t *testing.T) {
		pipeline, err := NewPipeline(refRepo, nil)
		assert.ErrorIs(t, err, ErrAIProviderRequired)
		assert.Nil(t, pipeline)
	})

	t.Run("with options", func(t *testing.T) {
		logger := slog.Default()
		pipeline, err := NewPipeline(refRepo, provider, WithPoolSize(2), WithLogger(logger))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, logger, pipeline.logger)
	})
}

func TestPipeline_IngestIncidents(t *testing.T) {
	refRepo := setupTestRepository(t)
	provider := mock.NewMockProvider()

	pipeline, err := NewPipeline(refRepo, provider, WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()

	added, err := pipeline.IngestIncidents(ctx, testDocument("Loma Prieta aftermath report"))
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id)
	assert.Equal(t, core.SourceIncident, added[0].Kind)
	assert.False(t, added[0].Timestamp.IsZero())

	// Keyword search sees the document immediately, before embedding
	results, err := refRepo.SearchByKeyword(ctx, "earthquake structural damage", storage.Filters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, added[0].Id, results[0].Record.Id)

	waitForVectors(t, refRepo, added[0].Id)
}

func TestPipeline_IngestProtocols(t *testing.T) {
	refRepo := setupTestRepository(t)
	provider := mock.NewMockProvider()

	pipeline, err := NewPipeline(refRepo, provider, WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()

	doc := Document{
		Title:    "Urban flood evacuation protocol",
		Contents: "Stage evacuations by ward, starting with low-lying districts near drainage basins.",
		Disaster: core.DisasterFlood,
		Severity: core.SeverityCritical,
		Location: "Mumbai",
		Metadata: map[string]string{"agency": "municipal"},
	}

	added, err := pipeline.IngestProtocols(ctx, doc)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, core.SourceProtocol, added[0].Kind)
	assert.Equal(t, "municipal", added[0].Metadata["agency"])
}

func TestPipeline_IngestRejectsInvalidDocument(t *testing.T) {
	refRepo := setupTestRepository(t)
	provider := mock.NewMockProvider()

	pipeline, err := NewPipeline(refRepo, provider)
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()

	t.Run("empty contents", func(t *testing.T) {
		doc := testDocument("Empty report")
		doc.Contents = ""

		added, err := pipeline.IngestIncidents(ctx, doc)
		assert.ErrorIs(t, err, core.ErrInvalidRecord)
		assert.Nil(t, added)
	})

	t.Run("future timestamp", func(t *testing.T) {
		doc := testDocument("Report from the future")
		doc.Timestamp = time.Now().Add(time.Hour)

		added, err := pipeline.IngestIncidents(ctx, doc)
		assert.ErrorIs(t, err, core.ErrInvalidRecord)
		assert.Nil(t, added)
	})

	t.Run("rejects whole batch", func(t *testing.T) {
		bad := testDocument("Bad")
		bad.Contents = ""

		_, err := pipeline.IngestIncidents(ctx, testDocument("Good"), bad)
		assert.ErrorIs(t, err, core.ErrInvalidRecord)

		pending, err := refRepo.PendingEmbedding(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestPipeline_IngestNoDocuments(t *testing.T) {
	refRepo := setupTestRepository(t)
	provider := mock.NewMockProvider()

	pipeline, err := NewPipeline(refRepo, provider)
	require.NoError(t, err)
	defer pipeline.Release()

	added, err := pipeline.IngestIncidents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestPipeline_ProcessPending(t *testing.T) {
	refRepo := setupTestRepository(t)
	provider := mock.NewMockProvider()

	pipeline, err := NewPipeline(refRepo, provider)
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()

	// Records added directly to the repository never went through the
	// embedding pool, so they sit pending until a sweep.
	records := []*core.ReferenceRecord{
		{
			Kind:      core.SourceIncident,
			Title:     "Grassland fire report",
			Contents:  "Fast-moving grass fire driven by northerly winds.",
			Disaster:  core.DisasterWildfire,
			Severity:  core.SeverityModerate,
			Location:  "New South Wales",
			Timestamp: time.Now().UTC(),
		},
		{
			Kind:      core.SourceProtocol,
			Title:     "Bushfire response protocol",
			Contents:  "Establish containment lines and pre-position aerial water bombers.",
			Disaster:  core.DisasterWildfire,
			Severity:  core.SeverityHigh,
			Location:  "New South Wales",
			Timestamp: time.Now().UTC(),
		},
	}
	added, err := refRepo.AddRecords(ctx, records...)
	require.NoError(t, err)
	require.Len(t, added, 2)

	count, err := pipeline.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	pending, err := refRepo.PendingEmbedding(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Second sweep has nothing to do
	count, err = pipeline.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPipeline_ProcessPendingEmbedderOutage(t *testing.T) {
	refRepo := setupTestRepository(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("connection refused")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockGenerator())

	pipeline, err := NewPipeline(refRepo, provider)
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()

	record := &core.ReferenceRecord{
		Kind:      core.SourceIncident,
		Title:     "Coastal flooding report",
		Contents:  "King tide flooding low-lying streets along the waterfront.",
		Disaster:  core.DisasterFlood,
		Severity:  core.SeverityModerate,
		Location:  "Jakarta",
		Timestamp: time.Now().UTC(),
	}
	_, err = refRepo.AddRecords(ctx, record)
	require.NoError(t, err)

	// The sweep reports zero successes so callers looping on the count
	// terminate; the record stays pending.
	count, err := pipeline.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	pending, err := refRepo.PendingEmbedding(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	// Service recovers: the batch path embeds what was left behind
	embedder.Reset()
	count, err = pipeline.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first attempt", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			return nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}, 5, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		permanent := errors.New("permanent")
		attempts := 0
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			return permanent
		}, 3, time.Millisecond)
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 3, attempts)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		attempts := 0
		err := RetryWithBackoff(cancelCtx, func() error {
			attempts++
			cancel()
			return errors.New("transient")
		}, 5, 10*time.Second)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})
}
