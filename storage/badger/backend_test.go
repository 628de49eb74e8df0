package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func TestNearestByVector_Empty(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.NearestByVector(context.Background(), []float32{1, 0, 0}, storage.Filters{}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNearestByVector_Ordering(t *testing.T) {
	refRepo, cacheStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	records := []*core.ReferenceRecord{
		{
			Kind:      core.SourceIncident,
			Title:     "Aligned incident",
			Contents:  "Incident closest to the probe vector.",
			Disaster:  core.DisasterEarthquake,
			Severity:  core.SeverityHigh,
			Location:  "California",
			Timestamp: now,
			Vector:    []float32{1, 0, 0},
		},
		{
			Kind:      core.SourceIncident,
			Title:     "Partial incident",
			Contents:  "Incident partially aligned with the probe vector.",
			Disaster:  core.DisasterEarthquake,
			Severity:  core.SeverityModerate,
			Location:  "California",
			Timestamp: now,
			Vector:    []float32{0.5, 0.5, 0},
		},
		{
			Kind:      core.SourceIncident,
			Title:     "Unembedded incident",
			Contents:  "Incident still waiting on an embedding.",
			Disaster:  core.DisasterEarthquake,
			Severity:  core.SeverityLow,
			Location:  "California",
			Timestamp: now,
		},
	}

	_, err = refRepo.AddRecords(ctx, records...)
	require.NoError(t, err)

	results, err := backend.NearestByVector(ctx, []float32{1, 0, 0}, storage.Filters{}, 5)
	require.NoError(t, err)

	// Records without embeddings are skipped
	require.Len(t, results, 2)
	assert.Equal(t, "Aligned incident", results[0].Record.Title)
	assert.Equal(t, "Partial incident", results[1].Record.Title)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestNearestByVector_Filters(t *testing.T) {
	refRepo, cacheStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	records := []*core.ReferenceRecord{
		{
			Kind:      core.SourceIncident,
			Title:     "Coastal flood incident",
			Contents:  "Storm surge flooding along the coast.",
			Disaster:  core.DisasterFlood,
			Severity:  core.SeverityHigh,
			Location:  "Mumbai",
			Timestamp: now,
			Vector:    []float32{1, 0, 0},
		},
		{
			Kind:      core.SourceProtocol,
			Title:     "Flood response protocol",
			Contents:  "Standing procedure for urban flood response.",
			Disaster:  core.DisasterFlood,
			Severity:  core.SeverityModerate,
			Location:  "Mumbai",
			Timestamp: now,
			Vector:    []float32{1, 0, 0},
		},
		{
			Kind:      core.SourceIncident,
			Title:     "Wildfire incident",
			Contents:  "Grass fire along the highway median.",
			Disaster:  core.DisasterWildfire,
			Severity:  core.SeverityLow,
			Location:  "Australia",
			Timestamp: now,
			Vector:    []float32{1, 0, 0},
		},
	}

	_, err = refRepo.AddRecords(ctx, records...)
	require.NoError(t, err)

	results, err := backend.NearestByVector(ctx, []float32{1, 0, 0}, storage.Filters{
		Kind:      core.SourceProtocol,
		Disasters: []core.DisasterType{core.DisasterFlood},
	}, 5)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Flood response protocol", results[0].Record.Title)
}
