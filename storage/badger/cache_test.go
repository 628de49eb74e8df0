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

func testEnvelope(text string, disaster core.DisasterType, location string, ttl time.Duration) *core.CacheEnvelope {
	q := core.Query{
		Text:     text,
		Disaster: disaster,
		Location: location,
		Severity: core.SeverityHigh,
	}
	return &core.CacheEnvelope{
		Key:      core.KeyForQuery(q),
		Text:     core.NormalizeText(text),
		Disaster: disaster,
		Location: location,
		Payload:  []byte(`{"confidence_score":0.9}`),
		TTL:      ttl,
	}
}

func TestCacheStoreSetGet(t *testing.T) {
	refRepo, cacheStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	ctx := context.Background()
	envelope := testEnvelope("major earthquake near downtown", core.DisasterEarthquake, "San Francisco", time.Hour)

	require.NoError(t, cacheStore.Set(ctx, envelope))

	got, err := cacheStore.Get(ctx, envelope.Key)
	require.NoError(t, err)
	assert.Equal(t, envelope.Key, got.Key)
	assert.Equal(t, envelope.Text, got.Text)
	assert.Equal(t, envelope.Payload, got.Payload)
	assert.False(t, got.InsertedAt.IsZero())
}

func TestCacheStoreMiss(t *testing.T) {
	refRepo, cacheStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	var key core.CacheKey
	key[0] = 0x42

	_, err = cacheStore.Get(context.Background(), key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheStoreExpiry(t *testing.T) {
	refRepo, cacheStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	ctx := context.Background()
	envelope := testEnvelope("flash flood warning issued", core.DisasterFlood, "Mumbai", time.Hour)
	envelope.InsertedAt = time.Now().UTC().Add(-2 * time.Hour)

	require.NoError(t, cacheStore.Set(ctx, envelope))

	// Envelope-level TTL check catches entries badger has not reaped yet
	_, err = cacheStore.Get(ctx, envelope.Key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheStoreDelete(t *testing.T) {
	refRepo, cacheStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	ctx := context.Background()
	envelope := testEnvelope("wildfire spreading along the ridge", core.DisasterWildfire, "Australia", time.Hour)

	require.NoError(t, cacheStore.Set(ctx, envelope))
	require.NoError(t, cacheStore.Delete(ctx, envelope.Key))

	_, err = cacheStore.Get(ctx, envelope.Key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Context scan must not resurrect the deleted entry
	envelopes, err := cacheStore.ScanContext(ctx, core.DisasterWildfire, "Australia")
	require.NoError(t, err)
	assert.Empty(t, envelopes)
}

func TestCacheStoreScanContext(t *testing.T) {
	refRepo, cacheStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() { cacheStore.Close(); refRepo.Close(); backend.Close() }()

	ctx := context.Background()

	first := testEnvelope("major earthquake near the marina district", core.DisasterEarthquake, "San Francisco", time.Hour)
	second := testEnvelope("strong earthquake felt across the bay area", core.DisasterEarthquake, "san francisco", time.Hour)
	other := testEnvelope("earthquake reported offshore", core.DisasterEarthquake, "Tokyo", time.Hour)

	require.NoError(t, cacheStore.Set(ctx, first))
	require.NoError(t, cacheStore.Set(ctx, second))
	require.NoError(t, cacheStore.Set(ctx, other))

	// Location matching is case-insensitive
	envelopes, err := cacheStore.ScanContext(ctx, core.DisasterEarthquake, "SAN FRANCISCO")
	require.NoError(t, err)
	require.Len(t, envelopes, 2)

	texts := []string{envelopes[0].Text, envelopes[1].Text}
	assert.Contains(t, texts, core.NormalizeText(first.Text))
	assert.Contains(t, texts, core.NormalizeText(second.Text))
}

func TestCacheStoreClosedDatabase(t *testing.T) {
	refRepo, cacheStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	cacheStore.Close()
	refRepo.Close()
	require.NoError(t, backend.Close())

	ctx := context.Background()
	envelope := testEnvelope("flood waters rising", core.DisasterFlood, "Mumbai", time.Hour)

	// Every operation, the iterator-backed scan included, reports an
	// error instead of panicking on the closed handle.
	_, err = cacheStore.Get(ctx, envelope.Key)
	assert.Error(t, err)
	assert.Error(t, cacheStore.Set(ctx, envelope))
	_, err = cacheStore.ScanContext(ctx, core.DisasterFlood, "Mumbai")
	assert.Error(t, err)
}
