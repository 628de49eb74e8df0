package storage

import (
	"context"
	"strings"

	"github.com/poiesic/triage/core"
)

// Filters narrows sub-searches before ranking. Filters are pushed down to
// the backing store rather than applied after merging, so a limit is never
// starved by post-filtering.
type Filters struct {
	// Kind restricts results to one corpus. Zero value matches both
	// incidents and protocols.
	Kind core.SourceKind

	// Disasters restricts results to the listed disaster types.
	// Empty matches any type.
	Disasters []core.DisasterType

	// Location restricts results to records whose location contains this
	// string (case-insensitive). Empty matches any location.
	Location string
}

// Match reports whether a record passes the filters.
func (f *Filters) Match(record *core.ReferenceRecord) bool {
	if f.Kind != 0 && record.Kind != f.Kind {
		return false
	}
	if len(f.Disasters) > 0 {
		found := false
		for _, d := range f.Disasters {
			if record.Disaster == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Location != "" && !containsFold(record.Location, f.Location) {
		return false
	}
	return true
}

// ReferenceRepository provides operations for managing reference records
// (historical incidents and response protocols) and the two sub-searches
// the hybrid retrieval engine merges.
// Implementations must be thread-safe and support concurrent access.
type ReferenceRepository interface {
	// AddRecords adds one or more reference records to storage.
	// For records with ID=0, derives a content-based ID.
	// Sets InsertedAt timestamp if not already set.
	// Returns the records with IDs and timestamps populated.
	AddRecords(ctx context.Context, records ...*core.ReferenceRecord) ([]*core.ReferenceRecord, error)

	// UpdateRecords updates existing reference records.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any record doesn't exist.
	UpdateRecords(ctx context.Context, records ...*core.ReferenceRecord) ([]*core.ReferenceRecord, error)

	// DeleteRecords removes reference records by their IDs.
	// Also removes associated keyword index entries.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteRecords(ctx context.Context, ids ...core.ID) error

	// GetRecord retrieves a single reference record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id core.ID) (*core.ReferenceRecord, error)

	// GetRecords retrieves multiple reference records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetRecords(ctx context.Context, ids ...core.ID) ([]*core.ReferenceRecord, error)

	// NearestByVector finds records whose embedding is nearest to the given
	// vector, restricted by filters, up to limit results.
	// Results are ordered by similarity score (highest first).
	// Records without embeddings are skipped.
	NearestByVector(ctx context.Context, vector []float32, filters Filters, limit int) ([]*core.SearchResult, error)

	// SearchByKeyword finds records ranked by keyword relevance to the text,
	// restricted by filters, up to limit results.
	// Results are ordered by relevance score (highest first).
	SearchByKeyword(ctx context.Context, text string, filters Filters, limit int) ([]*core.SearchResult, error)

	// PendingEmbedding retrieves up to limit records that have no embedding
	// vector yet, for background embedding processors.
	PendingEmbedding(ctx context.Context, limit int) ([]*core.ReferenceRecord, error)

	// Close closes the repository and releases resources.
	Close() error
}

// CacheStore is the out-of-process cache tier contract.
// Implementations must be thread-safe; consistency is delegated to the
// backing store (last-write-wins).
type CacheStore interface {
	// Get retrieves the envelope stored under key.
	// Returns ErrNotFound if the key is absent or its TTL has expired.
	Get(ctx context.Context, key core.CacheKey) (*core.CacheEnvelope, error)

	// Set stores an envelope under its key with its TTL.
	// An existing entry under the same key is overwritten.
	Set(ctx context.Context, envelope *core.CacheEnvelope) error

	// Delete removes the envelope stored under key, if any.
	Delete(ctx context.Context, key core.CacheKey) error

	// ScanContext retrieves live envelopes recorded for the same disaster
	// type and location, for near-duplicate lookup. Expired envelopes are
	// skipped.
	ScanContext(ctx context.Context, disaster core.DisasterType, location string) ([]*core.CacheEnvelope, error)

	// Close closes the store and releases resources.
	Close() error
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
