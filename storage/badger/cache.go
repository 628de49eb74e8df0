package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/storage"
)

// CacheStore implements storage.CacheStore on BadgerDB using native
// entry TTLs. A secondary index keyed by disaster type and location
// supports near-duplicate scans across cached entries.
type CacheStore struct {
	backend *Backend
}

var _ storage.CacheStore = (*CacheStore)(nil)

// NewCacheStore creates a new CacheStore.
//
// Returns storage.CacheStore interface to enforce abstraction.
func NewCacheStore(backend *Backend) (storage.CacheStore, error) {
	return newCacheStore(backend)
}

func newCacheStore(backend *Backend) (*CacheStore, error) {
	return &CacheStore{backend: backend}, nil
}

// Close is a no-op; the backend owns the database lifecycle.
func (c *CacheStore) Close() error {
	return nil
}

// Get retrieves the envelope stored under key.
func (c *CacheStore) Get(ctx context.Context, key core.CacheKey) (*core.CacheEnvelope, error) {
	var envelope *core.CacheEnvelope
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		envelope, err = c.readEnvelope(tx, makePlanKey(key))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if envelope == nil || envelope.Expired(time.Now().UTC()) {
		return nil, storage.ErrNotFound
	}
	return envelope, nil
}

// Set stores an envelope under its key with its TTL. Badger expires both
// the entry and its context index entry at the same deadline.
func (c *CacheStore) Set(ctx context.Context, envelope *core.CacheEnvelope) error {
	if envelope.InsertedAt.IsZero() {
		envelope.InsertedAt = time.Now().UTC()
	}
	value := storage.MarshalEnvelope(envelope)

	return c.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makePlanKey(envelope.Key), value)
		if envelope.TTL > 0 {
			entry = entry.WithTTL(envelope.TTL)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}

		idx := badger.NewEntry(makePlanCtxKey(envelope.Disaster, envelope.Location, envelope.Key), nil)
		if envelope.TTL > 0 {
			idx = idx.WithTTL(envelope.TTL)
		}
		if err := tx.SetEntry(idx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes the envelope stored under key, if any.
func (c *CacheStore) Delete(ctx context.Context, key core.CacheKey) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		envelope, err := c.readEnvelope(tx, makePlanKey(key))
		if err != nil {
			return err
		}
		if envelope != nil {
			if err := tx.Delete(makePlanCtxKey(envelope.Disaster, envelope.Location, key)); err != nil {
				return err
			}
		}
		if err := tx.Delete(makePlanKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ScanContext retrieves live envelopes recorded for the same disaster type
// and location.
func (c *CacheStore) ScanContext(ctx context.Context, disaster core.DisasterType, location string) ([]*core.CacheEnvelope, error) {
	var keys []core.CacheKey
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePlanCtxPrefix(disaster, location)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key, ok := planKeyFromCtxKey(iter.Item().Key())
			if ok {
				keys = append(keys, key)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	envelopes := make([]*core.CacheEnvelope, 0, len(keys))
	err = c.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			envelope, err := c.readEnvelope(tx, makePlanKey(key))
			if err != nil {
				return err
			}
			// Index entries can outlive their envelope briefly
			if envelope == nil || envelope.Expired(now) {
				continue
			}
			envelopes = append(envelopes, envelope)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return envelopes, nil
}

// readEnvelope reads an envelope by key within a transaction.
// Returns nil, nil when the key does not exist.
func (c *CacheStore) readEnvelope(tx *badger.Txn, key []byte) (*core.CacheEnvelope, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var envelope *core.CacheEnvelope
	err = item.Value(func(val []byte) error {
		var err error
		envelope, err = storage.UnmarshalEnvelope(val)
		return err
	})
	return envelope, err
}
