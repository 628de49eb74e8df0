package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/storage"
)

// ReferenceRepository implements storage.ReferenceRepository for BadgerDB.
type ReferenceRepository struct {
	backend *Backend
}

var _ storage.ReferenceRepository = (*ReferenceRepository)(nil)

// NewReferenceRepository creates a new ReferenceRepository.
//
// Returns storage.ReferenceRepository interface to enforce abstraction.
func NewReferenceRepository(backend *Backend) (storage.ReferenceRepository, error) {
	return newReferenceRepository(backend)
}

func newReferenceRepository(backend *Backend) (*ReferenceRepository, error) {
	return &ReferenceRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database lifecycle.
func (r *ReferenceRepository) Close() error {
	return nil
}

// AddRecords adds one or more reference records to storage.
// Records with ID=0 get a content-based ID so re-ingesting the same
// document is idempotent rather than duplicating it.
func (r *ReferenceRepository) AddRecords(ctx context.Context, records ...*core.ReferenceRecord) ([]*core.ReferenceRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Id == 0 {
				record.Id = core.IDFromContent("(" + record.Kind.String() + "," + record.Title + ")" + record.Contents)
			}

			record.InsertedAt = time.Now().UTC()
			record.UpdatedAt = record.InsertedAt

			key := makeRecordKey(record.Id)
			value := storage.MarshalRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			if err := r.indexWords(tx, record); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// UpdateRecords updates existing reference records.
func (r *ReferenceRepository) UpdateRecords(ctx context.Context, records ...*core.ReferenceRecord) ([]*core.ReferenceRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeRecordKey(record.Id)

			old, err := r.readRecord(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			record.UpdatedAt = time.Now().UTC()

			value := storage.MarshalRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Reindex keywords if the text changed
			if old.Title != record.Title || old.Contents != record.Contents {
				if err := r.unindexWords(tx, old); err != nil {
					return err
				}
				if err := r.indexWords(tx, record); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// DeleteRecords removes reference records by their IDs.
func (r *ReferenceRepository) DeleteRecords(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRecordKey(id)

			record, err := r.readRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			if err := r.unindexWords(tx, record); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetRecord retrieves a single reference record by ID.
func (r *ReferenceRepository) GetRecord(ctx context.Context, id core.ID) (*core.ReferenceRecord, error) {
	var record *core.ReferenceRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = r.readRecord(tx, makeRecordKey(id))
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)

	return record, err
}

// GetRecords retrieves multiple reference records by their IDs.
// Missing records are skipped without error.
func (r *ReferenceRepository) GetRecords(ctx context.Context, ids ...core.ID) ([]*core.ReferenceRecord, error) {
	records := make([]*core.ReferenceRecord, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := r.readRecord(tx, makeRecordKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				records = append(records, record)
			}
		}
		return nil
	}, false)

	return records, err
}

// NearestByVector delegates to the backend scan.
func (r *ReferenceRepository) NearestByVector(ctx context.Context, vector []float32, filters storage.Filters, limit int) ([]*core.SearchResult, error) {
	return r.backend.NearestByVector(ctx, vector, filters, limit)
}

// SearchByKeyword finds records ranked by keyword relevance.
// Relevance is the fraction of query tokens present in the record's
// indexed text, so a record matching every token scores 1.0.
func (r *ReferenceRepository) SearchByKeyword(ctx context.Context, text string, filters storage.Filters, limit int) ([]*core.SearchResult, error) {
	tokens := core.Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	matches := make(map[core.ID]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, token := range tokens {
			if err := ctx.Err(); err != nil {
				return err
			}

			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeWordPrefix(token)
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				var id core.ID
				err := iter.Item().Value(func(val []byte) error {
					var err error
					id, err = storage.UnmarshalID(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}
				matches[id]++
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]core.ID, 0, len(matches))
	for id := range matches {
		ids = append(ids, id)
	}

	records, err := r.GetRecords(ctx, ids...)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(records))
	for _, record := range records {
		if !filters.Match(record) {
			continue
		}
		results = append(results, &core.SearchResult{
			Record: record,
			Score:  float32(matches[record.Id]) / float32(len(tokens)),
		})
	}

	sortResultsByScore(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// PendingEmbedding retrieves up to limit records without embedding vectors.
func (r *ReferenceRepository) PendingEmbedding(ctx context.Context, limit int) ([]*core.ReferenceRecord, error) {
	var records []*core.ReferenceRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(records) < limit; iter.Next() {
			var record *core.ReferenceRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil && len(record.Vector) == 0 {
				records = append(records, record)
			}
		}
		return nil
	}, false)

	return records, err
}

// readRecord reads a record by key within a transaction.
// Returns nil, nil when the key does not exist.
func (r *ReferenceRepository) readRecord(tx *badger.Txn, key []byte) (*core.ReferenceRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ReferenceRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalRecord(val)
		return err
	})
	return record, err
}

// indexWords writes keyword index entries for the record's title and contents.
func (r *ReferenceRepository) indexWords(tx *badger.Txn, record *core.ReferenceRecord) error {
	for _, token := range indexTokens(record) {
		if err := tx.Set(makeWordKey(token, record.Id), storage.MarshalID(record.Id)); err != nil {
			return err
		}
	}
	return nil
}

// unindexWords removes keyword index entries for the record.
func (r *ReferenceRepository) unindexWords(tx *badger.Txn, record *core.ReferenceRecord) error {
	for _, token := range indexTokens(record) {
		if err := tx.Delete(makeWordKey(token, record.Id)); err != nil {
			return err
		}
	}
	return nil
}

// indexTokens returns the deduplicated token set for a record.
func indexTokens(record *core.ReferenceRecord) []string {
	tokens := core.Tokenize(record.Title + " " + record.Contents + " " + record.Location)
	seen := make(map[string]bool, len(tokens))
	unique := tokens[:0]
	for _, token := range tokens {
		if !seen[token] {
			seen[token] = true
			unique = append(unique, token)
		}
	}
	return unique
}
