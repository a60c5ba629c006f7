// Package store implements the SIKILAT record store: one serialized
// collection per entity type, kept under a namespaced key in a durable
// key-value backend. Collections are read and written whole; the last
// writer wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownEntity is returned for a collection name outside the schema.
var ErrUnknownEntity = errors.New("unknown entity type")

// KV is the durable backend contract. Implementations must be safe for use
// from a single goroutine; the store does not add locking.
type KV interface {
	// Get returns the value for key, reporting ok=false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Close releases the backend.
	Close() error
}

// Store is the keyed persistence layer. Construct one at process start and
// pass it by reference to every consumer.
type Store struct {
	kv KV
}

// New wraps a KV backend in a Store.
func New(kv KV) *Store { return &Store{kv: kv} }

// Close releases the underlying backend.
func (s *Store) Close() error { return s.kv.Close() }

// Initialize seeds every collection that has no stored value yet with the
// built-in demo dataset. Populated collections are left untouched, so the
// call is idempotent and safe to run on every start.
func (s *Store) Initialize(ctx context.Context) error {
	for _, e := range Entities {
		_, ok, err := s.kv.Get(ctx, e.storageKey())
		if err != nil {
			return fmt.Errorf("checking collection %s: %w", e, err)
		}
		if ok {
			continue
		}
		if err := s.PutCollection(ctx, e, seedCollection(e)); err != nil {
			return fmt.Errorf("seeding collection %s: %w", e, err)
		}
	}
	return nil
}

// GetCollection reads and deserializes the full collection for e. A missing
// collection yields an empty slice, not an error. Serialized timestamps in
// known date fields are rewritten into time.Time values.
func (s *Store) GetCollection(ctx context.Context, e Entity) ([]Record, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, e)
	}
	raw, ok, err := s.kv.Get(ctx, e.storageKey())
	if err != nil {
		return nil, fmt.Errorf("reading collection %s: %w", e, err)
	}
	if !ok {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decoding collection %s: %w", e, err)
	}
	for _, r := range records {
		coerceDates(e, r)
	}
	return records, nil
}

// PutCollection serializes records and overwrites the stored collection for
// e. There are no partial writes and no concurrency check.
func (s *Store) PutCollection(ctx context.Context, e Entity, records []Record) error {
	if !e.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, e)
	}
	if records == nil {
		records = []Record{}
	}
	for _, r := range records {
		normalizeDates(e, r)
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding collection %s: %w", e, err)
	}
	return s.kv.Set(ctx, e.storageKey(), string(raw))
}

// Upsert inserts or replaces a single record in e's collection. A record
// whose key matches an existing one replaces it in place, preserving its
// position; a new key is prepended so the collection stays
// most-recent-first. Keyless records are always prepended. Returns the
// record's key, or "" for a keyless record.
func (s *Store) Upsert(ctx context.Context, e Entity, rec Record) (string, error) {
	records, err := s.GetCollection(ctx, e)
	if err != nil {
		return "", err
	}

	key, keyed := RecordKey(rec)
	replaced := false
	if keyed {
		for i, existing := range records {
			if k, ok := RecordKey(existing); ok && k == key {
				records[i] = rec
				replaced = true
				break
			}
		}
	}
	if !replaced {
		records = append([]Record{rec}, records...)
	}

	if err := s.PutCollection(ctx, e, records); err != nil {
		return "", err
	}
	return key, nil
}

// FindByKey returns the record in e's collection with the given key.
func (s *Store) FindByKey(ctx context.Context, e Entity, key string) (Record, error) {
	records, err := s.GetCollection(ctx, e)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if k, ok := RecordKey(r); ok && k == key {
			return r, nil
		}
	}
	return nil, ErrNotFound
}
