package policycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goforj/policycache/cachecore"
)

// Item is a value read back from durable storage.
type Item[T any] struct {
	Value    T
	Metadata Metadata
}

// Storage is the durable collaborator of a Stored cache.
type Storage[K any, T JSON] interface {
	// GetItem returns the stored item for key; ok is false when nothing is stored.
	GetItem(ctx context.Context, key K) (item Item[T], ok bool, err error)
	// SetItem persists value and its metadata under key.
	SetItem(ctx context.Context, key K, value T, meta Metadata) error
}

const storedRecordMarker = "pc1"

type storedRecord[T any] struct {
	Marker        string    `json:"m"`
	Value         T         `json:"value"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// StoreStorage persists items as JSON records in a byte-level Store.
type StoreStorage[K any, T JSON] struct {
	store   cachecore.Store
	keyFunc func(K) (string, error)
}

// StoreStorageOption customizes a StoreStorage.
type StoreStorageOption[K any, T JSON] func(*StoreStorage[K, T])

// WithStorageKeyFunc replaces CanonicalKey when mapping keys to store keys.
func WithStorageKeyFunc[K any, T JSON](fn func(K) (string, error)) StoreStorageOption[K, T] {
	return func(s *StoreStorage[K, T]) {
		if fn != nil {
			s.keyFunc = fn
		}
	}
}

// NewStoreStorage adapts store into a Storage.
// @group Storage
//
// Example: file-backed storage
//
//	ctx := context.Background()
//	store := policycache.NewFileStore(ctx, "/tmp/policycache")
//	storage := policycache.NewStoreStorage[string, string](store)
//	_ = storage
func NewStoreStorage[K any, T JSON](store cachecore.Store, opts ...StoreStorageOption[K, T]) *StoreStorage[K, T] {
	s := &StoreStorage[K, T]{
		store:   store,
		keyFunc: canonicalKeyOf[K],
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *StoreStorage[K, T]) Store() cachecore.Store {
	return s.store
}

// GetItem implements Storage.
func (s *StoreStorage[K, T]) GetItem(ctx context.Context, key K) (Item[T], bool, error) {
	storeKey, err := s.keyFunc(key)
	if err != nil {
		return Item[T]{}, false, err
	}
	body, ok, err := s.store.Get(ctx, storeKey)
	if err != nil || !ok {
		return Item[T]{}, false, err
	}
	var rec storedRecord[T]
	if err := json.Unmarshal(body, &rec); err != nil {
		return Item[T]{}, false, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.Marker != storedRecordMarker {
		return Item[T]{}, false, ErrCorruptRecord
	}
	return Item[T]{Value: rec.Value, Metadata: Metadata{LastUpdatedAt: rec.LastUpdatedAt}}, true, nil
}

// SetItem implements Storage.
func (s *StoreStorage[K, T]) SetItem(ctx context.Context, key K, value T, meta Metadata) error {
	storeKey, err := s.keyFunc(key)
	if err != nil {
		return err
	}
	body, err := json.Marshal(storedRecord[T]{
		Marker:        storedRecordMarker,
		Value:         value,
		LastUpdatedAt: meta.LastUpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode stored record: %w", err)
	}
	return s.store.Set(ctx, storeKey, body)
}

var _ Storage[string, string] = (*StoreStorage[string, string])(nil)
