package policycache

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// StoredConfig configures a Stored cache.
type StoredConfig[K any, T JSON] struct {
	// Refresh produces values when storage has none or the update policy asks for one. Required.
	Refresh RefreshFunc[K, T]
	// UpdatePolicy is applied to in-memory entries and to items read from storage. Required.
	UpdatePolicy UpdatePolicyFunc[T]
	// PendingPolicy decides whether callers wait for in-flight refreshes. Required.
	PendingPolicy PendingPolicyFunc[T]
	// Storage is the durable collaborator. Required.
	Storage Storage[K, T]
	// KeyFunc derives in-memory entry keys. Defaults to CanonicalKey.
	KeyFunc func(K) (string, error)
	// Observer receives cache and storage events. Optional.
	Observer Observer
	// Clock stamps Metadata in memory and on write-back. Defaults to the wall clock.
	Clock Clock
}

// Stored is a Cache whose refresh step consults durable storage before calling
// the refresh function. Storage is authoritative on cold start; the in-memory
// entry is authoritative afterwards.
//
// Only a storage miss writes back. When the update policy rejects a stored item
// the refreshed value is returned and cached in memory but not persisted.
type Stored[K any, T JSON] struct {
	cache    *Cache[K, T]
	storage  Storage[K, T]
	refresh  RefreshFunc[K, T]
	update   UpdatePolicyFunc[T]
	observer Observer
	clock    Clock
	keyFunc  func(K) (string, error)
}

// NewStored creates a storage-backed cache.
// @group Storage
//
// Example: storage-backed cache
//
//	ctx := context.Background()
//	storage := policycache.NewStoreStorage[string, string](policycache.NewMemoryStore(ctx))
//	c, _ := policycache.NewStored(policycache.StoredConfig[string, string]{
//		Refresh: func(ctx context.Context, id string) (string, error) {
//			return "profile:" + id, nil
//		},
//		UpdatePolicy:  policycache.UpdateAfter[string](time.Hour, nil),
//		PendingPolicy: policycache.AlwaysStale[string](),
//		Storage:       storage,
//	})
//	v, _ := c.Get(ctx, "42")
//	fmt.Println(v) // profile:42
func NewStored[K any, T JSON](cfg StoredConfig[K, T]) (*Stored[K, T], error) {
	if cfg.Storage == nil {
		return nil, ErrNilStorage
	}
	if cfg.Refresh == nil {
		return nil, ErrNilRefresh
	}
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = canonicalKeyOf[K]
	}
	s := &Stored[K, T]{
		storage:  cfg.Storage,
		refresh:  cfg.Refresh,
		update:   cfg.UpdatePolicy,
		observer: cfg.Observer,
		clock:    clockOrDefault(cfg.Clock),
		keyFunc:  keyFunc,
	}
	c, err := New(Config[K, T]{
		Refresh:       s.load,
		UpdatePolicy:  cfg.UpdatePolicy,
		PendingPolicy: cfg.PendingPolicy,
		KeyFunc:       keyFunc,
		Observer:      cfg.Observer,
		Clock:         s.clock,
	})
	if err != nil {
		return nil, err
	}
	s.cache = c
	return s, nil
}

// Get returns the value for key.
// @group Storage
func (s *Stored[K, T]) Get(ctx context.Context, key K) (T, error) {
	return s.cache.Get(ctx, key)
}

// GetMany resolves keys concurrently and returns their values in key order.
// The first error is returned once every lookup has finished.
// @group Storage
func (s *Stored[K, T]) GetMany(ctx context.Context, keys ...K) ([]T, error) {
	out := make([]T, len(keys))
	var g errgroup.Group
	for i, key := range keys {
		g.Go(func() error {
			value, err := s.cache.Get(ctx, key)
			if err != nil {
				return err
			}
			out[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// State reports the in-memory entry state for key.
func (s *Stored[K, T]) State(key K) (State, bool) {
	return s.cache.State(key)
}

func (s *Stored[K, T]) load(ctx context.Context, key K) (T, error) {
	var zero T
	observedKey, _ := s.keyFunc(key)

	start := time.Now()
	item, ok, err := s.storage.GetItem(ctx, key)
	observe(ctx, s.observer, OpStorageGet, observedKey, ok, err, start)
	if err != nil {
		return zero, err
	}
	if ok {
		if s.update(item.Value, item.Metadata) == DontUpdate {
			return item.Value, nil
		}
		return s.refresh(ctx, key)
	}

	value, err := s.refresh(ctx, key)
	if err != nil {
		return zero, err
	}
	start = time.Now()
	err = s.storage.SetItem(ctx, key, value, Metadata{LastUpdatedAt: s.clock.Now()})
	observe(ctx, s.observer, OpStorageSet, observedKey, false, err, start)
	if err != nil {
		return zero, err
	}
	return value, nil
}
