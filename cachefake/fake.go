// Package cachefake provides an in-memory Storage with call recording and
// failure injection for tests of code built on policycache.Stored.
package cachefake

import (
	"context"
	"sync"
	"testing"

	"github.com/goforj/policycache"
)

// Op identifies a storage operation for assertions.
type Op string

const (
	OpGet Op = "get"
	OpSet Op = "set"
)

// Storage is a deterministic policycache.Storage backed by a map.
type Storage[K any, T policycache.JSON] struct {
	mu     sync.Mutex
	items  map[string]policycache.Item[T]
	counts map[Op]map[string]int
	errs   map[Op]error
}

// New creates an empty fake storage.
func New[K any, T policycache.JSON]() *Storage[K, T] {
	return &Storage[K, T]{
		items:  make(map[string]policycache.Item[T]),
		counts: make(map[Op]map[string]int),
		errs:   make(map[Op]error),
	}
}

// Seed stores an item directly without recording a call.
func (f *Storage[K, T]) Seed(key K, value T, meta policycache.Metadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[mustKey(key)] = policycache.Item[T]{Value: value, Metadata: meta}
}

// Item returns what is currently stored under key.
func (f *Storage[K, T]) Item(key K) (policycache.Item[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[mustKey(key)]
	return item, ok
}

// FailWith makes every subsequent op call return err. A nil err clears it.
func (f *Storage[K, T]) FailWith(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// GetItem implements policycache.Storage.
func (f *Storage[K, T]) GetItem(_ context.Context, key K) (policycache.Item[T], bool, error) {
	k := mustKey(key)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordLocked(OpGet, k)
	if err := f.errs[OpGet]; err != nil {
		return policycache.Item[T]{}, false, err
	}
	item, ok := f.items[k]
	return item, ok, nil
}

// SetItem implements policycache.Storage.
func (f *Storage[K, T]) SetItem(_ context.Context, key K, value T, meta policycache.Metadata) error {
	k := mustKey(key)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordLocked(OpSet, k)
	if err := f.errs[OpSet]; err != nil {
		return err
	}
	f.items[k] = policycache.Item[T]{Value: value, Metadata: meta}
	return nil
}

// Reset clears recorded counts.
func (f *Storage[K, T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = make(map[Op]map[string]int)
}

// AssertCalled verifies key was touched by op the expected number of times.
func (f *Storage[K, T]) AssertCalled(t *testing.T, op Op, key K, times int) {
	t.Helper()
	if got := f.Count(op, key); got != times {
		t.Fatalf("expected %s %q called %d times, got %d", op, mustKey(key), times, got)
	}
}

// AssertNotCalled ensures key was never touched by op.
func (f *Storage[K, T]) AssertNotCalled(t *testing.T, op Op, key K) {
	t.Helper()
	if got := f.Count(op, key); got != 0 {
		t.Fatalf("expected %s %q not called, got %d", op, mustKey(key), got)
	}
}

// AssertTotal ensures the total call count for an op matches times.
func (f *Storage[K, T]) AssertTotal(t *testing.T, op Op, times int) {
	t.Helper()
	if got := f.Total(op); got != times {
		t.Fatalf("expected %s total=%d, got %d", op, times, got)
	}
}

// Count returns calls for op+key.
func (f *Storage[K, T]) Count(op Op, key K) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[op][mustKey(key)]
}

// Total returns total calls for an op across keys.
func (f *Storage[K, T]) Total(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int
	for _, v := range f.counts[op] {
		sum += v
	}
	return sum
}

func (f *Storage[K, T]) recordLocked(op Op, key string) {
	if f.counts[op] == nil {
		f.counts[op] = make(map[string]int)
	}
	f.counts[op][key]++
}

// mustKey panics on keys that cannot be JSON encoded; fakes are test-only.
func mustKey[K any](key K) string {
	k, err := policycache.CanonicalKey(key)
	if err != nil {
		panic(err)
	}
	return k
}

var _ policycache.Storage[string, string] = (*Storage[string, string])(nil)
