package policycache

import (
	"context"
	"sync"
	"time"
)

// RefreshFunc produces the value for args. It may fail for any reason; the
// error reaches waiting callers unchanged.
type RefreshFunc[A, T any] func(ctx context.Context, args A) (T, error)

// Config configures a Cache.
type Config[A, T any] struct {
	// Refresh produces values. Required.
	Refresh RefreshFunc[A, T]
	// UpdatePolicy decides whether a completed entry is refreshed. Required.
	UpdatePolicy UpdatePolicyFunc[T]
	// PendingPolicy decides whether a caller waits when a previous value exists. Required.
	PendingPolicy PendingPolicyFunc[T]
	// KeyFunc derives entry keys. Defaults to CanonicalKey.
	KeyFunc func(A) (string, error)
	// Observer receives operation events. Optional.
	Observer Observer
	// Clock stamps Metadata. Defaults to the wall clock.
	Clock Clock
}

func (c Config[A, T]) validate() error {
	switch {
	case c.Refresh == nil:
		return ErrNilRefresh
	case c.UpdatePolicy == nil:
		return ErrNilUpdatePolicy
	case c.PendingPolicy == nil:
		return ErrNilPendingPolicy
	}
	return nil
}

// Cache memoizes a refresh function per argument key, runs at most one refresh
// per key at a time, and lets policies choose between fresh and stale values.
//
// Entries are never removed; the cache grows with the number of distinct keys.
// Policies run while the cache lock is held and must not call back into the
// same Cache.
type Cache[A, T any] struct {
	refresh  RefreshFunc[A, T]
	update   UpdatePolicyFunc[T]
	pending  PendingPolicyFunc[T]
	keyFunc  func(A) (string, error)
	observer Observer
	clock    Clock

	mu      sync.Mutex
	entries map[string]entry[T]
}

// New creates a Cache from cfg.
// @group Cache
//
// Example: cache an expensive lookup
//
//	c, _ := policycache.New(policycache.Config[string, int]{
//		Refresh: func(ctx context.Context, name string) (int, error) {
//			return len(name), nil
//		},
//		UpdatePolicy:  policycache.NeverUpdate[int](),
//		PendingPolicy: policycache.AlwaysWait[int](),
//	})
//	n, _ := c.Get(context.Background(), "ada")
//	fmt.Println(n) // 3
func New[A, T any](cfg Config[A, T]) (*Cache[A, T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = canonicalKeyOf[A]
	}
	return &Cache[A, T]{
		refresh:  cfg.Refresh,
		update:   cfg.UpdatePolicy,
		pending:  cfg.PendingPolicy,
		keyFunc:  keyFunc,
		observer: cfg.Observer,
		clock:    clockOrDefault(cfg.Clock),
		entries:  make(map[string]entry[T]),
	}, nil
}

// resolution is the access decision taken under the lock: either a final
// value (flight == nil) or a flight to wait on.
type resolution[T any] struct {
	value  T
	flight *flight[T]
	op     string
}

// Get returns the value for args according to the entry state and the
// configured policies.
//
// A caller that waits and whose ctx ends receives ctx.Err(); the refresh keeps
// running and settles the entry for later callers.
// @group Cache
func (c *Cache[A, T]) Get(ctx context.Context, args A) (T, error) {
	var zero T
	key, err := c.keyFunc(args)
	if err != nil {
		return zero, err
	}
	start := time.Now()
	res := c.resolve(ctx, key, args)
	if res.flight == nil {
		observe(ctx, c.observer, res.op, key, true, nil, start)
		return res.value, nil
	}
	value, err := res.flight.wait(ctx)
	observe(ctx, c.observer, OpWait, key, false, err, start)
	return value, err
}

// State reports the entry state for args, if an entry exists.
// @group Cache
func (c *Cache[A, T]) State(args A) (State, bool) {
	key, err := c.keyFunc(args)
	if err != nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	return e.state(), true
}

func (c *Cache[A, T]) resolve(ctx context.Context, key string, args A) resolution[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := c.entries[key].(type) {
	case *pendingEntry[T]:
		return c.pendingResolution(e.prior, c.pendingDecision(e.prior), e.flight)
	case *completedEntry[T]:
		if c.update(e.current.value, e.current.meta) == DontUpdate {
			return resolution[T]{value: e.current.value, op: OpHit}
		}
		prior := e.current
		decision := c.pendingDecision(&prior)
		f := c.startLocked(ctx, key, args, &prior)
		return c.pendingResolution(&prior, decision, f)
	case *failedEntry[T]:
		// Failed entries always retry; the update policy is not consulted.
		decision := c.pendingDecision(e.prior)
		f := c.startLocked(ctx, key, args, e.prior)
		return c.pendingResolution(e.prior, decision, f)
	default:
		return resolution[T]{flight: c.startLocked(ctx, key, args, nil)}
	}
}

// pendingDecision evaluates the pending policy; without a previous value the
// caller has nothing to fall back to and must wait.
func (c *Cache[A, T]) pendingDecision(prior *snapshot[T]) PendingPolicy {
	if prior == nil {
		return Wait
	}
	return c.pending(prior.value, prior.meta)
}

func (c *Cache[A, T]) pendingResolution(prior *snapshot[T], decision PendingPolicy, f *flight[T]) resolution[T] {
	if prior != nil && decision == Stale {
		return resolution[T]{value: prior.value, op: OpStale}
	}
	return resolution[T]{flight: f}
}

// startLocked installs a pending entry and launches its refresh. c.mu must be held.
func (c *Cache[A, T]) startLocked(ctx context.Context, key string, args A, prior *snapshot[T]) *flight[T] {
	f := newFlight[T]()
	c.entries[key] = &pendingEntry[T]{prior: prior, flight: f}
	go c.run(context.WithoutCancel(ctx), key, args, prior, f)
	return f
}

func (c *Cache[A, T]) run(ctx context.Context, key string, args A, prior *snapshot[T], f *flight[T]) {
	start := time.Now()
	value, err := c.invoke(ctx, args)

	c.mu.Lock()
	if err != nil {
		c.entries[key] = &failedEntry[T]{prior: prior, err: err, flight: f}
	} else {
		c.entries[key] = &completedEntry[T]{
			current: snapshot[T]{value: value, meta: Metadata{LastUpdatedAt: c.clock.Now()}},
			flight:  f,
		}
	}
	f.settle(value, err)
	c.mu.Unlock()

	observe(ctx, c.observer, OpRefresh, key, err == nil, err, start)
}

func (c *Cache[A, T]) invoke(ctx context.Context, args A) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, &PanicError{Value: r}
		}
	}()
	return c.refresh(ctx, args)
}
