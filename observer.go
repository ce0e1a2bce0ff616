package policycache

import (
	"context"
	"time"
)

// Operation names reported to an Observer.
const (
	OpHit        = "hit"
	OpStale      = "stale"
	OpWait       = "wait"
	OpRefresh    = "refresh"
	OpStorageGet = "storage_get"
	OpStorageSet = "storage_set"
)

// Observer receives events for cache operations.
// It is called outside the cache lock after each operation completes.
type Observer interface {
	OnCacheOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration)

// OnCacheOp implements Observer.
func (f ObserverFunc) OnCacheOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration) {
	if f == nil {
		return
	}
	f(ctx, op, key, hit, err, dur)
}

func observe(ctx context.Context, o Observer, op, key string, hit bool, err error, start time.Time) {
	if o == nil {
		return
	}
	o.OnCacheOp(ctx, op, key, hit, err, time.Since(start))
}
