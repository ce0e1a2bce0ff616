package policycache

import "time"

// UpdatePolicy tells a cache whether a cached value should be refreshed.
type UpdatePolicy string

const (
	Update     UpdatePolicy = "UPDATE"
	DontUpdate UpdatePolicy = "DONT_UPDATE"
)

// PendingPolicy tells a cache whether a caller waits for an in-flight refresh
// or takes the value that is already cached.
type PendingPolicy string

const (
	Stale PendingPolicy = "STALE"
	Wait  PendingPolicy = "WAIT"
)

// UpdatePolicyFunc decides, from the currently cached value and its metadata,
// whether an access starts a refresh.
type UpdatePolicyFunc[T any] func(cached T, meta Metadata) UpdatePolicy

// PendingPolicyFunc decides, from the currently cached value and its metadata,
// whether an access waits for the refresh in flight.
type PendingPolicyFunc[T any] func(cached T, meta Metadata) PendingPolicy

// AlwaysUpdate refreshes on every access.
// @group Policies
func AlwaysUpdate[T any]() UpdatePolicyFunc[T] {
	return func(T, Metadata) UpdatePolicy { return Update }
}

// NeverUpdate keeps the first successful value for the lifetime of the cache.
// @group Policies
func NeverUpdate[T any]() UpdatePolicyFunc[T] {
	return func(T, Metadata) UpdatePolicy { return DontUpdate }
}

// UpdateAfter refreshes once the cached value is older than maxAge.
// A nil clock reads the wall clock.
// @group Policies
//
// Example: refresh values older than a minute
//
//	policy := policycache.UpdateAfter[string](time.Minute, nil)
//	fmt.Println(policy("v", policycache.Metadata{LastUpdatedAt: time.Now()})) // DONT_UPDATE
func UpdateAfter[T any](maxAge time.Duration, clock Clock) UpdatePolicyFunc[T] {
	clock = clockOrDefault(clock)
	return func(_ T, meta Metadata) UpdatePolicy {
		if clock.Now().Sub(meta.LastUpdatedAt) > maxAge {
			return Update
		}
		return DontUpdate
	}
}

// AlwaysWait makes every caller wait for the refresh in flight.
// @group Policies
func AlwaysWait[T any]() PendingPolicyFunc[T] {
	return func(T, Metadata) PendingPolicy { return Wait }
}

// AlwaysStale serves the previous value whenever one exists.
// @group Policies
func AlwaysStale[T any]() PendingPolicyFunc[T] {
	return func(T, Metadata) PendingPolicy { return Stale }
}

// StaleWithin serves the previous value while it is at most maxStale old and
// waits for the refresh otherwise. A nil clock reads the wall clock.
// @group Policies
func StaleWithin[T any](maxStale time.Duration, clock Clock) PendingPolicyFunc[T] {
	clock = clockOrDefault(clock)
	return func(_ T, meta Metadata) PendingPolicy {
		if clock.Now().Sub(meta.LastUpdatedAt) > maxStale {
			return Wait
		}
		return Stale
	}
}
