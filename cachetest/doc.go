// Package cachetest provides reusable store contract tests for policycache.Store implementations.
//
// Custom drivers can use this package from their own tests without importing root test helpers.
//
// Example pattern:
//
//	func TestRedisStoreContract(t *testing.T) {
//		client := newTestRedisClient(t)
//		store := policycache.NewRedisStore(ctx, client, policycache.WithPrefix("test"))
//		cachetest.RunStoreContract(t, store, cachetest.Options{CaseName: t.Name()})
//	}
//
// Example factory/cleanup wrapper:
//
//	func runContractWithFactory(t *testing.T, mk func(t *testing.T) (policycache.Store, func())) {
//		t.Helper()
//		store, cleanup := mk(t)
//		t.Cleanup(cleanup)
//		cachetest.RunStoreContract(t, store, cachetest.Options{CaseName: t.Name()})
//	}
package cachetest
