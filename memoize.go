package policycache

import "context"

// MemoizeConfig configures Memoize.
type MemoizeConfig[T any] struct {
	Refresh       func(ctx context.Context, args ...any) (T, error)
	UpdatePolicy  UpdatePolicyFunc[T]
	PendingPolicy PendingPolicyFunc[T]
	Observer      Observer
	Clock         Clock
}

// Memoize wraps a variadic refresh function. Calls are keyed by the JSON
// encoding of their ordered argument list, so f(ctx, "a", 1) and f(ctx, 1, "a")
// use different entries.
// @group Cache
//
// Example: memoize a function
//
//	lookup, _ := policycache.Memoize(policycache.MemoizeConfig[string]{
//		Refresh: func(ctx context.Context, args ...any) (string, error) {
//			return fmt.Sprint(args...), nil
//		},
//		UpdatePolicy:  policycache.NeverUpdate[string](),
//		PendingPolicy: policycache.AlwaysWait[string](),
//	})
//	v, _ := lookup(context.Background(), "user:", 42)
//	fmt.Println(v) // user:42
func Memoize[T any](cfg MemoizeConfig[T]) (func(ctx context.Context, args ...any) (T, error), error) {
	var refresh RefreshFunc[[]any, T]
	if cfg.Refresh != nil {
		refresh = func(ctx context.Context, args []any) (T, error) {
			return cfg.Refresh(ctx, args...)
		}
	}
	c, err := New(Config[[]any, T]{
		Refresh:       refresh,
		UpdatePolicy:  cfg.UpdatePolicy,
		PendingPolicy: cfg.PendingPolicy,
		KeyFunc:       argsKey,
		Observer:      cfg.Observer,
		Clock:         cfg.Clock,
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, args ...any) (T, error) {
		return c.Get(ctx, args)
	}, nil
}

// argsKey keeps zero-argument calls on one key: a nil slice would encode as null.
func argsKey(args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	return CanonicalKey(args)
}
