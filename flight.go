package policycache

import "context"

// outcome is the settled result of one refresh: err == nil means value is valid.
type outcome[T any] struct {
	value T
	err   error
}

// flight is the shared future of a single refresh. Every caller that decides
// to wait attaches to the same flight.
type flight[T any] struct {
	done   chan struct{}
	result outcome[T]
}

func newFlight[T any]() *flight[T] {
	return &flight[T]{done: make(chan struct{})}
}

// settle must be called exactly once.
func (f *flight[T]) settle(value T, err error) {
	f.result = outcome[T]{value: value, err: err}
	close(f.done)
}

func (f *flight[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result.value, f.result.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
