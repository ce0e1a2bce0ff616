package policycache

// State reports the lifecycle stage of a cache entry.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// snapshot is a successfully produced value together with its metadata.
// A nil *snapshot means no value has been produced yet.
type snapshot[T any] struct {
	value T
	meta  Metadata
}

// entry is the sealed set of per-key states.
type entry[T any] interface {
	state() State
}

type pendingEntry[T any] struct {
	prior  *snapshot[T]
	flight *flight[T]
}

type completedEntry[T any] struct {
	current snapshot[T]
	flight  *flight[T]
}

type failedEntry[T any] struct {
	prior  *snapshot[T]
	err    error
	flight *flight[T]
}

func (*pendingEntry[T]) state() State   { return StatePending }
func (*completedEntry[T]) state() State { return StateCompleted }
func (*failedEntry[T]) state() State    { return StateFailed }
