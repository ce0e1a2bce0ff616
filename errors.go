package policycache

import (
	"errors"
	"fmt"
)

var (
	ErrNilRefresh       = errors.New("policycache: refresh function is required")
	ErrNilUpdatePolicy  = errors.New("policycache: update policy is required")
	ErrNilPendingPolicy = errors.New("policycache: pending policy is required")
	ErrNilStorage       = errors.New("policycache: storage is required")
	ErrUnsupportedArgs  = errors.New("policycache: arguments cannot be encoded as a cache key")
	ErrCorruptRecord    = errors.New("policycache: stored record is not a policycache record")
)

// PanicError is delivered to waiters when a refresh function panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("policycache: refresh panicked: %v", e.Value)
}
