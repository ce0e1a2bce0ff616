package policycache

import "time"

// Metadata describes a cached value.
type Metadata struct {
	// LastUpdatedAt is stamped when the refresh that produced the value settled.
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// Clock provides the time used to stamp Metadata.
// The default implementation uses time.Now().
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return realClock{}
	}
	return c
}
