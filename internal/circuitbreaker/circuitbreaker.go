// Package circuitbreaker adapts github.com/sony/gobreaker/v2 with the
// project's own sensible defaults and a thin generic constructor, so call
// sites configure a breaker by name instead of repeating gobreaker.Settings
// boilerplate.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker is a type alias so callers never need to import gobreaker
// directly.
type CircuitBreaker[T any] = gobreaker.CircuitBreaker[T]

// State is a type alias for gobreaker.State.
type State = gobreaker.State

// Counts is a type alias for gobreaker.Counts.
type Counts = gobreaker.Counts

// StateOpen mirrors gobreaker.StateOpen, re-exported so callers never need
// to import gobreaker directly just to compare breaker states.
const StateOpen = gobreaker.StateOpen

// ErrOpenState mirrors gobreaker.ErrOpenState, the error Execute returns
// while the breaker is tripped.
var ErrOpenState = gobreaker.ErrOpenState

// DefaultConfig returns gobreaker settings with a fixed one-minute
// failure-counting window: Counts resets every Interval while the breaker
// is closed, so ReadyToTrip sees "failures in the last minute" rather than
// a lifetime total. ReadyToTrip trips past 100 total failures in that
// window; Timeout (how long the breaker stays open before a half-open
// trial) matches the window.
func DefaultConfig(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures > 100
		},
	}
}

// New constructs a breaker for the given settings.
func New[T any](cfg gobreaker.Settings) *CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](cfg)
}
