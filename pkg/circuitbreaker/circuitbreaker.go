// Package circuitbreaker wraps sony/gobreaker with the per-upstream
// registry and state-change listener shape the Edge Gateway uses to
// isolate failing upstreams.
package circuitbreaker

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// State mirrors gobreaker.State with names matching the domain vocabulary
// (CLOSED, OPEN, HALF_OPEN) instead of gobreaker's.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
	StateUnknown  State = "UNKNOWN"
)

func convertState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateUnknown
	}
}

// Counts mirrors gobreaker.Counts.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func convertCounts(c gobreaker.Counts) Counts {
	return Counts{
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}

// StateChangeEvent describes one upstream's transition, reported to any
// registered Listener for observability.
type StateChangeEvent struct {
	UpstreamName string
	FromState    State
	ToState      State
	Counts       Counts
}

// Listener receives every circuit-breaker state transition across every
// registered upstream.
type Listener interface {
	OnCircuitBreakerStateChange(event StateChangeEvent)
}

// Registry holds one gobreaker instance per upstream name, lazily created
// with the shared failure policy: consecutive failures >= failMax trips
// the breaker; it resets to half-open after resetTimeout.
type Registry struct {
	failMax      uint32
	resetTimeout time.Duration
	listener     Listener

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewRegistry builds a Registry. listener may be nil.
func NewRegistry(failMax uint32, resetTimeout time.Duration, listener Listener) *Registry {
	return &Registry{
		failMax:      failMax,
		resetTimeout: resetTimeout,
		listener:     listener,
		breakers:     make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (r *Registry) breakerFor(upstream string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[upstream]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        upstream,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     r.resetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.failMax
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if r.listener == nil {
				return
			}

			r.listener.OnCircuitBreakerStateChange(StateChangeEvent{
				UpstreamName: name,
				FromState:    convertState(from),
				ToState:      convertState(to),
			})
		},
	})

	r.breakers[upstream] = cb

	return cb
}

// Execute runs fn through the named upstream's breaker. When the breaker
// is OPEN, fn is never called and gobreaker.ErrOpenState is returned so
// callers can short-circuit with the standardized 503 envelope without
// contacting the upstream.
func (r *Registry) Execute(ctx context.Context, upstream string, fn func(ctx context.Context) error) error {
	cb := r.breakerFor(upstream)

	_, err := cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})

	return err
}

// State returns the current state and counters for upstream, creating its
// breaker if it does not yet exist.
func (r *Registry) State(upstream string) (State, Counts) {
	cb := r.breakerFor(upstream)
	counts := cb.Counts()

	return convertState(cb.State()), convertCounts(counts)
}

// IsOpenError reports whether err came from a breaker in the OPEN state.
func IsOpenError(err error) bool {
	return err == gobreaker.ErrOpenState
}
