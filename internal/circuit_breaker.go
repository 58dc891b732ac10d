package internal

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	campus "github.com/lychee-technology/campus"
)

// ErrCircuitOpen is returned while the breaker refuses new transactions.
var ErrCircuitOpen = errors.New("circuit breaker open: database writes temporarily refused")

// CircuitBreaker is a lightweight in-memory circuit breaker.
type CircuitBreaker struct {
	mu           sync.Mutex
	failures     []time.Time
	threshold    int
	window       time.Duration
	openUntil    time.Time
	openDuration time.Duration
	nowFunc      func() time.Time
}

// NewCircuitBreaker creates a configured circuit breaker.
func NewCircuitBreaker(threshold int, window, openDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
		nowFunc:      time.Now,
	}
}

func (cb *CircuitBreaker) withClock(now func() time.Time) *CircuitBreaker {
	cb.nowFunc = now
	return cb
}

// RecordFailure records a failure and opens the breaker once threshold
// failures fall inside the window.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.nowFunc()
	cutoff := now.Add(-cb.window)
	i := 0
	for ; i < len(cb.failures); i++ {
		if cb.failures[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		cb.failures = append([]time.Time{}, cb.failures[i:]...)
	}
	cb.failures = append(cb.failures, now)

	if len(cb.failures) >= cb.threshold {
		cb.openUntil = now.Add(cb.openDuration)
	}
}

// RecordSuccess resets failure history.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
}

// IsOpen returns true if the breaker is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	if cb == nil {
		return false
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.nowFunc().Before(cb.openUntil)
}

// GuardedStore refuses transactions while its breaker is open and feeds
// transaction outcomes back into it. Reads pass straight through.
type GuardedStore struct {
	campus.Store
	breaker *CircuitBreaker
	metrics *MutationMetrics
	name    string
}

// NewGuardedStore wraps store. A nil breaker disables guarding.
func NewGuardedStore(store campus.Store, breaker *CircuitBreaker, metrics *MutationMetrics, name string) *GuardedStore {
	return &GuardedStore{Store: store, breaker: breaker, metrics: metrics, name: name}
}

func (g *GuardedStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx campus.Tx) error) error {
	if g.breaker.IsOpen() {
		g.metrics.BreakerRejected(g.name)
		zap.S().Warnw("transaction refused by open circuit breaker", "store", g.name)
		return ErrCircuitOpen
	}
	err := g.Store.RunInTransaction(ctx, fn)
	switch {
	case err == nil:
		g.breaker.RecordSuccess()
	case errors.Is(err, context.Canceled):
		// caller went away; not a store fault
	default:
		g.breaker.RecordFailure()
	}
	return err
}
