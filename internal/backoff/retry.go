// Package backoff implements the exponential-backoff retry loop used to
// reconnect to Redis-backed infrastructure (the data store, the signal
// bus) when the connection drops.
package backoff

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// Inspired by the code from Temporal's retry policy implementation (License: MIT License).
// https://github.com/temporalio/temporal/blob/2a1044994085bffbeeee789cad52ecf2650c501c/common/backoff/retrypolicy.go

// ErrBudgetExhausted is returned once the policy's total elapsed time
// exceeds its budget without a successful reconnection.
var ErrBudgetExhausted = errors.New("backoff: retry budget exhausted")

// ErrOperationCanceled is returned when the retry operation is canceled via context.
var ErrOperationCanceled = errors.New("backoff: operation canceled")

// Retrier manages the state of a retry loop.
type Retrier interface {
	// Next waits for the next retry interval, or returns an error if the
	// retry budget has been exhausted or the context is canceled.
	Next(ctx context.Context) error
	// Reset resets the retrier to its initial state.
	Reset()
}

const (
	defaultBackoffFactor = 2.0
	defaultMaxInterval   = 10 * time.Second
	defaultRetryBudget   = 5 * time.Minute
)

// ExponentialPolicy computes a capped, exponentially increasing interval
// between reconnection attempts, bounded by a total time budget rather than
// a retry count: a flaky connection deserves a fixed amount of patience,
// not a fixed number of tries at whatever interval it happens to reach.
type ExponentialPolicy struct {
	InitialInterval time.Duration
	BackoffFactor   float64
	MaxInterval     time.Duration
	RetryBudget     time.Duration
}

// NewExponentialPolicy creates a policy starting at initialInterval,
// doubling each attempt, capped at 10 seconds, with a 5 minute total
// retry budget.
func NewExponentialPolicy(initialInterval time.Duration) *ExponentialPolicy {
	return &ExponentialPolicy{
		InitialInterval: initialInterval,
		BackoffFactor:   defaultBackoffFactor,
		MaxInterval:     defaultMaxInterval,
		RetryBudget:     defaultRetryBudget,
	}
}

func (p *ExponentialPolicy) computeNextInterval(retryCount int, elapsed time.Duration) (time.Duration, error) {
	if p.RetryBudget > 0 && elapsed >= p.RetryBudget {
		return 0, ErrBudgetExhausted
	}

	interval := float64(p.InitialInterval) * math.Pow(p.BackoffFactor, float64(retryCount))
	if interval > float64(p.MaxInterval) {
		interval = float64(p.MaxInterval)
	}
	return time.Duration(interval), nil
}

// NewRetrier creates a Retrier driven by the given policy.
func NewRetrier(policy *ExponentialPolicy) Retrier {
	return &retrierImpl{policy: policy}
}

type retrierImpl struct {
	policy     *ExponentialPolicy
	retryCount int
	startTime  time.Time
	mu         sync.Mutex
}

func (r *retrierImpl) Next(ctx context.Context) error {
	r.mu.Lock()
	if r.startTime.IsZero() {
		r.startTime = time.Now()
	}
	elapsed := time.Since(r.startTime)

	interval, err := r.policy.computeNextInterval(r.retryCount, elapsed)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.retryCount++
	r.mu.Unlock()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ErrOperationCanceled
	}
}

func (r *retrierImpl) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryCount = 0
	r.startTime = time.Time{}
}
