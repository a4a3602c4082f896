package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialPolicyCapsAtMaxInterval(t *testing.T) {
	p := &ExponentialPolicy{
		InitialInterval: 10 * time.Millisecond,
		BackoffFactor:   2.0,
		MaxInterval:     30 * time.Millisecond,
		RetryBudget:     time.Minute,
	}

	intervals := []time.Duration{}
	for i := 0; i < 4; i++ {
		d, err := p.computeNextInterval(i, 0)
		require.NoError(t, err)
		intervals = append(intervals, d)
	}

	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond, 30 * time.Millisecond}, intervals)
}

func TestExponentialPolicyExhaustsBudget(t *testing.T) {
	p := NewExponentialPolicy(time.Millisecond)
	p.RetryBudget = 50 * time.Millisecond

	_, err := p.computeNextInterval(0, 60*time.Millisecond)
	require.ErrorIs(t, err, ErrBudgetExhausted)
}

func TestRetrierNextWaitsAndCancels(t *testing.T) {
	r := NewRetrier(NewExponentialPolicy(5 * time.Millisecond))

	require.NoError(t, r.Next(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Next(ctx)
	require.ErrorIs(t, err, ErrOperationCanceled)
}

func TestRetrierResetClearsState(t *testing.T) {
	policy := NewExponentialPolicy(time.Millisecond)
	policy.RetryBudget = 10 * time.Millisecond
	r := NewRetrier(policy)

	require.NoError(t, r.Next(context.Background()))
	time.Sleep(15 * time.Millisecond)
	require.Error(t, r.Next(context.Background()))

	r.Reset()
	require.NoError(t, r.Next(context.Background()))
}
