// Package rconn provides the shared Redis connection-with-retry helper used
// by the data store and the signal bus: both need a client that survives a
// dropped connection by reconnecting on an exponential backoff capped at
// 10 seconds, within a 5 minute total budget, rather than failing outright.
package rconn

import (
	"context"
	"fmt"
	"time"

	"github.com/lightflow-io/lightflow/internal/backoff"
	"github.com/redis/go-redis/v9"
)

const initialRetryInterval = 100 * time.Millisecond

// Dial connects to Redis, retrying with backoff.NewExponentialPolicy until
// the ping succeeds, the budget is exhausted, or ctx is canceled.
func Dial(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	retrier := backoff.NewRetrier(backoff.NewExponentialPolicy(initialRetryInterval))

	for {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		} else if waitErr := retrier.Next(ctx); waitErr != nil {
			_ = client.Close()
			return nil, fmt.Errorf("rconn: could not connect: %w", waitErr)
		} else {
			_ = client.Close()
		}
	}
}

// EnsureConnected pings client, reconnecting the underlying connection pool
// on failure by retrying the ping itself with backoff.
func EnsureConnected(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err == nil {
		return nil
	}

	retrier := backoff.NewRetrier(backoff.NewExponentialPolicy(initialRetryInterval))
	for {
		if err := retrier.Next(ctx); err != nil {
			return fmt.Errorf("rconn: reconnect failed: %w", err)
		}
		if err := client.Ping(ctx).Err(); err == nil {
			return nil
		}
	}
}
