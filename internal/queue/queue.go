package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/lightflow-io/lightflow/internal/rconn"
	"github.com/redis/go-redis/v9"
)

// Queue pushes and pops gob-encoded job envelopes onto Redis lists.
type Queue struct {
	client *redis.Client
}

// New creates a Queue backed by client.
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Enqueue appends a job envelope to the tail of queueKey.
func (q *Queue) Enqueue(ctx context.Context, queueKey string, jobType JobType, jobID, workflowID string, payload any) error {
	if err := rconn.EnsureConnected(ctx, q.client); err != nil {
		return err
	}
	raw, err := encodeEnvelope(jobType, jobID, workflowID, payload)
	if err != nil {
		return fmt.Errorf("queue: encode job: %w", err)
	}
	if err := q.client.RPush(ctx, queueKey, raw).Err(); err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return nil
}

// Len returns the number of jobs currently waiting on queueKey.
func (q *Queue) Len(ctx context.Context, queueKey string) (int64, error) {
	if err := rconn.EnsureConnected(ctx, q.client); err != nil {
		return 0, err
	}
	n, err := q.client.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: len: %w", err)
	}
	return n, nil
}

// Dequeue blocks up to timeout for a job to arrive on any of queueKeys,
// popping from the head (FIFO with Enqueue's tail-push). It returns a nil
// Job, nil error on timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration, queueKeys ...string) (*Job, error) {
	if err := rconn.EnsureConnected(ctx, q.client); err != nil {
		return nil, err
	}

	res, err := q.client.BLPop(ctx, timeout, queueKeys...).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue: dequeue: %w", err)
	}

	e, err := decodeEnvelope([]byte(res[1]))
	if err != nil {
		return nil, fmt.Errorf("queue: decode job: %w", err)
	}
	return &Job{Type: e.Type, JobID: e.JobID, WorkflowID: e.WorkflowID, raw: e.Payload}, nil
}
