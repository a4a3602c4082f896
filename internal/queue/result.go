package queue

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/lightflow-io/lightflow/internal/rconn"
	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "lightflow:queue:result:"
const resultTTL = time.Minute

// TaskResult is what a task job publishes back to its dispatcher:
// the task's action on success, or a message describing why it failed.
// An empty ErrMsg means success.
type TaskResult struct {
	Action *taskaction.Action
	ErrMsg string
}

// DagResult is what a dag job publishes back to its runner.
type DagResult struct {
	Status string // scheduler.Status.String()
	ErrMsg string
}

// WorkflowResult is what a workflow job publishes back to whatever is
// awaiting its completion (chiefly tests — a real deployment fires workflow
// jobs and does not wait on them synchronously).
type WorkflowResult struct {
	ErrMsg string
}

func resultKey(jobID string) string {
	return resultKeyPrefix + jobID
}

// PublishResult gob-encodes result and pushes it to jobID's result list,
// with a short expiry so an uncollected result does not linger forever.
func PublishResult(ctx context.Context, client *redis.Client, jobID string, result any) error {
	if err := rconn.EnsureConnected(ctx, client); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(result); err != nil {
		return fmt.Errorf("queue: encode result: %w", err)
	}

	key := resultKey(jobID)
	pipe := client.TxPipeline()
	pipe.RPush(ctx, key, buf.Bytes())
	pipe.Expire(ctx, key, resultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue: publish result: %w", err)
	}
	return nil
}

// AwaitResult blocks up to timeout for jobID's result and decodes it into
// target, which must be a pointer to the exact type PublishResult was
// called with.
func AwaitResult(ctx context.Context, client *redis.Client, jobID string, timeout time.Duration, target any) error {
	if err := rconn.EnsureConnected(ctx, client); err != nil {
		return err
	}

	res, err := client.BLPop(ctx, timeout, resultKey(jobID)).Result()
	if err == redis.Nil {
		return lferrors.ErrQueueResultTimeout
	}
	if err != nil {
		return fmt.Errorf("queue: await result: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader([]byte(res[1]))).Decode(target); err != nil {
		return fmt.Errorf("queue: decode result: %w", err)
	}
	return nil
}
