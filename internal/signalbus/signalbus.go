// Package signalbus implements the cooperative messaging layer that lets
// tasks and DAGs ask the workflow driver to start/stop DAGs, stop the whole
// workflow, or wait for other DAGs to finish. Requests and responses are
// correlated by a unique id and carried over two Redis list keys per
// workflow run: a single shared request list the driver polls, and one
// response list per request that the sender blocks on.
package signalbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/lightflow-io/lightflow/internal/rconn"
	"github.com/redis/go-redis/v9"
)

func successOrFailed(resp *Response) error {
	if !resp.Success {
		return lferrors.ErrRequestFailed
	}
	return nil
}

// Request is a message sent from a task, DAG or external caller to the
// workflow driver.
type Request struct {
	UID     string         `json:"uid"`
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Response answers a Request, correlated by UID.
type Response struct {
	UID     string         `json:"uid"`
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload,omitempty"`
}

func requestKey(workflowID string) string {
	return fmt.Sprintf("lightflow:%s", workflowID)
}

func responseKey(uid string) string {
	return fmt.Sprintf("lightflow:resp:%s", uid)
}

// Server is the workflow driver's side of the bus: it polls for incoming
// requests and posts responses (or restores a request for a later poll, for
// handlers like join_dags that cannot yet answer).
type Server struct {
	client     *redis.Client
	workflowID string
}

// NewServer creates a Server scoped to workflowID's request list.
func NewServer(client *redis.Client, workflowID string) *Server {
	return &Server{client: client, workflowID: workflowID}
}

// Receive pops the next pending request without blocking, returning
// (nil, nil) if the list is empty.
func (s *Server) Receive(ctx context.Context) (*Request, error) {
	if err := rconn.EnsureConnected(ctx, s.client); err != nil {
		return nil, err
	}

	raw, err := s.client.LPop(ctx, requestKey(s.workflowID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("signalbus: receive: %w", err)
	}

	var req Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, fmt.Errorf("signalbus: decode request: %w", err)
	}
	return &req, nil
}

// Restore pushes req back onto the front of the request list, so it is the
// next one popped by Receive. Used by handlers (join_dags) that need to
// re-evaluate the same request on a later poll.
func (s *Server) Restore(ctx context.Context, req *Request) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("signalbus: encode request: %w", err)
	}
	if err := s.client.LPush(ctx, requestKey(s.workflowID), raw).Err(); err != nil {
		return fmt.Errorf("signalbus: restore: %w", err)
	}
	return nil
}

// Send delivers resp to whichever Client is waiting for req.UID.
func (s *Server) Send(ctx context.Context, resp *Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("signalbus: encode response: %w", err)
	}
	key := responseKey(resp.UID)
	if err := s.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("signalbus: send: %w", err)
	}
	s.client.Expire(ctx, key, time.Minute)
	return nil
}

// Clear removes the request list for this workflow run, called once the
// workflow terminates.
func (s *Server) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, requestKey(s.workflowID)).Err(); err != nil {
		return fmt.Errorf("signalbus: clear: %w", err)
	}
	return nil
}

// Client is a task or DAG's side of the bus: it sends requests and blocks
// until the correlated response arrives.
type Client struct {
	client     *redis.Client
	workflowID string
	timeout    time.Duration
}

// NewClient creates a Client scoped to workflowID's request list, blocking
// up to timeout for each response (0 means block indefinitely).
func NewClient(client *redis.Client, workflowID string, timeout time.Duration) *Client {
	return &Client{client: client, workflowID: workflowID, timeout: timeout}
}

// Send posts req and blocks for its Response.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req.UID == "" {
		req.UID = uuid.NewString()
	}

	if err := rconn.EnsureConnected(ctx, c.client); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("signalbus: encode request: %w", err)
	}
	if err := c.client.RPush(ctx, requestKey(c.workflowID), raw).Err(); err != nil {
		return nil, fmt.Errorf("signalbus: send: %w", err)
	}

	key := responseKey(req.UID)
	result, err := c.client.BLPop(ctx, c.timeout, key).Result()
	if err != nil {
		return nil, fmt.Errorf("signalbus: await response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(result[1]), &resp); err != nil {
		return nil, fmt.Errorf("signalbus: decode response: %w", err)
	}
	return &resp, nil
}
