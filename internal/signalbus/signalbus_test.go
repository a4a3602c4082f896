package signalbus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestServerReceiveEmptyReturnsNil(t *testing.T) {
	rdb := newTestRedis(t)
	server := NewServer(rdb, "wf-1")

	req, err := server.Receive(context.Background())
	require.NoError(t, err)
	require.Nil(t, req)
}

func TestClientSendServerReceiveAndRespond(t *testing.T) {
	rdb := newTestRedis(t)
	server := NewServer(rdb, "wf-1")
	client := NewClient(rdb, "wf-1", 2*time.Second)

	done := make(chan *Response, 1)
	go func() {
		resp, err := client.Send(context.Background(), &Request{Action: "stop_workflow"})
		require.NoError(t, err)
		done <- resp
	}()

	var req *Request
	require.Eventually(t, func() bool {
		var err error
		req, err = server.Receive(context.Background())
		require.NoError(t, err)
		return req != nil
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, "stop_workflow", req.Action)
	require.NoError(t, server.Send(context.Background(), &Response{UID: req.UID, Success: true}))

	resp := <-done
	require.True(t, resp.Success)
}

func TestServerRestorePutsRequestBackInFront(t *testing.T) {
	rdb := newTestRedis(t)
	server := NewServer(rdb, "wf-1")
	client := NewClient(rdb, "wf-1", 0)

	go func() {
		_, _ = client.Send(context.Background(), &Request{Action: "join_dags"})
	}()

	var req *Request
	require.Eventually(t, func() bool {
		var err error
		req, err = server.Receive(context.Background())
		require.NoError(t, err)
		return req != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, server.Restore(context.Background(), req))

	again, err := server.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, req.UID, again.UID)
}

func TestDagSignalIsStoppedRoundTrip(t *testing.T) {
	rdb := newTestRedis(t)
	server := NewServer(rdb, "wf-1")
	client := NewClient(rdb, "wf-1", 2*time.Second)
	sig := NewDagSignal(context.Background(), client, "mydag")

	go func() {
		for i := 0; i < 5; i++ {
			req, err := server.Receive(context.Background())
			if err == nil && req != nil {
				_ = server.Send(context.Background(), &Response{
					UID:     req.UID,
					Success: true,
					Payload: map[string]any{"is_stopped": true},
				})
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	require.True(t, sig.IsStopped())
}
