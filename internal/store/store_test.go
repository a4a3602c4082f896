package store

import (
	"context"
	"encoding/gob"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAddCreatesDocumentWithMeta(t *testing.T) {
	rdb := newTestRedis(t)
	s := New(rdb)
	ctx := context.Background()

	workflowID, err := s.Add(ctx, map[string]any{"name": "example", "count": 3})
	require.NoError(t, err)

	exists, err := s.Exists(ctx, workflowID)
	require.NoError(t, err)
	require.True(t, exists)

	doc := s.Document(workflowID)
	name, err := doc.GetMeta("name", nil)
	require.NoError(t, err)
	require.Equal(t, "example", name)
}

func TestDocumentGetSetRoundTripsPlainValues(t *testing.T) {
	rdb := newTestRedis(t)
	doc := New(rdb).Document("wf-1")

	require.NoError(t, doc.Set("count", 42))
	v, err := doc.Get("count", nil)
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	missing, err := doc.Get("absent", "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", missing)
}

func TestDocumentPushAndExtendAccumulateList(t *testing.T) {
	rdb := newTestRedis(t)
	doc := New(rdb).Document("wf-1")

	require.NoError(t, doc.Push("log", "first"))
	require.NoError(t, doc.Extend("log", []any{"second", "third"}))

	v, err := doc.Get("log", nil)
	require.NoError(t, err)
	require.Equal(t, []any{"first", "second", "third"}, v)
}

func TestDocumentSetStoresNonPlainValueAsBlobAndCleansUpOnOverwrite(t *testing.T) {
	rdb := newTestRedis(t)
	doc := New(rdb).Document("wf-1")

	type payload struct {
		Label string
		Value int
	}
	gob.Register(payload{})

	require.NoError(t, doc.Set("result", payload{Label: "x", Value: 7}))

	raw, err := rdb.HGet(context.Background(), documentKey("wf-1"), "data.result").Result()
	require.NoError(t, err)
	require.Equal(t, byte('b'), raw[0])

	got, err := doc.Get("result", nil)
	require.NoError(t, err)
	require.Equal(t, payload{Label: "x", Value: 7}, got)

	blobKeys, err := rdb.Keys(context.Background(), blobKeyPrefix+"*").Result()
	require.NoError(t, err)
	require.Len(t, blobKeys, 1)

	require.NoError(t, doc.Set("result", "overwritten"))
	blobKeysAfter, err := rdb.Keys(context.Background(), blobKeyPrefix+"*").Result()
	require.NoError(t, err)
	require.Empty(t, blobKeysAfter, "overwriting a blob-backed field must delete the stale blob")
}

func TestRemoveDeletesDocumentAndItsBlobs(t *testing.T) {
	rdb := newTestRedis(t)
	s := New(rdb)
	ctx := context.Background()

	workflowID, err := s.Add(ctx, nil)
	require.NoError(t, err)
	doc := s.Document(workflowID)

	type removeTestPayload struct{ Value int }
	gob.Register(removeTestPayload{})
	require.NoError(t, doc.Set("result", removeTestPayload{Value: 1}))

	require.NoError(t, s.Remove(ctx, workflowID))

	exists, err := s.Exists(ctx, workflowID)
	require.NoError(t, err)
	require.False(t, exists)

	blobKeys, err := rdb.Keys(ctx, blobKeyPrefix+"*").Result()
	require.NoError(t, err)
	require.Empty(t, blobKeys)
}
