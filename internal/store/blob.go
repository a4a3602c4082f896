package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/redis/go-redis/v9"
)

const blobKeyPrefix = "lightflow:blob:"

// init registers the composite shapes a decoded JSON value or a task data
// bundle can arrive in, so gob can round-trip them through a blob without
// the caller's concrete type being known in advance at decode time. A
// caller storing its own named struct as a data-section value must
// gob.Register it the same way.
func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// putBlob gob-encodes value and stores it under a freshly generated blob
// key, returning the handle (without the "b:" field-value marker).
func putBlob(ctx context.Context, client *redis.Client, value any) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&value); err != nil {
		return "", fmt.Errorf("store: encode blob: %w", err)
	}

	handle := blobKeyPrefix + uuid.NewString()
	if err := client.Set(ctx, handle, buf.Bytes(), 0).Err(); err != nil {
		return "", fmt.Errorf("store: write blob: %w", err)
	}
	return handle, nil
}

// getBlob fetches and gob-decodes the value stored under handle.
func getBlob(ctx context.Context, client *redis.Client, handle string) (any, error) {
	raw, err := client.Get(ctx, handle).Bytes()
	if err == redis.Nil {
		return nil, lferrors.ErrStoreUnknownHandle
	}
	if err != nil {
		return nil, fmt.Errorf("store: read blob: %w", err)
	}

	var value any
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&value); err != nil {
		return nil, fmt.Errorf("store: decode blob: %w", err)
	}
	return value, nil
}

// deleteBlobIfHandle removes the blob fieldValue points to, if it is in
// fact a blob handle ("b:" prefixed) rather than an inline JSON value.
// Errors are deliberately swallowed: a stale or already-deleted blob key
// must not block the field overwrite it is cleaning up after.
func deleteBlobIfHandle(ctx context.Context, client *redis.Client, fieldValue string) {
	if !strings.HasPrefix(fieldValue, "b:") {
		return
	}
	client.Del(ctx, strings.TrimPrefix(fieldValue, "b:"))
}
