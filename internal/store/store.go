// Package store implements the persistent data store: one document per
// workflow run, holding a "meta" and a "data" section, backed by a Redis
// hash. Dot-path keys become hash field names directly (Redis hash fields
// are plain strings, so "foo.bar" needs no special nested-field handling).
// Primitive and JSON-plain values are stored inline as JSON; anything else
// is gob-encoded into a separate blob key and referenced by a handle, the
// same primitive-vs-blob split the original MongoDB/GridFS backing made.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/lightflow-io/lightflow/internal/rconn"
	"github.com/redis/go-redis/v9"
)

const documentCollectionPrefix = "lightflow:doc:"

// section names a document's two top-level namespaces.
type section string

const (
	sectionMeta section = "meta"
	sectionData section = "data"
)

// Store is the persistent storage for data shared over the life of a
// workflow run: one hash document per run, addressable by its workflow id.
type Store struct {
	client *redis.Client
}

// New creates a Store backed by client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Exists reports whether a document for workflowID has been created.
func (s *Store) Exists(ctx context.Context, workflowID string) (bool, error) {
	if err := rconn.EnsureConnected(ctx, s.client); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, documentKey(workflowID)).Result()
	if err != nil {
		return false, fmt.Errorf("store: exists: %w", err)
	}
	return n > 0, nil
}

// Add creates a new document, seeding its meta section from payload, and
// returns the workflow id assigned to it.
func (s *Store) Add(ctx context.Context, payload map[string]any) (string, error) {
	if err := rconn.EnsureConnected(ctx, s.client); err != nil {
		return "", err
	}
	workflowID := uuid.NewString()
	doc := s.Document(workflowID)
	for key, value := range payload {
		if err := doc.set(ctx, sectionMeta, key, value); err != nil {
			return "", err
		}
	}
	return workflowID, nil
}

// Remove deletes the document for workflowID, along with every blob it
// referenced.
func (s *Store) Remove(ctx context.Context, workflowID string) error {
	if err := rconn.EnsureConnected(ctx, s.client); err != nil {
		return err
	}

	key := documentKey(workflowID)
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("store: remove: %w", err)
	}
	for _, raw := range fields {
		deleteBlobIfHandle(ctx, s.client, raw)
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("store: remove: %w", err)
	}
	return nil
}

// Document returns the document view for workflowID. It does not check
// that the document exists; Get on a missing document behaves as if every
// key were absent.
func (s *Store) Document(workflowID string) *Document {
	return &Document{client: s.client, workflowID: workflowID}
}

func documentKey(workflowID string) string {
	return documentCollectionPrefix + workflowID
}

// Document is a single workflow run's data, split into a "meta" section
// (set once, at creation, from the run's supplied arguments) and a "data"
// section (the task-facing key/value space task.Store exposes).
type Document struct {
	client     *redis.Client
	workflowID string
}

// Get returns the value for a data-section key, or def if absent.
func (d *Document) Get(key string, def any) (any, error) {
	return d.get(context.Background(), sectionData, key, def)
}

// Set stores value under a data-section key, replacing any existing value
// (and deleting the blob it pointed to, if it was one).
func (d *Document) Set(key string, value any) error {
	return d.set(context.Background(), sectionData, key, value)
}

// Push appends value to the list stored under a data-section key,
// treating a missing key as an empty list.
func (d *Document) Push(key string, value any) error {
	ctx := context.Background()
	current, err := d.get(ctx, sectionData, key, []any{})
	if err != nil {
		return err
	}
	list, ok := current.([]any)
	if !ok {
		return fmt.Errorf("store: push %q: %w", key, lferrors.ErrStoreDecodeUnknown)
	}
	return d.set(ctx, sectionData, key, append(list, value))
}

// Extend appends every element of values to the list stored under a
// data-section key, treating a missing key as an empty list.
func (d *Document) Extend(key string, values []any) error {
	ctx := context.Background()
	current, err := d.get(ctx, sectionData, key, []any{})
	if err != nil {
		return err
	}
	list, ok := current.([]any)
	if !ok {
		return fmt.Errorf("store: extend %q: %w", key, lferrors.ErrStoreDecodeUnknown)
	}
	return d.set(ctx, sectionData, key, append(list, values...))
}

// GetMeta returns the value for a meta-section key, or def if absent.
func (d *Document) GetMeta(key string, def any) (any, error) {
	return d.get(context.Background(), sectionMeta, key, def)
}

// SetMeta stores value under a meta-section key.
func (d *Document) SetMeta(key string, value any) error {
	return d.set(context.Background(), sectionMeta, key, value)
}

func (d *Document) get(ctx context.Context, sec section, key string, def any) (any, error) {
	if err := rconn.EnsureConnected(ctx, d.client); err != nil {
		return nil, err
	}

	raw, err := d.client.HGet(ctx, documentKey(d.workflowID), fieldName(sec, key)).Result()
	if err == redis.Nil {
		return def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}
	return decodeValue(ctx, d.client, raw)
}

func (d *Document) set(ctx context.Context, sec section, key string, value any) error {
	if err := rconn.EnsureConnected(ctx, d.client); err != nil {
		return err
	}

	field := fieldName(sec, key)
	docKey := documentKey(d.workflowID)

	if existing, err := d.client.HGet(ctx, docKey, field).Result(); err == nil {
		deleteBlobIfHandle(ctx, d.client, existing)
	}

	encoded, err := encodeValue(ctx, d.client, value)
	if err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	if err := d.client.HSet(ctx, docKey, field, encoded).Err(); err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}

func fieldName(sec section, key string) string {
	return string(sec) + "." + key
}

// isPlainValue reports whether value is composed entirely of JSON-native
// types (the Redis-hash analogue of Mongo's natively-storable primitive
// types), and so can be stored inline instead of as a blob.
func isPlainValue(value any) bool {
	switch v := value.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case []any:
		for _, item := range v {
			if !isPlainValue(item) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, item := range v {
			if !isPlainValue(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func encodeValue(ctx context.Context, client *redis.Client, value any) (string, error) {
	if isPlainValue(value) {
		raw, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return "p:" + string(raw), nil
	}

	handle, err := putBlob(ctx, client, value)
	if err != nil {
		return "", err
	}
	return "b:" + handle, nil
}

func decodeValue(ctx context.Context, client *redis.Client, raw string) (any, error) {
	if len(raw) < 2 {
		return nil, lferrors.ErrStoreDecodeUnknown
	}

	switch raw[:2] {
	case "p:":
		var v any
		if err := json.Unmarshal([]byte(raw[2:]), &v); err != nil {
			return nil, err
		}
		return v, nil
	case "b:":
		return getBlob(ctx, client, raw[2:])
	default:
		return nil, lferrors.ErrStoreDecodeUnknown
	}
}
