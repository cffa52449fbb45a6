package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Persisted keys. Each key holds one JSON document written in full on every change.
const (
	KeyTasks          = "tasks"
	KeyProjects       = "projects"
	KeyWorkflows      = "workflows"
	KeyActiveWorkflow = "active-workflow"
)

// ErrKeyNotFound is returned by a KeyValueStore when a key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the durable backing of the engine state.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// loadJSON decodes key into out; found is false when the key is absent.
func loadJSON(ctx context.Context, kv KeyValueStore, key string, out any) (bool, error) {
	data, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, kv KeyValueStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
