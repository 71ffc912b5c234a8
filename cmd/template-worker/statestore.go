package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain/state"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/worker"
)

const stateKeyPrefix = "graph:state:"

// RedisStateStore implements ports.StateStorage with one JSON document per
// execution under graph:state:<execution id>. The template worker only
// reads state; the write methods serve the rest of the interface.
type RedisStateStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStateStore creates a new Redis state store
func NewRedisStateStore(client *redis.Client, logger *zap.Logger) *RedisStateStore {
	return &RedisStateStore{
		client: client,
		logger: logger,
	}
}

func stateKey(executionID string) string {
	return stateKeyPrefix + executionID
}

// Load loads graph state
func (s *RedisStateStore) Load(ctx context.Context, executionID string) (state.State, error) {
	data, err := s.client.Get(ctx, stateKey(executionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("execution %s: %w", executionID, worker.ErrStateNotFound)
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var st state.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	s.logger.Debug("state loaded",
		zap.String("execution_id", executionID),
		zap.Int("bytes", len(data)),
	)
	return st, nil
}

// Save saves graph state
func (s *RedisStateStore) Save(ctx context.Context, executionID string, st state.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(executionID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Delete deletes graph state
func (s *RedisStateStore) Delete(ctx context.Context, executionID string) error {
	if err := s.client.Del(ctx, stateKey(executionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Exists checks if state exists for an execution
func (s *RedisStateStore) Exists(ctx context.Context, executionID string) (bool, error) {
	n, err := s.client.Exists(ctx, stateKey(executionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return n > 0, nil
}

// SetTTL sets a time-to-live for state data
func (s *RedisStateStore) SetTTL(ctx context.Context, executionID string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, stateKey(executionID), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set TTL: %w", err)
	}
	return nil
}

// List returns all execution IDs that have stored state. It walks the
// keyspace with SCAN so large stores do not block Redis.
func (s *RedisStateStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, stateKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if id := strings.TrimPrefix(iter.Val(), stateKeyPrefix); id != "" {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return ids, nil
}

// SaveState persists graph state keyed by its graph_id or execution_id
func (s *RedisStateStore) SaveState(ctx context.Context, st interface{}) error {
	stateMap, ok := st.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected map[string]interface{}, got %T", st)
	}

	for _, field := range []string{"graph_id", "execution_id"} {
		if id, ok := stateMap[field].(string); ok && id != "" {
			return s.Save(ctx, id, state.State(stateMap))
		}
	}
	return fmt.Errorf("state missing graph_id or execution_id field")
}

// GetState retrieves graph state
func (s *RedisStateStore) GetState(ctx context.Context, graphID string) (interface{}, error) {
	return s.Load(ctx, graphID)
}
