package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/storage"
)

// CheckpointStore implements storage.CheckpointRepository using Redis.
// The payload is written under a staging key and then renamed onto the live
// key, so readers see either the old or the new checkpoint.
type CheckpointStore struct {
	client *Client
}

var _ storage.CheckpointRepository = (*CheckpointStore)(nil)

// NewCheckpointStore creates a Redis-backed checkpoint store.
func NewCheckpointStore(client *Client) *CheckpointStore {
	return &CheckpointStore{client: client}
}

// Save writes the checkpoint atomically.
func (s *CheckpointStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	staging := s.client.stagingKey(cp.Sequence)
	_, err = s.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, staging, data, 0)
		pipe.Rename(ctx, staging, s.client.checkpointKey())
		return nil
	})
	if err != nil {
		s.client.rdb.Del(ctx, staging)
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load returns the live checkpoint, or nil if none exists.
func (s *CheckpointStore) Load(ctx context.Context) (*domain.Checkpoint, error) {
	data, err := s.client.rdb.Get(ctx, s.client.checkpointKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrCorruptCheckpoint, err)
	}
	if !cp.IsCompatible() {
		return nil, fmt.Errorf("%w: version %d", storage.ErrIncompatibleCheckpoint, cp.Version)
	}
	return &cp, nil
}

// Reset deletes the live checkpoint.
func (s *CheckpointStore) Reset(ctx context.Context) error {
	if err := s.client.rdb.Del(ctx, s.client.checkpointKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
