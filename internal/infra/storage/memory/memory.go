package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vietddude/digest/internal/core/domain"
)

// CheckpointStore keeps checkpoints in memory. Saved checkpoints are
// round-tripped through JSON so callers cannot mutate stored state.
type CheckpointStore struct {
	mu      sync.RWMutex
	history [][]byte
	limit   int
}

// NewCheckpointStore creates a store that keeps at most limit checkpoints.
// A limit of zero keeps only the latest.
func NewCheckpointStore(limit int) *CheckpointStore {
	if limit < 1 {
		limit = 1
	}
	return &CheckpointStore{limit: limit}
}

func (s *CheckpointStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, data)
	if len(s.history) > s.limit {
		s.history = s.history[len(s.history)-s.limit:]
	}
	return nil
}

func (s *CheckpointStore) Load(ctx context.Context) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return nil, nil
	}
	var cp domain.Checkpoint
	if err := json.Unmarshal(s.history[len(s.history)-1], &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

func (s *CheckpointStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	return nil
}

// Count returns the number of retained checkpoints.
func (s *CheckpointStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}
