package storage

import (
	"context"
	"errors"

	"github.com/vietddude/digest/internal/core/domain"
)

var (
	// ErrIncompatibleCheckpoint is returned when a stored checkpoint was
	// written by a newer, incompatible format version.
	ErrIncompatibleCheckpoint = errors.New("checkpoint format version is not supported")

	// ErrCorruptCheckpoint is returned when a stored checkpoint cannot be decoded.
	ErrCorruptCheckpoint = errors.New("checkpoint is corrupt")
)

// CheckpointRepository persists scheduler checkpoints.
type CheckpointRepository interface {
	// Save persists cp atomically: a failed or partial write never
	// replaces the previous checkpoint.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Load returns the most recent valid checkpoint, or nil if none exists.
	Load(ctx context.Context) (*domain.Checkpoint, error)

	// Reset removes every stored checkpoint.
	Reset(ctx context.Context) error
}
