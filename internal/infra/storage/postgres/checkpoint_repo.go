package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/storage"
)

const (
	insertCheckpointSQL = `
INSERT INTO checkpoints (sequence, run_id, version, processed, succeeded, failed, retried, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (sequence) DO UPDATE SET
    run_id = EXCLUDED.run_id,
    version = EXCLUDED.version,
    processed = EXCLUDED.processed,
    succeeded = EXCLUDED.succeeded,
    failed = EXCLUDED.failed,
    retried = EXCLUDED.retried,
    payload = EXCLUDED.payload,
    created_at = EXCLUDED.created_at`

	pruneCheckpointsSQL = `
DELETE FROM checkpoints
WHERE sequence NOT IN (SELECT sequence FROM checkpoints ORDER BY sequence DESC LIMIT $1)`

	latestCheckpointSQL = `SELECT payload FROM checkpoints ORDER BY sequence DESC LIMIT 1`

	deleteCheckpointsSQL = `DELETE FROM checkpoints`
)

// CheckpointRepo implements storage.CheckpointRepository using PostgreSQL.
// Each save is one row; the newest Keep rows are retained.
type CheckpointRepo struct {
	db   *DB
	keep int
}

var _ storage.CheckpointRepository = (*CheckpointRepo)(nil)

// NewCheckpointRepo creates a new PostgreSQL checkpoint repository.
func NewCheckpointRepo(db *DB, keep int) *CheckpointRepo {
	if keep < 1 {
		keep = 1
	}
	return &CheckpointRepo{db: db, keep: keep}
}

// Save inserts the checkpoint and prunes old rows in one transaction.
func (r *CheckpointRepo) Save(ctx context.Context, cp *domain.Checkpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertCheckpointSQL,
		int64(cp.Sequence),
		cp.RunID,
		cp.Version,
		cp.Counters.Processed,
		cp.Counters.Succeeded,
		cp.Counters.Failed,
		cp.Counters.Retried,
		payload,
		cp.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	if _, err := tx.ExecContext(ctx, pruneCheckpointsSQL, r.keep); err != nil {
		return fmt.Errorf("failed to prune checkpoints: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Load returns the checkpoint with the highest sequence.
func (r *CheckpointRepo) Load(ctx context.Context) (*domain.Checkpoint, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, latestCheckpointSQL).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrCorruptCheckpoint, err)
	}
	if !cp.IsCompatible() {
		return nil, fmt.Errorf("%w: version %d", storage.ErrIncompatibleCheckpoint, cp.Version)
	}
	return &cp, nil
}

// Reset deletes every checkpoint row.
func (r *CheckpointRepo) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deleteCheckpointsSQL); err != nil {
		return fmt.Errorf("failed to reset checkpoints: %w", err)
	}
	return nil
}
