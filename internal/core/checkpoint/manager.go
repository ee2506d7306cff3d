// Package checkpoint sequences and persists scheduler snapshots.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/storage"
)

// Store is the persistence contract every checkpoint backend implements.
type Store = storage.CheckpointRepository

// ErrStale is returned by Save when a newer checkpoint was already persisted.
var ErrStale = errors.New("checkpoint is older than the last persisted one")

// Info summarises the last persisted checkpoint.
type Info struct {
	Sequence  uint64          `json:"sequence"`
	RunID     string          `json:"run_id"`
	SavedAt   time.Time       `json:"saved_at"`
	Counters  domain.Counters `json:"counters"`
	Pending   int             `json:"pending"`
	InFlight  int             `json:"in_flight"`
	Results   int             `json:"results"`
	Duration  time.Duration   `json:"duration_ns"`
	LastError string          `json:"last_error,omitempty"`
}

// Manager assigns monotonically increasing sequence numbers and serialises
// writes to the store. Snapshots that arrive out of order are dropped so the
// store never goes backwards.
type Manager struct {
	store Store
	runID string

	seqMu sync.Mutex
	seq   uint64

	saveMu    sync.Mutex
	persisted uint64
	info      Info

	onSave func(Info, error)
	logger *slog.Logger
}

// NewManager creates a manager writing to store under runID.
func NewManager(store Store, runID string) *Manager {
	return &Manager{
		store:  store,
		runID:  runID,
		logger: slog.Default().With("component", "checkpoint"),
	}
}

// SetSaveCallback registers fn to run after every save attempt.
func (m *Manager) SetSaveCallback(fn func(Info, error)) {
	m.saveMu.Lock()
	m.onSave = fn
	m.saveMu.Unlock()
}

// RunID returns the identifier stamped on checkpoints of this run.
func (m *Manager) RunID() string {
	return m.runID
}

// Load reads the latest checkpoint and continues its sequence. It returns
// nil when the store is empty.
func (m *Manager) Load(ctx context.Context) (*domain.Checkpoint, error) {
	cp, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if cp == nil {
		return nil, nil
	}
	if !cp.IsCompatible() {
		return nil, fmt.Errorf("%w: version %d", storage.ErrIncompatibleCheckpoint, cp.Version)
	}

	m.seqMu.Lock()
	if cp.Sequence > m.seq {
		m.seq = cp.Sequence
	}
	m.seqMu.Unlock()

	m.saveMu.Lock()
	if cp.Sequence > m.persisted {
		m.persisted = cp.Sequence
		m.info = infoOf(cp)
		m.info.SavedAt = cp.CreatedAt
	}
	m.saveMu.Unlock()

	m.logger.Info("Loaded checkpoint",
		"sequence", cp.Sequence,
		"run_id", cp.RunID,
		"pending", len(cp.Pending),
		"in_flight", len(cp.InFlight),
		"results", len(cp.Results),
	)
	return cp, nil
}

// Stamp assigns the next sequence number and header fields to cp. Call it
// at the moment the snapshot is taken so sequence order matches state order.
func (m *Manager) Stamp(cp *domain.Checkpoint) {
	m.seqMu.Lock()
	m.seq++
	cp.Sequence = m.seq
	m.seqMu.Unlock()

	cp.Version = domain.CheckpointVersion
	cp.RunID = m.runID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
}

// Save persists cp, stamping it first if it has no sequence. A snapshot
// older than the last persisted one is skipped with ErrStale.
func (m *Manager) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if cp.Sequence == 0 {
		m.Stamp(cp)
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	if cp.Sequence <= m.persisted {
		m.logger.Debug("Skipping stale checkpoint",
			"sequence", cp.Sequence,
			"persisted", m.persisted,
		)
		return ErrStale
	}

	start := time.Now()
	err := m.store.Save(ctx, cp)
	elapsed := time.Since(start)

	if err != nil {
		m.info.LastError = err.Error()
		m.logger.Error("Checkpoint save failed", "sequence", cp.Sequence, "error", err)
		if m.onSave != nil {
			m.onSave(m.info, err)
		}
		return fmt.Errorf("save checkpoint %d: %w", cp.Sequence, err)
	}

	m.persisted = cp.Sequence
	m.info = infoOf(cp)
	m.info.SavedAt = time.Now().UTC()
	m.info.Duration = elapsed

	m.logger.Debug("Checkpoint saved",
		"sequence", cp.Sequence,
		"pending", m.info.Pending,
		"results", m.info.Results,
		"duration", elapsed,
	)
	if m.onSave != nil {
		m.onSave(m.info, nil)
	}
	return nil
}

// Reset removes every stored checkpoint and restarts the sequence.
func (m *Manager) Reset(ctx context.Context) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	if err := m.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset checkpoints: %w", err)
	}
	m.seqMu.Lock()
	m.seq = 0
	m.seqMu.Unlock()
	m.persisted = 0
	m.info = Info{}
	return nil
}

// Last returns a summary of the last persisted checkpoint.
func (m *Manager) Last() Info {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	return m.info
}

func infoOf(cp *domain.Checkpoint) Info {
	return Info{
		Sequence: cp.Sequence,
		RunID:    cp.RunID,
		Counters: cp.Counters,
		Pending:  len(cp.Pending),
		InFlight: len(cp.InFlight),
		Results:  len(cp.Results),
	}
}
