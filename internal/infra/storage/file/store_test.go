package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/storage"
)

func newTestStore(t *testing.T, keep int) *Store {
	t.Helper()
	s, err := NewStore(Config{
		Path:            filepath.Join(t.TempDir(), "state", "checkpoint.json"),
		KeepGenerations: keep,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func checkpoint(seq uint64) *domain.Checkpoint {
	return &domain.Checkpoint{
		Version:  domain.CheckpointVersion,
		Sequence: seq,
		RunID:    "run-1",
		Counters: domain.Counters{Processed: int(seq)},
		Pending: []*domain.WorkItem{
			{ID: "abc", URL: "https://example.com", Score: 4.2, Bucket: domain.PriorityLow, RetryCount: 1},
		},
		Results: []domain.ProcessingResult{
			{ItemID: "def", Success: true, Attempts: 1},
		},
	}
}

func TestLoad_Empty(t *testing.T) {
	s := newTestStore(t, 2)

	cp, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp != nil {
		t.Errorf("expected nil checkpoint, got %+v", cp)
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	if err := s.Save(ctx, checkpoint(1)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cp, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp.Sequence != 1 || len(cp.Pending) != 1 || len(cp.Results) != 1 {
		t.Fatalf("unexpected checkpoint %+v", cp)
	}
	item := cp.Pending[0]
	if item.ID != "abc" || item.Score != 4.2 || item.Bucket != domain.PriorityLow || item.RetryCount != 1 {
		t.Errorf("pending item not preserved: %+v", item)
	}

	leftovers, _ := filepath.Glob(s.Path() + ".tmp-*")
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestSave_KeepsGenerations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	for seq := uint64(1); seq <= 5; seq++ {
		if err := s.Save(ctx, checkpoint(seq)); err != nil {
			t.Fatalf("Save %d: %v", seq, err)
		}
	}

	seqs, err := s.generations()
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 2 || seqs[0] != 4 || seqs[1] != 3 {
		t.Errorf("generations = %v, want [4 3]", seqs)
	}

	cp, _ := s.Load(ctx)
	if cp.Sequence != 5 {
		t.Errorf("live sequence = %d, want 5", cp.Sequence)
	}
}

func TestLoad_FallsBackWhenLiveCorrupt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	_ = s.Save(ctx, checkpoint(1))
	_ = s.Save(ctx, checkpoint(2))

	if err := os.WriteFile(s.Path(), []byte(`{"version": 1, "sequence": `), 0o644); err != nil {
		t.Fatal(err)
	}

	cp, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp.Sequence != 1 {
		t.Errorf("expected fallback to generation 1, got %d", cp.Sequence)
	}
}

func TestLoad_CorruptWithoutGenerations(t *testing.T) {
	s := newTestStore(t, -1)
	if err := os.WriteFile(s.Path(), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(context.Background()); !errors.Is(err, storage.ErrCorruptCheckpoint) {
		t.Errorf("expected ErrCorruptCheckpoint, got %v", err)
	}
}

func TestLoad_IgnoresUnknownFields(t *testing.T) {
	s := newTestStore(t, 2)
	data := `{"version": 1, "sequence": 7, "future_field": {"x": 1}, "pending": [], "results": []}`
	if err := os.WriteFile(s.Path(), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cp, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp.Sequence != 7 {
		t.Errorf("sequence = %d, want 7", cp.Sequence)
	}
}

func TestLoad_RejectsNewerVersion(t *testing.T) {
	s := newTestStore(t, 2)
	if err := os.WriteFile(s.Path(), []byte(`{"version": 2, "sequence": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(context.Background()); !errors.Is(err, storage.ErrIncompatibleCheckpoint) {
		t.Errorf("expected ErrIncompatibleCheckpoint, got %v", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)

	for seq := uint64(1); seq <= 3; seq++ {
		_ = s.Save(ctx, checkpoint(seq))
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	cp, err := s.Load(ctx)
	if err != nil || cp != nil {
		t.Errorf("after reset Load = %+v, %v", cp, err)
	}
	matches, _ := filepath.Glob(s.Path() + "*")
	if len(matches) != 0 {
		t.Errorf("files left after reset: %v", matches)
	}
}
