// Package file stores checkpoints as JSON files on local disk.
//
// The live checkpoint is always replaced by writing a temporary file in the
// same directory, syncing it and renaming it over the old one, so a crash
// mid-write leaves the previous checkpoint intact. Before each replacement
// the outgoing checkpoint is kept as <path>.<sequence>; only the newest
// KeepGenerations of those are retained.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/storage"
)

// DefaultKeepGenerations is used when Config.KeepGenerations is zero.
const DefaultKeepGenerations = 3

// Config holds file store configuration.
type Config struct {
	Path            string
	KeepGenerations int
}

// Store implements storage.CheckpointRepository on the local filesystem.
type Store struct {
	path    string
	keep    int
	mu      sync.Mutex
	lastSeq uint64
	logger  *slog.Logger
}

var _ storage.CheckpointRepository = (*Store)(nil)

// NewStore creates a file store. The parent directory is created if needed.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("checkpoint path is required")
	}
	keep := cfg.KeepGenerations
	if keep == 0 {
		keep = DefaultKeepGenerations
	}
	if keep < 0 {
		keep = 0
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &Store{
		path:   cfg.Path,
		keep:   keep,
		logger: slog.Default().With("component", "checkpoint-file"),
	}, nil
}

// Path returns the live checkpoint path.
func (s *Store) Path() string {
	return s.path
}

// Save writes cp atomically.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := s.writeTemp(data)
	if err != nil {
		return err
	}

	if s.keep > 0 {
		if err := s.preserveCurrent(); err != nil {
			s.logger.Warn("Failed to keep previous checkpoint generation", "error", err)
		}
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	syncDir(filepath.Dir(s.path))
	s.lastSeq = cp.Sequence

	if err := s.prune(); err != nil {
		s.logger.Warn("Failed to prune checkpoint generations", "error", err)
	}
	return nil
}

func (s *Store) writeTemp(data []byte) (string, error) {
	dir, base := filepath.Split(s.path)
	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp checkpoint: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("sync temp checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp checkpoint: %w", err)
	}
	return name, nil
}

// preserveCurrent keeps the live checkpoint as a numbered generation.
func (s *Store) preserveCurrent() error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	seq := s.lastSeq
	if seq == 0 {
		cp, err := readFile(s.path)
		if err != nil {
			return err
		}
		seq = cp.Sequence
	}

	gen := s.generationPath(seq)
	if err := os.Link(s.path, gen); err == nil || errors.Is(err, os.ErrExist) {
		return nil
	}
	return copyFile(s.path, gen)
}

func (s *Store) generationPath(seq uint64) string {
	return fmt.Sprintf("%s.%d", s.path, seq)
}

// generations returns the retained generation sequences, newest first.
func (s *Store) generations() ([]uint64, error) {
	matches, err := filepath.Glob(s.path + ".*")
	if err != nil {
		return nil, err
	}
	var seqs []uint64
	for _, m := range matches {
		suffix := strings.TrimPrefix(m, s.path+".")
		seq, err := strconv.ParseUint(suffix, 10, 64)
		if err != nil {
			continue
		}
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] > seqs[j] })
	return seqs, nil
}

func (s *Store) prune() error {
	seqs, err := s.generations()
	if err != nil {
		return err
	}
	for i, seq := range seqs {
		if i < s.keep {
			continue
		}
		if err := os.Remove(s.generationPath(seq)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load returns the live checkpoint. If it is missing or unreadable the
// newest readable generation is returned instead.
func (s *Store) Load(ctx context.Context) (*domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp, liveErr := readFile(s.path)
	if liveErr == nil {
		return s.accept(cp)
	}
	if errors.Is(liveErr, storage.ErrIncompatibleCheckpoint) {
		return nil, liveErr
	}

	seqs, err := s.generations()
	if err != nil {
		return nil, fmt.Errorf("list checkpoint generations: %w", err)
	}
	for _, seq := range seqs {
		cp, err := readFile(s.generationPath(seq))
		if err != nil {
			s.logger.Warn("Skipping unreadable checkpoint generation", "sequence", seq, "error", err)
			continue
		}
		if !errors.Is(liveErr, os.ErrNotExist) {
			s.logger.Warn("Live checkpoint unreadable, using previous generation",
				"sequence", seq,
				"error", liveErr,
			)
		}
		return s.accept(cp)
	}

	if errors.Is(liveErr, os.ErrNotExist) {
		return nil, nil
	}
	return nil, liveErr
}

func (s *Store) accept(cp *domain.Checkpoint) (*domain.Checkpoint, error) {
	if cp.Sequence > s.lastSeq {
		s.lastSeq = cp.Sequence
	}
	return cp, nil
}

// Reset removes the live checkpoint, its generations and leftover temp files.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(s.path + ".*")
	if err != nil {
		return err
	}
	matches = append(matches, s.path)
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", m, err)
		}
	}
	s.lastSeq = 0
	return nil
}

func readFile(path string) (*domain.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", storage.ErrCorruptCheckpoint, filepath.Base(path), err)
	}
	if !cp.IsCompatible() {
		return nil, fmt.Errorf("%w: version %d", storage.ErrIncompatibleCheckpoint, cp.Version)
	}
	return &cp, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
