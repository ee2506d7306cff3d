package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietddude/digest/internal/core/checkpoint"
	"github.com/vietddude/digest/internal/core/config"
	"github.com/vietddude/digest/internal/core/domain"
	redisclient "github.com/vietddude/digest/internal/infra/redis"
	"github.com/vietddude/digest/internal/infra/storage/file"
	"github.com/vietddude/digest/internal/infra/storage/memory"
	"github.com/vietddude/digest/internal/infra/storage/postgres"
	"github.com/vietddude/digest/internal/scheduling/health"
)

// Backend is the checkpoint store selected by config plus the connections
// behind it.
type Backend struct {
	Store checkpoint.Store
	DB    *postgres.DB
	Redis *redisclient.Client
}

// OpenBackend connects to the configured checkpoint backend.
func OpenBackend(ctx context.Context, cfg *config.AppConfig) (*Backend, error) {
	b := &Backend{}

	switch cfg.Checkpoint.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		b.DB = db
		b.Store = postgres.NewCheckpointRepo(db, cfg.Checkpoint.KeepGenerations)
		slog.Info("Using PostgreSQL checkpoint storage")

	case config.BackendRedis:
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.Redis = client
		b.Store = redisclient.NewCheckpointStore(client)
		slog.Info("Using Redis checkpoint storage")

	case config.BackendMemory:
		b.Store = memory.NewCheckpointStore(cfg.Checkpoint.KeepGenerations)
		slog.Warn("Using memory checkpoint storage, progress is lost on exit")

	default:
		store, err := file.NewStore(file.Config{
			Path:            cfg.Checkpoint.Path,
			KeepGenerations: cfg.Checkpoint.KeepGenerations,
		})
		if err != nil {
			return nil, err
		}
		b.Store = store
		slog.Info("Using file checkpoint storage", "path", store.Path())
	}

	return b, nil
}

// Checkers returns health probes for the open connections.
func (b *Backend) Checkers() map[string]health.Checker {
	checkers := make(map[string]health.Checker)
	if b.DB != nil {
		checkers["postgres"] = b.DB.Health
	}
	if b.Redis != nil {
		checkers["redis"] = b.Redis.Health
	}
	return checkers
}

// Close closes any open connections.
func (b *Backend) Close() error {
	var errs []error
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if b.DB != nil {
		if err := b.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Inspect loads the latest checkpoint without starting a run. It returns
// nil when none exists.
func Inspect(ctx context.Context, cfg *config.AppConfig) (*domain.Checkpoint, error) {
	b, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	cp, err := b.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}

// Reset deletes every stored checkpoint so the next run starts fresh.
func Reset(ctx context.Context, cfg *config.AppConfig) error {
	b, err := OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	return checkpoint.NewManager(b.Store, "").Reset(ctx)
}
