package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/digest/internal/core/checkpoint"
	"github.com/vietddude/digest/internal/core/config"
	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/ratelimit"
	"github.com/vietddude/digest/internal/scheduling/classify"
	"github.com/vietddude/digest/internal/scheduling/emitter"
	"github.com/vietddude/digest/internal/scheduling/health"
	"github.com/vietddude/digest/internal/scheduling/orchestrator"
	"github.com/vietddude/digest/internal/scheduling/priority"
)

// Digest is the main application struct that wires the scheduler to its
// storage, limits, emitters and health endpoints.
type Digest struct {
	cfg          *config.AppConfig
	orch         *orchestrator.Orchestrator
	checkpoints  *checkpoint.Manager
	backend      *Backend
	emit         emitter.Emitter
	healthServer *health.Server
	runID        string
	log          *slog.Logger
}

// NewDigest creates a Digest with all dependencies initialized.
func NewDigest(ctx context.Context, cfg *config.AppConfig, exec orchestrator.Executor) (*Digest, error) {
	// 1. Initialize Storage
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	checkpoints := checkpoint.NewManager(backend.Store, runID)

	// 2. Initialize Emitters
	emit, err := buildEmitter(cfg.Output)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// 3. Initialize Scheduler
	limits := make(map[domain.ErrorCategory]int, len(cfg.RetryLimits))
	for k, v := range cfg.RetryLimits {
		limits[domain.ErrorCategory(k)] = v
	}

	orch, err := orchestrator.New(orchestrator.Config{
		MaxWorkers:         cfg.Scheduler.MaxWorkers,
		TaskTimeout:        cfg.Scheduler.TaskTimeout,
		ShutdownGrace:      cfg.Scheduler.ShutdownGrace,
		CheckpointEvery:    cfg.Scheduler.CheckpointEvery,
		CheckpointInterval: cfg.Scheduler.CheckpointInterval,
		Executor:           exec,
		Resolver:           orchestrator.DomainResolver(cfg.Domains, cfg.DefaultProvider),
		Scorer:             priority.NewScorer(priority.DefaultWeights().Merge(cfg.Priority)),
		Classifier:         classify.NewClassifier(nil),
		Policy: classify.NewRetryPolicy(classify.DefaultRetryLimits().With(limits), classify.BackoffConfig{
			InitialDelay:    cfg.Scheduler.BackoffInitial,
			MaxDelay:        cfg.Scheduler.BackoffMax,
			BackoffMultiple: cfg.Scheduler.BackoffMultiple,
		}),
		Limiter: ratelimit.NewLimiter(ratelimit.Config{
			Default:   ratelimit.Quota{Provider: cfg.DefaultProvider},
			Providers: cfg.Providers,
		}),
		Checkpoints: checkpoints,
		Emitter:     emit,
		Logger:      slog.Default(),
	})
	if err != nil {
		emit.Close()
		backend.Close()
		return nil, err
	}

	// 4. Initialize Health Monitor
	var healthServer *health.Server
	if cfg.Server.Enabled {
		monitor := health.NewMonitor(orch, backend.Checkers(), health.DefaultThresholds, 5*time.Second)
		healthServer = health.NewServer(monitor, cfg.Server.Port)
	}

	return &Digest{
		cfg:          cfg,
		orch:         orch,
		checkpoints:  checkpoints,
		backend:      backend,
		emit:         emit,
		healthServer: healthServer,
		runID:        runID,
		log:          slog.Default().With("component", "digest", "run_id", runID),
	}, nil
}

func buildEmitter(cfg config.OutputConfig) (emitter.Emitter, error) {
	logEmitter := emitter.NewLogEmitter(slog.Default())
	if cfg.ResultsPath == "" {
		return logEmitter, nil
	}
	file, err := emitter.NewFileEmitter(cfg.ResultsPath)
	if err != nil {
		return nil, err
	}
	var sink emitter.Emitter = file
	if cfg.BatchSize > 1 {
		sink = emitter.NewBuffer(file, cfg.BatchSize)
	}
	return emitter.Multi{logEmitter, sink}, nil
}

// Orchestrator exposes the scheduler; used by tests and the status command.
func (d *Digest) Orchestrator() *orchestrator.Orchestrator {
	return d.orch
}

// Run restores the last checkpoint, submits items and processes them until
// the queue drains or ctx is cancelled.
func (d *Digest) Run(ctx context.Context, items []*domain.WorkItem) error {
	if d.backend.Redis != nil {
		if err := d.backend.Redis.AcquireLease(ctx, d.runID, d.cfg.Checkpoint.LeaseTTL); err != nil {
			return fmt.Errorf("failed to acquire run lease: %w", err)
		}
		defer func() {
			if err := d.backend.Redis.ReleaseLease(context.Background(), d.runID); err != nil {
				d.log.Warn("Failed to release run lease", "error", err)
			}
		}()
	}

	cp, err := d.checkpoints.Load(ctx)
	if err != nil {
		return err
	}
	if cp != nil {
		d.orch.Restore(cp)
	}
	d.orch.Submit(items)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer stop()
		return d.orch.Run(gctx)
	})

	if d.healthServer != nil {
		g.Go(d.healthServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return d.healthServer.Stop(shutdownCtx)
		})
	}

	if d.backend.Redis != nil {
		g.Go(func() error {
			return d.backend.Redis.KeepLease(gctx, d.runID, d.cfg.Checkpoint.LeaseTTL)
		})
	}

	if d.backend.DB != nil {
		d.backend.DB.StartMetricsCollector(gctx)
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	stats := d.orch.Stats()
	for _, ds := range stats.ProblematicDomains(3) {
		d.log.Warn("Problematic domain",
			"domain", ds.Domain,
			"attempts", ds.Attempts,
			"success_rate", fmt.Sprintf("%.0f%%", ds.SuccessRate()*100),
		)
	}
	return err
}

// Close releases emitters and storage connections.
func (d *Digest) Close() error {
	return errors.Join(d.emit.Close(), d.backend.Close())
}
