package emitter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vietddude/digest/internal/core/domain"
)

// Emitter defines the interface for publishing terminal results
type Emitter interface {
	// Emit sends a single result
	Emit(ctx context.Context, result domain.ProcessingResult) error

	// EmitBatch sends multiple results
	EmitBatch(ctx context.Context, results []domain.ProcessingResult) error

	// Close flushes and releases the emitter
	Close() error
}

// LogEmitter writes one structured log line per result.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates a log emitter. A nil logger uses slog.Default().
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger.With("component", "results")}
}

func (e *LogEmitter) Emit(ctx context.Context, r domain.ProcessingResult) error {
	if r.Success {
		e.logger.Info("Item completed",
			"item", r.ItemID,
			"domain", r.Domain,
			"attempts", r.Attempts,
			"duration", r.Duration,
		)
		return nil
	}
	e.logger.Warn("Item failed permanently",
		"item", r.ItemID,
		"domain", r.Domain,
		"category", r.ErrorCategory,
		"attempts", r.Attempts,
		"error", r.Error,
	)
	return nil
}

func (e *LogEmitter) EmitBatch(ctx context.Context, results []domain.ProcessingResult) error {
	for _, r := range results {
		_ = e.Emit(ctx, r)
	}
	return nil
}

func (e *LogEmitter) Close() error { return nil }

// ChannelEmitter forwards results to a channel for in-process consumers.
type ChannelEmitter struct {
	ch chan domain.ProcessingResult
}

// NewChannelEmitter creates an emitter backed by a channel of the given size.
func NewChannelEmitter(size int) *ChannelEmitter {
	return &ChannelEmitter{ch: make(chan domain.ProcessingResult, size)}
}

// Results returns the receive side of the channel. It is closed by Close.
func (e *ChannelEmitter) Results() <-chan domain.ProcessingResult {
	return e.ch
}

// Emit blocks until the result is accepted or ctx is done.
func (e *ChannelEmitter) Emit(ctx context.Context, r domain.ProcessingResult) error {
	select {
	case e.ch <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *ChannelEmitter) EmitBatch(ctx context.Context, results []domain.ProcessingResult) error {
	for _, r := range results {
		if err := e.Emit(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (e *ChannelEmitter) Close() error {
	close(e.ch)
	return nil
}

// Multi fans results out to several emitters.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, r domain.ProcessingResult) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) EmitBatch(ctx context.Context, results []domain.ProcessingResult) error {
	var errs []error
	for _, e := range m {
		if err := e.EmitBatch(ctx, results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, e := range m {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
