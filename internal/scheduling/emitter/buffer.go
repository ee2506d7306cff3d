package emitter

import (
	"context"
	"fmt"
	"sync"

	"github.com/vietddude/digest/internal/core/domain"
)

// Buffer wraps an Emitter and holds results until batchSize of them are
// queued, then emits them as one batch. Close flushes the remainder.
type Buffer struct {
	inner     Emitter
	batchSize int
	pending   []domain.ProcessingResult
	mu        sync.Mutex
}

// NewBuffer creates a buffer. A batch size below 2 disables buffering.
func NewBuffer(inner Emitter, batchSize int) *Buffer {
	return &Buffer{inner: inner, batchSize: batchSize}
}

func (b *Buffer) Emit(ctx context.Context, r domain.ProcessingResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.batchSize < 2 {
		return b.inner.Emit(ctx, r)
	}

	b.pending = append(b.pending, r)
	if len(b.pending) < b.batchSize {
		return nil
	}
	return b.flushLocked(ctx)
}

func (b *Buffer) EmitBatch(ctx context.Context, results []domain.ProcessingResult) error {
	for _, r := range results {
		if err := b.Emit(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Flush emits everything currently buffered.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked(ctx)
}

func (b *Buffer) flushLocked(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	if err := b.inner.EmitBatch(ctx, b.pending); err != nil {
		return fmt.Errorf("failed to emit %d buffered results: %w", len(b.pending), err)
	}
	b.pending = nil
	return nil
}

// Pending returns the number of buffered results.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Buffer) Close() error {
	if err := b.Flush(context.Background()); err != nil {
		return err
	}
	return b.inner.Close()
}
