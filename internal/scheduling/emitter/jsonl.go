package emitter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vietddude/digest/internal/core/domain"
)

// FileEmitter appends results to a file as JSON lines.
type FileEmitter struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	enc  *json.Encoder
	path string
}

// NewFileEmitter opens path for appending, creating it if needed.
func NewFileEmitter(path string) (*FileEmitter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}
	w := bufio.NewWriter(f)
	return &FileEmitter{f: f, w: w, enc: json.NewEncoder(w), path: path}, nil
}

func (e *FileEmitter) Emit(ctx context.Context, r domain.ProcessingResult) error {
	return e.EmitBatch(ctx, []domain.ProcessingResult{r})
}

// EmitBatch writes and flushes every result in order.
func (e *FileEmitter) EmitBatch(ctx context.Context, results []domain.ProcessingResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range results {
		if err := e.enc.Encode(r); err != nil {
			return fmt.Errorf("encode result %s: %w", r.ItemID, err)
		}
	}
	return e.w.Flush()
}

func (e *FileEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.w.Flush(); err != nil {
		_ = e.f.Close()
		return err
	}
	return e.f.Close()
}
