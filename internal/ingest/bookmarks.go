// Package ingest reads bookmark exports into work items.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vietddude/digest/internal/core/domain"
)

var validate = validator.New()

var urlExpr = regexp.MustCompile(`https?://[^\s"'<>]+`)

// Record is one bookmark as exported. Both a JSON array of records and
// newline-delimited records are accepted. FullText is the export's name for
// the post body and is used when Text is empty.
type Record struct {
	ID        string    `json:"id"`
	URL       string    `json:"url" validate:"omitempty,url"`
	Text      string    `json:"text" validate:"required_without_all=URL FullText"`
	FullText  string    `json:"full_text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes" validate:"gte=0"`
	Reposts   int       `json:"reposts" validate:"gte=0"`
}

// Rejection explains why a record was skipped.
type Rejection struct {
	Line   int
	Reason string
}

// Batch is the outcome of loading one export.
type Batch struct {
	Items    []*domain.WorkItem
	Rejected []Rejection
}

// LoadFile opens path and decodes its records.
func LoadFile(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmarks: %w", err)
	}
	defer f.Close()

	b, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Info("Loaded bookmarks", "component", "ingest", "path", path, "items", len(b.Items), "rejected", len(b.Rejected))
	return b, nil
}

// Load decodes records from r. Malformed or invalid records are reported in
// Batch.Rejected; only an unreadable stream is an error.
func Load(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Batch{}, nil
	}
	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode bookmark array: %w", err)
		}
		b := &Batch{}
		for i, rec := range records {
			b.add(i+1, rec)
		}
		return b, nil
	}
	return loadLines(trimmed), nil
}

func loadLines(data []byte) *Batch {
	b := &Batch{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			b.Rejected = append(b.Rejected, Rejection{Line: line, Reason: err.Error()})
			continue
		}
		b.add(line, rec)
	}
	if err := sc.Err(); err != nil {
		b.Rejected = append(b.Rejected, Rejection{Line: line + 1, Reason: err.Error()})
	}
	return b
}

func (b *Batch) add(line int, rec Record) {
	item, err := rec.WorkItem()
	if err != nil {
		b.Rejected = append(b.Rejected, Rejection{Line: line, Reason: err.Error()})
		return
	}
	b.Items = append(b.Items, item)
}

// WorkItem validates the record and converts it. When the record has no URL
// the first link in the post text is used.
func (r Record) WorkItem() (*domain.WorkItem, error) {
	if err := validate.Struct(r); err != nil {
		return nil, fmt.Errorf("invalid bookmark: %w", err)
	}

	text := r.Text
	if text == "" {
		text = r.FullText
	}
	link := r.URL
	if link == "" {
		link = strings.TrimRight(urlExpr.FindString(text), ".,;:!?)")
	}

	item := domain.NewWorkItem(link, text)
	item.Author = r.Author
	if !r.CreatedAt.IsZero() {
		item.CreatedAt = r.CreatedAt
	}
	if r.Likes > 0 || r.Reposts > 0 {
		item.Engagement = &domain.Engagement{Likes: r.Likes, Reposts: r.Reposts}
	}
	if r.ID != "" {
		item.Extra = map[string]string{"source_id": r.ID}
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}
