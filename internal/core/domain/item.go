package domain

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrEmptyItem is returned when an item has neither URL nor text.
	ErrEmptyItem = errors.New("work item has no url and no text")

	// ErrInvalidURL is returned when the source URL cannot be parsed.
	ErrInvalidURL = errors.New("work item url is invalid")
)

// ContentCategory tags the kind of content behind a bookmark.
type ContentCategory string

const (
	CategoryCode          ContentCategory = "code"
	CategoryDocumentation ContentCategory = "documentation"
	CategoryResearch      ContentCategory = "research"
	CategoryVideo         ContentCategory = "video"
	CategoryTutorial      ContentCategory = "tutorial"
	CategoryGeneral       ContentCategory = "general"
)

// Engagement holds optional social metrics for a post.
type Engagement struct {
	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
}

// WorkItem is one bookmarked post waiting to be processed.
type WorkItem struct {
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	Text       string            `json:"text"`
	Author     string            `json:"author,omitempty"`
	Engagement *Engagement       `json:"engagement,omitempty"`
	Domain     string            `json:"domain"`
	CreatedAt  time.Time         `json:"created_at"`
	RetryCount int               `json:"retry_count"`
	LastError  ErrorCategory     `json:"last_error,omitempty"`
	Score      float64           `json:"score"`
	Bucket     PriorityBucket    `json:"bucket"`
	Reasons    []string          `json:"reasons,omitempty"`
	Category   ContentCategory   `json:"category,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`

	// NotBefore delays dispatch of a requeued item until its backoff expires.
	NotBefore time.Time `json:"not_before,omitempty"`
}

// NewWorkItem builds an item with a stable identity derived from url and text.
func NewWorkItem(rawURL, text string) *WorkItem {
	return &WorkItem{
		ID:        ItemID(rawURL, text),
		URL:       rawURL,
		Text:      text,
		Domain:    HostOf(rawURL),
		CreatedAt: time.Now(),
	}
}

// ItemID returns the identity hash for a (url, text) pair.
func ItemID(rawURL, text string) string {
	sum := md5.Sum([]byte(rawURL + ":" + text))
	return hex.EncodeToString(sum[:])[:12]
}

// HostOf returns the lower-cased host of rawURL, or "" if it has none.
func HostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Validate checks the item is usable before it enters the queue.
func (w *WorkItem) Validate() error {
	if strings.TrimSpace(w.URL) == "" && strings.TrimSpace(w.Text) == "" {
		return ErrEmptyItem
	}
	if w.URL != "" {
		u, err := url.Parse(w.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidURL, w.URL)
		}
	}
	if w.ID == "" {
		w.ID = ItemID(w.URL, w.Text)
	}
	if w.Domain == "" {
		w.Domain = HostOf(w.URL)
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (w *WorkItem) Clone() *WorkItem {
	c := *w
	if w.Engagement != nil {
		e := *w.Engagement
		c.Engagement = &e
	}
	if w.Reasons != nil {
		c.Reasons = append([]string(nil), w.Reasons...)
	}
	if w.Extra != nil {
		c.Extra = make(map[string]string, len(w.Extra))
		for k, v := range w.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}
