// Package extract fetches bookmarked pages and pulls readable text out of
// them. It is the executor the digest binary plugs into the scheduler.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vietddude/digest/internal/core/domain"
)

var (
	// ErrRequiresJS is returned when the page only renders with JavaScript.
	ErrRequiresJS = errors.New("page requires javascript")

	// ErrEmptyContent is returned when no readable text was found.
	ErrEmptyContent = errors.New("no readable content")
)

// Config holds executor configuration.
type Config struct {
	Timeout         time.Duration `yaml:"timeout"`
	UserAgent       string        `yaml:"user_agent"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	MinContentChars int           `yaml:"min_content_chars"`
	MaxTextChars    int           `yaml:"max_text_chars"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Timeout:         20 * time.Second,
	UserAgent:       "digest/1.0 (+https://github.com/vietddude/digest)",
	MaxBodyBytes:    4 << 20,
	MinContentChars: 200,
	MaxTextChars:    20000,
}

// Entry is the payload produced for one item.
type Entry struct {
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text"`
	Chars       int    `json:"chars"`
	Post        string `json:"post,omitempty"`
}

// HTTPExecutor fetches an item's URL and extracts title, description and
// body text. Error text is phrased so the classifier can categorise it.
type HTTPExecutor struct {
	client *http.Client
	cfg    Config
}

// NewHTTPExecutor wires an HTTP client; nil uses one with cfg.Timeout.
func NewHTTPExecutor(client *http.Client, cfg Config) *HTTPExecutor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig.UserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig.MaxBodyBytes
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = DefaultConfig.MaxTextChars
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPExecutor{client: client, cfg: cfg}
}

// Execute implements orchestrator.Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
	// Text-only posts have nothing to fetch.
	if item.URL == "" {
		text := strings.TrimSpace(item.Text)
		return json.Marshal(Entry{Text: text, Chars: len([]rune(text)), Post: item.Text})
	}

	doc, err := e.fetchDocument(ctx, item.URL)
	if err != nil {
		return nil, err
	}

	entry, err := e.extract(doc)
	if err != nil {
		return nil, err
	}
	entry.URL = item.URL
	entry.Post = item.Text
	return json.Marshal(entry)
}

func (e *HTTPExecutor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, e.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// statusError words non-2xx responses the way the error classifier expects.
func statusError(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusPaymentRequired:
		return fmt.Errorf("HTTP %d: paywall", code)
	case code == http.StatusForbidden || code == http.StatusUnauthorized:
		return fmt.Errorf("HTTP 403 forbidden (status %d)", code)
	case code == http.StatusNotFound || code == http.StatusGone:
		return fmt.Errorf("HTTP 404 not found (status %d)", code)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("HTTP 429 too many requests")
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return fmt.Errorf("HTTP %d: upstream timeout", code)
	default:
		return fmt.Errorf("HTTP %d: %s", code, http.StatusText(code))
	}
}

var noiseSelectors = "script, style, noscript, nav, header, footer, aside, form, iframe, svg"

func (e *HTTPExecutor) extract(doc *goquery.Document) (Entry, error) {
	var entry Entry

	entry.Title = strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if entry.Title == "" {
		entry.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	entry.Description = strings.TrimSpace(doc.Find("meta[name='description']").AttrOr("content", ""))
	if entry.Description == "" {
		entry.Description = strings.TrimSpace(doc.Find("meta[property='og:description']").AttrOr("content", ""))
	}

	noscript := strings.ToLower(doc.Find("noscript").Text())
	doc.Find(noiseSelectors).Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}

	text := collapseSpace(root.Text())
	lower := strings.ToLower(text)

	if len(text) < e.cfg.MinContentChars {
		if strings.Contains(noscript, "javascript") || strings.Contains(lower, "enable javascript") {
			return Entry{}, ErrRequiresJS
		}
		if containsAny(lower, "subscribe to continue", "subscribers only", "paywall") {
			return Entry{}, fmt.Errorf("paywall: %s", truncate(text, 120))
		}
	}
	if text == "" && entry.Description == "" {
		return Entry{}, ErrEmptyContent
	}

	entry.Text = truncate(text, e.cfg.MaxTextChars)
	entry.Chars = len([]rune(entry.Text))
	return entry, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
