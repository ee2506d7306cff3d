package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/digest/internal/core/checkpoint"
	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/ratelimit"
	"github.com/vietddude/digest/internal/infra/storage/memory"
	"github.com/vietddude/digest/internal/scheduling/classify"
	"github.com/vietddude/digest/internal/scheduling/emitter"
)

// ============================================================================
// Test helpers
// ============================================================================

// scriptedExecutor returns a fixed error per URL, or a payload.
type scriptedExecutor struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error
}

func newScriptedExecutor(errs map[string]error) *scriptedExecutor {
	return &scriptedExecutor{calls: make(map[string]int), errs: errs}
}

func (e *scriptedExecutor) Execute(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
	e.mu.Lock()
	e.calls[item.URL]++
	err := e.errs[item.URL]
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []byte(`{"title":"ok"}`), nil
}

func (e *scriptedExecutor) Calls(url string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[url]
}

func testConfig(exec Executor) Config {
	return Config{
		MaxWorkers:    2,
		TaskTimeout:   time.Second,
		ShutdownGrace: time.Second,
		Executor:      exec,
		Policy:        classify.NewRetryPolicy(nil, classify.BackoffConfig{}),
	}
}

func items(urls ...string) []*domain.WorkItem {
	out := make([]*domain.WorkItem, 0, len(urls))
	for _, u := range urls {
		out = append(out, domain.NewWorkItem(u, "post about "+u))
	}
	return out
}

func runToCompletion(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("run did not drain before timeout")
	}
}

func resultFor(t *testing.T, o *Orchestrator, url string) domain.ProcessingResult {
	t.Helper()
	for _, r := range o.Results() {
		if r.URL == url {
			return r
		}
	}
	t.Fatalf("no result for %s", url)
	return domain.ProcessingResult{}
}

// ============================================================================
// Tests
// ============================================================================

func TestNew_RequiresExecutor(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoExecutor) {
		t.Errorf("expected ErrNoExecutor, got %v", err)
	}
}

func TestRun_Success(t *testing.T) {
	exec := newScriptedExecutor(nil)
	sink := emitter.NewChannelEmitter(10)
	cfg := testConfig(exec)
	cfg.Emitter = sink

	o, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	rep := o.Submit(items("https://a.dev/x", "https://b.dev/y"))
	if rep.Accepted != 2 {
		t.Fatalf("accepted = %d", rep.Accepted)
	}

	runToCompletion(t, o)

	stats := o.Stats()
	if stats.Counters.Succeeded != 2 || stats.Counters.Processed != 2 || stats.Counters.Failed != 0 {
		t.Errorf("counters = %+v", stats.Counters)
	}
	if stats.Queued != 0 || stats.InFlight != 0 || stats.Terminal != 2 {
		t.Errorf("queued=%d in_flight=%d terminal=%d", stats.Queued, stats.InFlight, stats.Terminal)
	}

	r := resultFor(t, o, "https://a.dev/x")
	if !r.Success || r.Attempts != 1 || string(r.Payload) != `{"title":"ok"}` {
		t.Errorf("unexpected result %+v", r)
	}
	if len(sink.Results()) != 2 {
		t.Errorf("emitted %d results, want 2", len(sink.Results()))
	}
}

func TestRun_TimeoutRetriedUntilLimit(t *testing.T) {
	exec := newScriptedExecutor(map[string]error{
		"https://slow.dev/a": errors.New("upstream timed out"),
	})
	o, _ := New(testConfig(exec))
	o.Submit(items("https://slow.dev/a"))

	runToCompletion(t, o)

	limit := classify.DefaultRetryLimits()[domain.ErrorTimeout]
	if got := exec.Calls("https://slow.dev/a"); got != limit {
		t.Errorf("executed %d times, want %d", got, limit)
	}
	r := resultFor(t, o, "https://slow.dev/a")
	if r.Success || r.ErrorCategory != domain.ErrorTimeout || r.Attempts != limit {
		t.Errorf("unexpected result %+v", r)
	}
	c := o.Stats().Counters
	if c.Retried != limit-1 || c.Failed != 1 || c.Processed != limit {
		t.Errorf("counters = %+v", c)
	}
}

func TestRun_PermanentFailureIsNotRetried(t *testing.T) {
	exec := newScriptedExecutor(map[string]error{
		"https://news.example/p": errors.New("HTTP 403: subscribe to continue reading"),
		"https://gone.example/p": errors.New("HTTP 404 not found"),
	})
	o, _ := New(testConfig(exec))
	o.Submit(items("https://news.example/p", "https://gone.example/p"))

	runToCompletion(t, o)

	tests := []struct {
		url      string
		category domain.ErrorCategory
	}{
		{"https://news.example/p", domain.ErrorPaywall},
		{"https://gone.example/p", domain.ErrorNotFound},
	}
	for _, tt := range tests {
		r := resultFor(t, o, tt.url)
		if r.ErrorCategory != tt.category || r.Attempts != 1 {
			t.Errorf("%s: category=%s attempts=%d", tt.url, r.ErrorCategory, r.Attempts)
		}
		if exec.Calls(tt.url) != 1 {
			t.Errorf("%s executed %d times", tt.url, exec.Calls(tt.url))
		}
	}
	if o.Stats().Counters.Retried != 0 {
		t.Error("permanent failures must not be retried")
	}
}

func TestRun_RetryThenSuccess(t *testing.T) {
	var calls atomic.Int32
	exec := ExecutorFunc(func(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("429 too many requests")
		}
		return []byte("plain text"), nil
	})
	o, _ := New(testConfig(exec))
	o.Submit(items("https://api.dev/x"))

	runToCompletion(t, o)

	r := resultFor(t, o, "https://api.dev/x")
	if !r.Success || r.Attempts != 2 {
		t.Errorf("unexpected result %+v", r)
	}
	if string(r.Payload) != `"plain text"` {
		t.Errorf("non-JSON payload should be wrapped as a string, got %s", r.Payload)
	}
}

func TestRun_TaskTimeout(t *testing.T) {
	exec := ExecutorFunc(func(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	cfg := testConfig(exec)
	cfg.TaskTimeout = 20 * time.Millisecond
	cfg.Policy = classify.NewRetryPolicy(classify.DefaultRetryLimits().With(map[domain.ErrorCategory]int{
		domain.ErrorTimeout: 1,
	}), classify.BackoffConfig{})

	o, _ := New(cfg)
	o.Submit(items("https://hang.dev/x"))

	runToCompletion(t, o)

	r := resultFor(t, o, "https://hang.dev/x")
	if r.ErrorCategory != domain.ErrorTimeout {
		t.Errorf("category = %s, want timeout", r.ErrorCategory)
	}
}

func TestRun_ExecutorPanicIsRecovered(t *testing.T) {
	exec := ExecutorFunc(func(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
		panic("boom")
	})
	o, _ := New(testConfig(exec))
	o.Submit(items("https://bad.dev/x"))

	runToCompletion(t, o)

	r := resultFor(t, o, "https://bad.dev/x")
	if r.Success || r.ErrorCategory != domain.ErrorUnknown {
		t.Errorf("unexpected result %+v", r)
	}
	if r.Attempts != classify.DefaultRetryLimits()[domain.ErrorUnknown] {
		t.Errorf("attempts = %d", r.Attempts)
	}
}

func TestSubmit_Dedup(t *testing.T) {
	o, _ := New(testConfig(newScriptedExecutor(nil)))

	first := o.Submit(items("https://a.dev/x"))
	second := o.Submit(items("https://a.dev/x", "https://b.dev/y"))
	if first.Accepted != 1 || second.Accepted != 1 || second.Duplicates != 1 {
		t.Errorf("first=%+v second=%+v", first, second)
	}

	runToCompletion(t, o)

	again := o.Submit(items("https://a.dev/x"))
	if again.AlreadyDone != 1 || again.Accepted != 0 {
		t.Errorf("terminal item resubmitted: %+v", again)
	}

	invalid := o.Submit([]*domain.WorkItem{{URL: "not a url"}, {}})
	if invalid.Invalid != 2 {
		t.Errorf("invalid = %d", invalid.Invalid)
	}
}

func TestRun_AlreadyRunning(t *testing.T) {
	release := make(chan struct{})
	exec := ExecutorFunc(func(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
		<-release
		return nil, nil
	})
	o, _ := New(testConfig(exec))
	o.Submit(items("https://a.dev/x"))

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !o.Stats().Running && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := o.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestRun_ProviderConcurrencyCap(t *testing.T) {
	var active, peak atomic.Int32
	exec := ExecutorFunc(func(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return nil, nil
	})
	cfg := testConfig(exec)
	cfg.MaxWorkers = 4
	cfg.Limiter = ratelimit.NewLimiter(ratelimit.Config{
		Default: ratelimit.Quota{Provider: "default", MaxConcurrent: 1},
	})
	o, _ := New(cfg)
	o.Submit(items("https://a.dev/1", "https://a.dev/2", "https://a.dev/3", "https://a.dev/4"))

	runToCompletion(t, o)

	if peak.Load() != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak.Load())
	}
	if o.Stats().Counters.Succeeded != 4 {
		t.Errorf("counters = %+v", o.Stats().Counters)
	}
}

func TestRun_CheckpointsEveryN(t *testing.T) {
	store := memory.NewCheckpointStore(0)
	mgr := checkpoint.NewManager(store, "run-1")

	cfg := testConfig(newScriptedExecutor(nil))
	cfg.Checkpoints = mgr
	cfg.CheckpointEvery = 2
	o, _ := New(cfg)
	o.Submit(items("https://a.dev/1", "https://a.dev/2", "https://a.dev/3", "https://a.dev/4"))

	runToCompletion(t, o)

	cp, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cp == nil {
		t.Fatal("no checkpoint saved")
	}
	if len(cp.Results) != 4 || len(cp.Pending) != 0 || len(cp.InFlight) != 0 {
		t.Errorf("final checkpoint: results=%d pending=%d in_flight=%d", len(cp.Results), len(cp.Pending), len(cp.InFlight))
	}
	if cp.RunID != "run-1" || cp.Counters.Succeeded != 4 {
		t.Errorf("unexpected checkpoint header %+v", cp.Counters)
	}
	if mgr.Last().Sequence != cp.Sequence {
		t.Errorf("manager last=%d store=%d", mgr.Last().Sequence, cp.Sequence)
	}
}

func TestRun_ShutdownPreservesInFlight(t *testing.T) {
	started := make(chan struct{}, 1)
	exec := ExecutorFunc(func(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})

	store := memory.NewCheckpointStore(0)
	cfg := testConfig(exec)
	cfg.MaxWorkers = 1
	cfg.TaskTimeout = time.Minute
	cfg.ShutdownGrace = 20 * time.Millisecond
	cfg.Checkpoints = checkpoint.NewManager(store, "run-1")
	o, _ := New(cfg)
	o.Submit(items("https://a.dev/1", "https://a.dev/2"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	<-started
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	cp, _ := store.Load(context.Background())
	if cp == nil {
		t.Fatal("no final checkpoint")
	}
	if len(cp.InFlight) != 1 || len(cp.Pending) != 1 || len(cp.Results) != 0 {
		t.Fatalf("in_flight=%d pending=%d results=%d", len(cp.InFlight), len(cp.Pending), len(cp.Results))
	}
	if cp.InFlight[0].RetryCount != 0 {
		t.Error("abandoned item must not be charged an attempt")
	}

	// Resume into a fresh orchestrator; both items run to completion.
	resumed, _ := New(testConfig(newScriptedExecutor(nil)))
	rep := resumed.Restore(cp)
	if rep.Pending != 1 || rep.Resumed != 1 {
		t.Errorf("restore report %+v", rep)
	}
	runToCompletion(t, resumed)
	if resumed.Stats().Counters.Succeeded != 2 {
		t.Errorf("counters after resume = %+v", resumed.Stats().Counters)
	}
}

func TestRestore_Idempotent(t *testing.T) {
	done := domain.ProcessingResult{ItemID: "done-1", URL: "https://a.dev/done", Success: true, Attempts: 1}
	pending := domain.NewWorkItem("https://b.dev/pending", "")
	cp := &domain.Checkpoint{
		Version:  domain.CheckpointVersion,
		Sequence: 3,
		Counters: domain.Counters{Processed: 1, Succeeded: 1},
		Pending:  []*domain.WorkItem{pending},
		Results:  []domain.ProcessingResult{done},
	}

	o, _ := New(testConfig(newScriptedExecutor(nil)))
	first := o.Restore(cp)
	second := o.Restore(cp)

	if first.Results != 1 || first.Pending != 1 {
		t.Errorf("first restore %+v", first)
	}
	if second.Results != 0 || second.Pending != 0 {
		t.Errorf("second restore should add nothing, got %+v", second)
	}

	s := o.Stats()
	if s.Terminal != 1 || s.Queued != 1 || s.Counters.Succeeded != 1 {
		t.Errorf("stats after double restore: terminal=%d queued=%d counters=%+v", s.Terminal, s.Queued, s.Counters)
	}

	rep := o.Submit([]*domain.WorkItem{{ID: "done-1", URL: "https://a.dev/done"}})
	if rep.AlreadyDone != 1 {
		t.Errorf("restored terminal item was accepted again: %+v", rep)
	}
}

func TestStats_DomainBreakdown(t *testing.T) {
	exec := newScriptedExecutor(map[string]error{
		"https://flaky.dev/a": errors.New("paywall"),
	})
	o, _ := New(testConfig(exec))
	o.Submit(items("https://flaky.dev/a", "https://flaky.dev/b", "https://ok.dev/c"))

	runToCompletion(t, o)

	s := o.Stats()
	if len(s.Domains) != 2 || s.Domains[0].Domain != "flaky.dev" {
		t.Fatalf("domains = %+v", s.Domains)
	}
	flaky := s.Domains[0]
	if flaky.Attempts != 2 || flaky.Failed != 1 || flaky.Errors[domain.ErrorPaywall] != 1 {
		t.Errorf("flaky stats %+v", flaky)
	}
	if s.Errors[domain.ErrorPaywall] != 1 {
		t.Errorf("errors = %v", s.Errors)
	}

	bad := s.ProblematicDomains(1)
	if len(bad) != 1 || bad[0].Domain != "flaky.dev" {
		t.Errorf("problematic = %+v", bad)
	}
}

func TestDomainResolver(t *testing.T) {
	resolve := DomainResolver(map[string]string{
		"github.com":     "github",
		"api.github.com": "github-api",
	}, "web")

	tests := []struct {
		url  string
		want string
	}{
		{"https://api.github.com/repos/x", "github-api"},
		{"https://github.com/x/y", "github"},
		{"https://example.com", "web"},
	}
	for _, tt := range tests {
		item := domain.NewWorkItem(tt.url, "")
		if got := resolve(item); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestRawPayload(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{`{"a":1}`, `{"a":1}`},
		{"hello", `"hello"`},
		{fmt.Sprint(42), "42"},
	}
	for _, tt := range tests {
		if got := string(rawPayload([]byte(tt.in))); got != tt.want {
			t.Errorf("rawPayload(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRun_TimedOutCallKeepsProviderSlot(t *testing.T) {
	var active, peak atomic.Int32
	var mu sync.Mutex
	running := make(map[string]bool)
	overlap := false

	// Ignores ctx, so every call outlives its task timeout.
	exec := ExecutorFunc(func(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
		mu.Lock()
		if running[item.ID] {
			overlap = true
		}
		running[item.ID] = true
		mu.Unlock()

		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		active.Add(-1)

		mu.Lock()
		running[item.ID] = false
		mu.Unlock()
		return nil, nil
	})

	cfg := testConfig(exec)
	cfg.MaxWorkers = 4
	cfg.TaskTimeout = 20 * time.Millisecond
	cfg.Limiter = ratelimit.NewLimiter(ratelimit.Config{
		Default: ratelimit.Quota{Provider: "default", MaxConcurrent: 1},
	})
	cfg.Policy = classify.NewRetryPolicy(classify.DefaultRetryLimits().With(map[domain.ErrorCategory]int{
		domain.ErrorTimeout: 2,
	}), classify.BackoffConfig{})

	o, _ := New(cfg)
	o.Submit(items("https://a.dev/1", "https://a.dev/2", "https://a.dev/3"))

	runToCompletion(t, o)

	if peak.Load() != 1 {
		t.Errorf("peak concurrent calls = %d, want 1", peak.Load())
	}
	mu.Lock()
	if overlap {
		t.Error("an item ran while its previous call was still in progress")
	}
	mu.Unlock()

	for _, r := range o.Results() {
		if r.ErrorCategory != domain.ErrorTimeout || r.Attempts != 2 {
			t.Errorf("unexpected result %+v", r)
		}
	}
}

func TestRun_CancelWhileWaitingForQuota(t *testing.T) {
	exec := newScriptedExecutor(nil)
	store := memory.NewCheckpointStore(0)

	cfg := testConfig(exec)
	cfg.MaxWorkers = 3
	cfg.Limiter = ratelimit.NewLimiter(ratelimit.Config{
		Default: ratelimit.Quota{Provider: "default", RPM: 1},
	})
	cfg.Checkpoints = checkpoint.NewManager(store, "run-1")
	o, _ := New(cfg)
	o.Submit(items("https://a.dev/1", "https://a.dev/2", "https://a.dev/3"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for o.Stats().Counters.Processed < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Let the other workers reach Acquire.
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	cp, _ := store.Load(context.Background())
	if cp == nil {
		t.Fatal("no final checkpoint")
	}
	total := len(cp.Results) + len(cp.Pending) + len(cp.InFlight)
	if total != 3 || len(cp.Results) != 1 {
		t.Fatalf("results=%d pending=%d in_flight=%d", len(cp.Results), len(cp.Pending), len(cp.InFlight))
	}
	for _, it := range append(cp.Pending, cp.InFlight...) {
		if it.RetryCount != 0 {
			t.Errorf("item %s charged %d attempts while waiting for quota", it.ID, it.RetryCount)
		}
	}

	s := o.Stats()
	if s.States[domain.ItemStatePending] != 2 || s.States[domain.ItemStateSucceeded] != 1 {
		t.Errorf("states = %v", s.States)
	}
	if s.States[domain.ItemStateDispatched] != 0 {
		t.Errorf("dispatched items left after shutdown: %v", s.States)
	}
}

func TestStats_States(t *testing.T) {
	exec := newScriptedExecutor(map[string]error{
		"https://gone.dev/x": errors.New("HTTP 404 not found"),
	})
	o, _ := New(testConfig(exec))
	o.Submit(items("https://a.dev/x", "https://gone.dev/x"))

	if got := o.Stats().States[domain.ItemStatePending]; got != 2 {
		t.Errorf("pending before run = %d", got)
	}

	runToCompletion(t, o)

	s := o.Stats()
	if s.States[domain.ItemStateSucceeded] != 1 || s.States[domain.ItemStateFailedTerminal] != 1 {
		t.Errorf("states = %v", s.States)
	}
	if s.States[domain.ItemStatePending] != 0 || s.States[domain.ItemStateRetryPending] != 0 {
		t.Errorf("non-terminal states left: %v", s.States)
	}
}

func TestRestore_SkipsPendingItemsWithResults(t *testing.T) {
	item := domain.NewWorkItem("https://a.dev/x", "")
	cp := &domain.Checkpoint{
		Version: domain.CheckpointVersion,
		Pending: []*domain.WorkItem{item},
		Results: []domain.ProcessingResult{{ItemID: item.ID, URL: item.URL, Success: true, Attempts: 1}},
	}

	o, _ := New(testConfig(newScriptedExecutor(nil)))
	rep := o.Restore(cp)
	if rep.Results != 1 || rep.Pending != 0 {
		t.Errorf("restore report %+v", rep)
	}
	if s := o.Stats(); s.Queued != 0 || s.Terminal != 1 {
		t.Errorf("queued=%d terminal=%d", s.Queued, s.Terminal)
	}
}

func TestStats_PriorityAnalytics(t *testing.T) {
	o, _ := New(testConfig(newScriptedExecutor(nil)))
	o.Submit([]*domain.WorkItem{
		domain.NewWorkItem("https://github.com/a/b", "new release"),
		domain.NewWorkItem("https://github.com/c/d", "code"),
		domain.NewWorkItem("https://www.nytimes.com/story", "news"),
	})

	p := o.Stats().Priority
	if p.Pending != 3 {
		t.Fatalf("pending = %d", p.Pending)
	}
	if p.Categories[domain.CategoryCode] != 2 || p.Categories[domain.CategoryGeneral] != 1 {
		t.Errorf("categories = %v", p.Categories)
	}
	if p.AvgScore[domain.CategoryCode] <= p.AvgScore[domain.CategoryGeneral] {
		t.Errorf("avg scores = %v", p.AvgScore)
	}
	if len(p.TopDomains) == 0 || p.TopDomains[0].Key != "github.com" || p.TopDomains[0].Count != 2 {
		t.Errorf("top domains = %+v", p.TopDomains)
	}
	if len(p.CommonReasons) == 0 || p.CommonReasons[0].Key != "domain" || p.CommonReasons[0].Count != 3 {
		t.Errorf("common reasons = %+v", p.CommonReasons)
	}
	total := 0
	for _, n := range p.Buckets {
		total += n
	}
	if total != 3 {
		t.Errorf("buckets = %v", p.Buckets)
	}
}
