// Package orchestrator drives work items from the queue through rate-limited
// executors and decides, per failure, whether an item is retried.
//
// Each item moves through
//
//	pending -> dispatched -> succeeded | retry_pending | failed_terminal
//	retry_pending -> pending
//
// Run keeps at most MaxWorkers items dispatched. Quota waits happen inside a
// worker, so a throttled provider holds only the workers waiting on it;
// when every worker waits on the same provider, dispatch stalls until it
// admits one. A call that outlives its task timeout keeps its provider
// permit until it returns.
//
// Cancelling Run's context stops admission, gives in-flight tasks
// ShutdownGrace to finish and then abandons them; abandoned items are saved
// as in flight and retried on the next resume.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vietddude/digest/internal/core/checkpoint"
	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/ratelimit"
	"github.com/vietddude/digest/internal/scheduling/classify"
	"github.com/vietddude/digest/internal/scheduling/emitter"
	"github.com/vietddude/digest/internal/scheduling/metrics"
	"github.com/vietddude/digest/internal/scheduling/priority"
	"github.com/vietddude/digest/internal/scheduling/queue"
)

var (
	// ErrAlreadyRunning is returned when Run is called on a running orchestrator.
	ErrAlreadyRunning = errors.New("orchestrator is already running")

	// ErrNoExecutor is returned by New when Config.Executor is nil.
	ErrNoExecutor = errors.New("orchestrator requires an executor")

	// ErrExecutorPanic wraps a panic recovered from an executor.
	ErrExecutorPanic = errors.New("executor panicked")

	errAbandoned = errors.New("task abandoned at shutdown")
)

const (
	saveTimeout = 30 * time.Second
	emitTimeout = 5 * time.Second
)

// Config holds orchestrator configuration and collaborators.
type Config struct {
	MaxWorkers         int
	TaskTimeout        time.Duration
	ShutdownGrace      time.Duration
	CheckpointEvery    int
	CheckpointInterval time.Duration

	Executor    Executor
	Resolver    ProviderResolver
	Scorer      *priority.Scorer
	Classifier  *classify.Classifier
	Policy      *classify.RetryPolicy
	Limiter     *ratelimit.Limiter
	Checkpoints *checkpoint.Manager // optional
	Emitter     emitter.Emitter     // optional
	Logger      *slog.Logger
	Now         func() time.Time
}

func (c *Config) applyDefaults() {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 4
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 10 * time.Second
	}
	if c.Resolver == nil {
		c.Resolver = StaticResolver("default")
	}
	if c.Scorer == nil {
		c.Scorer = priority.NewScorer(priority.DefaultWeights())
	}
	if c.Classifier == nil {
		c.Classifier = classify.NewClassifier(nil)
	}
	if c.Policy == nil {
		c.Policy = classify.NewRetryPolicy(nil, classify.DefaultBackoffConfig)
	}
	if c.Limiter == nil {
		c.Limiter = ratelimit.NewLimiter(ratelimit.Config{})
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// SubmitReport counts what happened to a batch of submitted items.
type SubmitReport struct {
	Accepted    int
	Duplicates  int
	AlreadyDone int
	Invalid     int
}

// RestoreReport counts what a checkpoint contributed.
type RestoreReport struct {
	Results int
	Pending int
	Resumed int
}

// Orchestrator ties the scorer, queue, limiter, classifier and checkpoint
// manager together.
type Orchestrator struct {
	cfg    Config
	queue  *queue.Queue
	logger *slog.Logger

	mu              sync.Mutex
	counters        domain.Counters
	errors          map[domain.ErrorCategory]int
	domains         map[string]*DomainStats
	states          map[string]domain.ItemState // non-terminal items only
	calls           map[string]chan struct{}    // executor calls still running
	sinceCheckpoint int
	closed          bool
	startedAt       time.Time
	execCtx         context.Context

	running atomic.Bool
	wake    chan struct{}
	saves   sync.WaitGroup
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Executor == nil {
		return nil, ErrNoExecutor
	}
	cfg.applyDefaults()

	return &Orchestrator{
		cfg:     cfg,
		queue:   queue.New(queue.WithBucketFunc(cfg.Scorer.BucketFor), queue.WithClock(cfg.Now)),
		logger:  cfg.Logger.With("component", "orchestrator"),
		errors:  make(map[domain.ErrorCategory]int),
		domains: make(map[string]*DomainStats),
		states:  make(map[string]domain.ItemState),
		calls:   make(map[string]chan struct{}),
		wake:    make(chan struct{}, 1),
		execCtx: context.Background(),
	}, nil
}

// Submit validates, scores and queues items. The orchestrator owns accepted
// items from here on; callers must not modify them.
func (o *Orchestrator) Submit(items []*domain.WorkItem) SubmitReport {
	var r SubmitReport
	for _, item := range items {
		if err := item.Validate(); err != nil {
			r.Invalid++
			o.logger.Warn("Rejected invalid item", "url", item.URL, "error", err)
			continue
		}
		if o.queue.IsTerminal(item.ID) {
			r.AlreadyDone++
			continue
		}
		o.cfg.Scorer.Apply(item)
		o.mu.Lock()
		added := o.queue.Add(item)
		if added {
			o.states[item.ID] = domain.ItemStatePending
		}
		o.mu.Unlock()
		if !added {
			r.Duplicates++
			metrics.ItemsDuplicate.Inc()
			continue
		}
		r.Accepted++
		metrics.ItemsSubmitted.WithLabelValues(item.Bucket.String()).Inc()
	}

	o.updateQueueDepth()
	o.signal()

	o.logger.Info("Submitted items",
		"accepted", r.Accepted,
		"duplicates", r.Duplicates,
		"already_done", r.AlreadyDone,
		"invalid", r.Invalid,
	)
	return r
}

// Restore loads a checkpoint. Replaying the same checkpoint again changes
// nothing: terminal results and pending items are keyed by ID.
func (o *Orchestrator) Restore(cp *domain.Checkpoint) RestoreReport {
	var r RestoreReport
	if cp == nil {
		return r
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, res := range cp.Results {
		if o.queue.RecordTerminal(res) {
			r.Results++
		}
	}
	done := cp.TerminalIDs()
	for _, item := range cp.Pending {
		if _, ok := done[item.ID]; ok {
			continue
		}
		if o.restoreItem(item, domain.ItemStatePending) {
			r.Pending++
		}
	}
	// Dispatched but never finalized: retried without charging an attempt.
	for _, item := range cp.InFlight {
		if _, ok := done[item.ID]; ok {
			continue
		}
		if o.restoreItem(item, domain.ItemStateRetryPending) {
			r.Resumed++
		}
	}
	o.counters = cp.Counters

	o.updateQueueDepth()
	o.signal()

	o.logger.Info("Restored checkpoint",
		"sequence", cp.Sequence,
		"results", r.Results,
		"pending", r.Pending,
		"resumed", r.Resumed,
	)
	return r
}

func (o *Orchestrator) restoreItem(item *domain.WorkItem, state domain.ItemState) bool {
	it := item.Clone()
	if it.Bucket == 0 {
		o.cfg.Scorer.Apply(it)
	}
	if !o.queue.Add(it) {
		return false
	}
	o.states[it.ID] = state
	if state != domain.ItemStatePending {
		o.transitionLocked(it, state, domain.ItemStatePending)
	}
	return true
}

// Run processes items until the queue is drained or ctx is cancelled, then
// saves a final checkpoint. It returns only infrastructure errors.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer o.running.Store(false)

	execCtx, abandon := context.WithCancel(context.WithoutCancel(ctx))
	defer abandon()

	o.mu.Lock()
	o.execCtx = execCtx
	o.closed = false
	o.startedAt = o.cfg.Now()
	o.mu.Unlock()

	pending, _ := o.queue.Counts()
	runID := ""
	if o.cfg.Checkpoints != nil {
		runID = o.cfg.Checkpoints.RunID()
	}
	o.logger.Info("Starting scheduler",
		"run_id", runID,
		"workers", o.cfg.MaxWorkers,
		"pending", pending,
		"task_timeout", o.cfg.TaskTimeout,
	)

	work := make(chan *domain.WorkItem)
	slots := make(chan struct{}, o.cfg.MaxWorkers)
	var workers sync.WaitGroup
	for i := 0; i < o.cfg.MaxWorkers; i++ {
		workers.Add(1)
		go o.worker(ctx, work, slots, &workers)
	}

	stopTicker := make(chan struct{})
	var ticker sync.WaitGroup
	if o.cfg.Checkpoints != nil && o.cfg.CheckpointInterval > 0 {
		ticker.Add(1)
		go func() {
			defer ticker.Done()
			o.checkpointLoop(stopTicker)
		}()
	}

	drained := o.dispatch(ctx, work, slots)
	close(work)

	if drained {
		workers.Wait()
	} else {
		o.awaitWorkers(&workers, abandon)
	}
	close(stopTicker)
	ticker.Wait()

	err := o.finish()

	o.mu.Lock()
	counters := o.counters
	o.mu.Unlock()
	o.logger.Info("Scheduler stopped",
		"drained", drained,
		"processed", counters.Processed,
		"succeeded", counters.Succeeded,
		"failed", counters.Failed,
		"retried", counters.Retried,
	)
	return err
}

// dispatch hands items to workers until the queue drains (true) or ctx
// ends (false). A slot is taken before Next so at most MaxWorkers items are
// ever outside the queue, and a free worker always exists for each send.
func (o *Orchestrator) dispatch(ctx context.Context, work chan<- *domain.WorkItem, slots chan struct{}) bool {
	for {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return false
		}

		item, ok := o.nextItem(ctx)
		if !ok {
			<-slots
			return ctx.Err() == nil
		}
		o.mu.Lock()
		o.transitionLocked(item, domain.ItemStatePending, domain.ItemStateDispatched)
		o.mu.Unlock()
		work <- item
	}
}

// nextItem blocks until an item is eligible, the queue is drained, or ctx
// is done.
func (o *Orchestrator) nextItem(ctx context.Context) (*domain.WorkItem, bool) {
	for {
		if ctx.Err() != nil {
			return nil, false
		}
		if item, ok := o.queue.Next(); ok {
			o.updateQueueDepth()
			return item, true
		}

		pending, inFlight := o.queue.Counts()
		if pending == 0 && inFlight == 0 {
			return nil, false
		}

		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		if at := o.queue.NextEligibleAt(); !at.IsZero() {
			wait := at.Sub(o.cfg.Now())
			if wait < time.Millisecond {
				wait = time.Millisecond
			}
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
		case <-o.wake:
		case <-fire:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (o *Orchestrator) worker(ctx context.Context, work <-chan *domain.WorkItem, slots chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for item := range work {
		o.process(ctx, item)
		<-slots
	}
}

func (o *Orchestrator) process(ctx context.Context, item *domain.WorkItem) {
	provider := o.cfg.Resolver(item)

	// A timed-out attempt may still be running; never overlap it.
	if err := o.awaitPreviousCall(ctx, item.ID); err != nil {
		o.requeueUnstarted(item)
		return
	}

	waitStart := time.Now()
	permit, err := o.cfg.Limiter.Acquire(ctx, provider)
	metrics.RateLimitWait.WithLabelValues(provider).Observe(time.Since(waitStart).Seconds())
	if err != nil {
		o.requeueUnstarted(item)
		return
	}

	metrics.WorkersBusy.Inc()
	start := time.Now()
	payload, execErr := o.execute(item, permit)
	elapsed := time.Since(start)
	metrics.WorkersBusy.Dec()
	metrics.ExecutionLatency.WithLabelValues(permit.Provider()).Observe(elapsed.Seconds())

	if errors.Is(execErr, errAbandoned) {
		o.logger.Warn("Abandoned in-flight item", "item", item.ID, "provider", permit.Provider())
		return
	}
	o.complete(item, permit.Provider(), payload, execErr, elapsed)
}

// requeueUnstarted puts back an item that was dispatched during shutdown but
// never reached its executor. No attempt is charged.
func (o *Orchestrator) requeueUnstarted(item *domain.WorkItem) {
	o.mu.Lock()
	if !o.closed && o.transitionLocked(item, domain.ItemStateDispatched, domain.ItemStateRetryPending) {
		if err := o.queue.Requeue(item, item.Score); err != nil {
			o.logger.Error("Failed to requeue item", "item", item.ID, "error", err)
		} else {
			o.transitionLocked(item, domain.ItemStateRetryPending, domain.ItemStatePending)
		}
	}
	o.mu.Unlock()
	o.signal()
}

// awaitPreviousCall blocks while an earlier executor call for id, one that
// outlived its task timeout, has not yet returned.
func (o *Orchestrator) awaitPreviousCall(ctx context.Context, id string) error {
	o.mu.Lock()
	finished, ok := o.calls[id]
	o.mu.Unlock()
	if !ok {
		return nil
	}

	o.logger.Debug("Waiting for previous call to return", "item", id)
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute runs the executor under the per-task timeout. An executor that
// ignores its context is not waited for past the deadline, but it keeps the
// permit until it actually returns so the provider's concurrency cap holds.
func (o *Orchestrator) execute(item *domain.WorkItem, permit *ratelimit.Permit) ([]byte, error) {
	execCtx := o.execCtx

	var (
		taskCtx context.Context
		cancel  context.CancelFunc
	)
	if o.cfg.TaskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(execCtx, o.cfg.TaskTimeout)
	} else {
		taskCtx, cancel = context.WithCancel(execCtx)
	}

	type outcome struct {
		payload []byte
		err     error
	}
	done := make(chan outcome, 1)
	finished := make(chan struct{})
	task := item.Clone()

	o.mu.Lock()
	o.calls[item.ID] = finished
	o.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			permit.Release()
			o.mu.Lock()
			if o.calls[item.ID] == finished {
				delete(o.calls, item.ID)
			}
			o.mu.Unlock()
			close(finished)
		}()
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrExecutorPanic, r)}
			}
		}()
		p, err := o.cfg.Executor.Execute(taskCtx, task)
		done <- outcome{payload: p, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && execCtx.Err() != nil {
			return nil, errAbandoned
		}
		return out.payload, out.err
	case <-taskCtx.Done():
		if execCtx.Err() != nil {
			return nil, errAbandoned
		}
		o.logger.Warn("Task timed out, call still holds its permit", "item", item.ID, "provider", permit.Provider())
		return nil, fmt.Errorf("task timed out after %s: %w", o.cfg.TaskTimeout, context.DeadlineExceeded)
	}
}

// complete records the outcome of one execution.
func (o *Orchestrator) complete(item *domain.WorkItem, provider string, payload []byte, execErr error, elapsed time.Duration) {
	now := o.cfg.Now()
	var emit *domain.ProcessingResult

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if state := o.states[item.ID]; state != domain.ItemStateDispatched {
		o.mu.Unlock()
		o.logger.Error("Dropping outcome for item that is not dispatched", "item", item.ID, "state", state)
		return
	}

	attempts := item.RetryCount + 1
	ds := o.domainStatsLocked(item.Domain)
	ds.Attempts++
	o.counters.Processed++

	if execErr == nil {
		result := domain.ProcessingResult{
			ItemID:      item.ID,
			URL:         item.URL,
			Domain:      item.Domain,
			Success:     true,
			Payload:     rawPayload(payload),
			Attempts:    attempts,
			Duration:    elapsed,
			CompletedAt: now,
		}
		o.transitionLocked(item, domain.ItemStateDispatched, result.State())
		if err := o.queue.MarkTerminal(item, result); err != nil {
			o.logger.Error("Failed to finalize item", "item", item.ID, "error", err)
		} else {
			o.counters.Succeeded++
			ds.Succeeded++
			emit = &result
			metrics.ItemsCompleted.WithLabelValues(provider, "succeeded").Inc()
		}
	} else {
		category := o.cfg.Classifier.ClassifyError(execErr)
		o.errors[category]++
		ds.Failed++
		ds.Errors[category]++
		metrics.ExecutionErrors.WithLabelValues(provider, string(category)).Inc()

		item.LastError = category
		decision := o.cfg.Policy.Decide(category, attempts)

		if decision.Requeue {
			o.transitionLocked(item, domain.ItemStateDispatched, domain.ItemStateRetryPending)
			item.RetryCount = attempts
			item.NotBefore = now.Add(decision.Backoff)
			if err := o.queue.Requeue(item, o.cfg.Scorer.Decay(item.Score)); err != nil {
				o.logger.Error("Failed to requeue item", "item", item.ID, "error", err)
			} else {
				o.transitionLocked(item, domain.ItemStateRetryPending, domain.ItemStatePending)
				o.counters.Retried++
				metrics.ItemsRetried.WithLabelValues(string(category)).Inc()
				o.logger.Debug("Requeued item",
					"item", item.ID,
					"category", category,
					"attempts", attempts,
					"limit", decision.Limit,
					"backoff", decision.Backoff,
					"score", item.Score,
				)
			}
		} else {
			result := domain.ProcessingResult{
				ItemID:        item.ID,
				URL:           item.URL,
				Domain:        item.Domain,
				ErrorCategory: category,
				Error:         execErr.Error(),
				Attempts:      attempts,
				Duration:      elapsed,
				CompletedAt:   now,
			}
			o.transitionLocked(item, domain.ItemStateDispatched, result.State())
			if err := o.queue.MarkTerminal(item, result); err != nil {
				o.logger.Error("Failed to finalize item", "item", item.ID, "error", err)
			} else {
				o.counters.Failed++
				emit = &result
				metrics.ItemsCompleted.WithLabelValues(provider, "failed").Inc()
			}
		}
	}

	o.sinceCheckpoint++
	if o.cfg.Checkpoints != nil && o.cfg.CheckpointEvery > 0 && o.sinceCheckpoint >= o.cfg.CheckpointEvery {
		o.saveAsyncLocked(o.snapshotLocked())
	}
	o.mu.Unlock()

	o.updateQueueDepth()
	o.signal()
	if emit != nil {
		o.emit(*emit)
	}
}

func (o *Orchestrator) domainStatsLocked(host string) *DomainStats {
	if host == "" {
		host = "unknown"
	}
	ds, ok := o.domains[host]
	if !ok {
		ds = &DomainStats{Domain: host, Errors: make(map[domain.ErrorCategory]int)}
		o.domains[host] = ds
	}
	return ds
}

// transitionLocked moves item from one state to another. It refuses moves
// the state table does not allow or whose from state is not the recorded
// one. Terminal items are dropped from the table; the queue keeps their
// results.
func (o *Orchestrator) transitionLocked(item *domain.WorkItem, from, to domain.ItemState) bool {
	current, ok := o.states[item.ID]
	if !ok || current != from || !domain.CanTransition(from, to) {
		o.logger.Error("Invalid item transition", "item", item.ID, "current", current, "from", from, "to", to)
		return false
	}
	if to.IsTerminal() {
		delete(o.states, item.ID)
	} else {
		o.states[item.ID] = to
	}
	o.logger.Debug("Item transition", "item", item.ID, "from", from, "to", to)
	return true
}

// awaitWorkers waits up to ShutdownGrace for in-flight tasks, then cancels
// their contexts and stops waiting.
func (o *Orchestrator) awaitWorkers(workers *sync.WaitGroup, abandon context.CancelFunc) {
	done := make(chan struct{})
	go func() {
		workers.Wait()
		close(done)
	}()

	_, inFlight := o.queue.Counts()
	o.logger.Info("Shutting down, waiting for in-flight tasks",
		"in_flight", inFlight,
		"grace", o.cfg.ShutdownGrace,
	)

	timer := time.NewTimer(o.cfg.ShutdownGrace)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		_, inFlight = o.queue.Counts()
		o.logger.Warn("Grace period expired, abandoning in-flight tasks", "in_flight", inFlight)
		abandon()
	}
}

// finish closes the run to further outcomes and writes the final checkpoint.
func (o *Orchestrator) finish() error {
	o.mu.Lock()
	o.closed = true
	inFlight := o.queue.InFlight()
	for _, item := range inFlight {
		o.transitionLocked(item, domain.ItemStateDispatched, domain.ItemStateRetryPending)
	}
	cp := o.snapshotLocked()
	o.queue.Release()
	for _, item := range inFlight {
		o.transitionLocked(item, domain.ItemStateRetryPending, domain.ItemStatePending)
	}
	o.mu.Unlock()

	o.updateQueueDepth()
	o.saves.Wait()

	if o.cfg.Checkpoints == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := o.save(ctx, cp); err != nil {
		return fmt.Errorf("final checkpoint: %w", err)
	}
	return nil
}

// ============================================================================
// Checkpoints
// ============================================================================

func (o *Orchestrator) checkpointLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(o.cfg.CheckpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.mu.Lock()
			if !o.closed && o.sinceCheckpoint > 0 {
				o.saveAsyncLocked(o.snapshotLocked())
			}
			o.mu.Unlock()
		}
	}
}

// snapshotLocked captures the current state. Stamping happens here, under
// the lock, so sequence order always matches state order.
func (o *Orchestrator) snapshotLocked() *domain.Checkpoint {
	o.sinceCheckpoint = 0
	cp := o.captureLocked()
	if o.cfg.Checkpoints != nil {
		o.cfg.Checkpoints.Stamp(cp)
	}
	return cp
}

func (o *Orchestrator) captureLocked() *domain.Checkpoint {
	return &domain.Checkpoint{
		Version:   domain.CheckpointVersion,
		CreatedAt: o.cfg.Now().UTC(),
		Counters:  o.counters,
		Pending:   o.queue.Pending(),
		InFlight:  o.queue.InFlight(),
		Results:   o.queue.Results(),
	}
}

// saveAsyncLocked must be called with o.mu held so the WaitGroup Add
// happens before finish waits.
func (o *Orchestrator) saveAsyncLocked(cp *domain.Checkpoint) {
	if o.cfg.Checkpoints == nil {
		return
	}
	o.saves.Add(1)
	go func() {
		defer o.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		_ = o.save(ctx, cp)
	}()
}

func (o *Orchestrator) save(ctx context.Context, cp *domain.Checkpoint) error {
	err := o.cfg.Checkpoints.Save(ctx, cp)
	switch {
	case err == nil:
		metrics.CheckpointSaves.WithLabelValues("ok").Inc()
		metrics.CheckpointSequence.Set(float64(cp.Sequence))
		return nil
	case errors.Is(err, checkpoint.ErrStale):
		metrics.CheckpointSaves.WithLabelValues("stale").Inc()
		return nil
	default:
		metrics.CheckpointSaves.WithLabelValues("error").Inc()
		return err
	}
}

// Checkpoint saves the current state synchronously.
func (o *Orchestrator) Checkpoint(ctx context.Context) error {
	if o.cfg.Checkpoints == nil {
		return nil
	}
	o.mu.Lock()
	cp := o.snapshotLocked()
	o.mu.Unlock()
	return o.save(ctx, cp)
}

// Snapshot returns the current state without persisting it.
func (o *Orchestrator) Snapshot() *domain.Checkpoint {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.captureLocked()
}

// ============================================================================
// Introspection
// ============================================================================

// Stats returns a read-only snapshot of counters and per-domain outcomes.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	s := Stats{
		Running:   o.running.Load(),
		StartedAt: o.startedAt,
		Counters:  o.counters,
		Errors:    make(map[domain.ErrorCategory]int, len(o.errors)),
		Domains:   make([]DomainStats, 0, len(o.domains)),
	}
	for k, v := range o.errors {
		s.Errors[k] = v
	}
	for _, ds := range o.domains {
		s.Domains = append(s.Domains, ds.clone())
	}
	s.States = make(map[domain.ItemState]int, len(o.states)+2)
	for _, state := range o.states {
		s.States[state]++
	}
	o.mu.Unlock()

	for _, r := range o.queue.Results() {
		s.States[r.State()]++
	}
	s.Priority = analyzePending(o.queue.Pending())

	sort.Slice(s.Domains, func(i, j int) bool { return s.Domains[i].Domain < s.Domains[j].Domain })
	s.Queued, s.InFlight = o.queue.Counts()
	s.Terminal = o.queue.TerminalCount()
	s.Providers = o.cfg.Limiter.AllUsage()
	if o.cfg.Checkpoints != nil {
		s.LastCheckpoint = o.cfg.Checkpoints.Last()
	}
	return s
}

// Results returns every terminal result recorded so far.
func (o *Orchestrator) Results() []domain.ProcessingResult {
	return o.queue.Results()
}

// IsTerminal reports whether an item ID already has a final result.
func (o *Orchestrator) IsTerminal(id string) bool {
	return o.queue.IsTerminal(id)
}

func (o *Orchestrator) emit(r domain.ProcessingResult) {
	if o.cfg.Emitter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()
	if err := o.cfg.Emitter.Emit(ctx, r); err != nil {
		o.logger.Warn("Failed to emit result", "item", r.ItemID, "error", err)
	}
}

func (o *Orchestrator) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) updateQueueDepth() {
	pending, _ := o.queue.Counts()
	metrics.QueueDepth.Set(float64(pending))
}

// rawPayload keeps JSON payloads as-is and wraps anything else as a string.
func rawPayload(p []byte) json.RawMessage {
	if len(p) == 0 {
		return nil
	}
	if json.Valid(p) {
		return append(json.RawMessage(nil), p...)
	}
	b, _ := json.Marshal(string(p))
	return b
}
