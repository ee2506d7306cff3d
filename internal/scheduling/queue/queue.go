// Package queue holds pending work items in priority order.
//
// Items are ordered by bucket (highest first), then score (highest first),
// then insertion sequence (earliest first). An item taken with Next is in
// flight until the caller either requeues it or marks it terminal. Once an
// ID is terminal it can never be queued again.
package queue

import (
	"container/heap"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/digest/internal/core/domain"
)

var (
	ErrNotInFlight     = errors.New("queue: item is not in flight")
	ErrAlreadyTerminal = errors.New("queue: item is already terminal")
)

// BucketFunc re-derives the bucket after a score change.
type BucketFunc func(score float64) domain.PriorityBucket

// Queue is safe for concurrent use; one mutex guards every operation.
type Queue struct {
	mu sync.Mutex

	ready    readyHeap
	delayed  delayedHeap
	ids      map[string]*entry
	inFlight map[string]*domain.WorkItem
	terminal map[string]domain.ProcessingResult

	seq    uint64
	bucket BucketFunc
	now    func() time.Time
}

type entry struct {
	item    *domain.WorkItem
	seq     uint64
	index   int
	delayed bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithBucketFunc makes Requeue recompute the bucket from the new score.
func WithBucketFunc(fn BucketFunc) Option {
	return func(q *Queue) { q.bucket = fn }
}

// WithClock overrides the clock used to release delayed items.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		ids:      make(map[string]*entry),
		inFlight: make(map[string]*domain.WorkItem),
		terminal: make(map[string]domain.ProcessingResult),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add queues item. It returns false, leaving the queue unchanged, when an
// item with the same ID is already pending, in flight or terminal.
func (q *Queue) Add(item *domain.WorkItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.knownLocked(item.ID) {
		return false
	}
	q.pushLocked(item)
	return true
}

func (q *Queue) knownLocked(id string) bool {
	if _, ok := q.ids[id]; ok {
		return true
	}
	if _, ok := q.inFlight[id]; ok {
		return true
	}
	_, ok := q.terminal[id]
	return ok
}

func (q *Queue) pushLocked(item *domain.WorkItem) {
	q.seq++
	e := &entry{item: item, seq: q.seq}
	q.ids[item.ID] = e
	if item.NotBefore.After(q.now()) {
		e.delayed = true
		heap.Push(&q.delayed, e)
		return
	}
	heap.Push(&q.ready, e)
}

// promoteLocked moves delayed items whose backoff has elapsed into the
// ready heap. Their original sequence numbers are kept.
func (q *Queue) promoteLocked() {
	now := q.now()
	for q.delayed.Len() > 0 && !q.delayed[0].item.NotBefore.After(now) {
		e := heap.Pop(&q.delayed).(*entry)
		e.delayed = false
		heap.Push(&q.ready, e)
	}
}

// Next removes and returns the highest-priority eligible item and marks it
// in flight. It returns false when nothing is eligible right now.
func (q *Queue) Next() (*domain.WorkItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.promoteLocked()
	if q.ready.Len() == 0 {
		return nil, false
	}
	e := heap.Pop(&q.ready).(*entry)
	delete(q.ids, e.item.ID)
	q.inFlight[e.item.ID] = e.item
	return e.item, true
}

// NextEligibleAt returns when the earliest delayed item becomes eligible.
// The zero time means an item is eligible now or the queue has no pending
// items; check Len to tell them apart.
func (q *Queue) NextEligibleAt() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.promoteLocked()
	if q.ready.Len() > 0 || q.delayed.Len() == 0 {
		return time.Time{}
	}
	return q.delayed[0].item.NotBefore
}

// Requeue returns an in-flight item to the queue with a new score.
func (q *Queue) Requeue(item *domain.WorkItem, newScore float64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.inFlight[item.ID]; !ok {
		return ErrNotInFlight
	}
	delete(q.inFlight, item.ID)

	item.Score = newScore
	if q.bucket != nil {
		item.Bucket = q.bucket(newScore)
	}
	q.pushLocked(item)
	return nil
}

// MarkTerminal records the final result for an in-flight item.
func (q *Queue) MarkTerminal(item *domain.WorkItem, result domain.ProcessingResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.terminal[item.ID]; ok {
		return ErrAlreadyTerminal
	}
	if _, ok := q.inFlight[item.ID]; !ok {
		return ErrNotInFlight
	}
	delete(q.inFlight, item.ID)
	result.ItemID = item.ID
	q.terminal[item.ID] = result
	return nil
}

// RecordTerminal loads a result produced by an earlier run. Any pending copy
// of the item is dropped. It returns false if the ID was already terminal.
func (q *Queue) RecordTerminal(result domain.ProcessingResult) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.terminal[result.ItemID]; ok {
		return false
	}
	if e, ok := q.ids[result.ItemID]; ok {
		q.removeLocked(e)
	}
	q.terminal[result.ItemID] = result
	return true
}

func (q *Queue) removeLocked(e *entry) {
	delete(q.ids, e.item.ID)
	if e.delayed {
		heap.Remove(&q.delayed, e.index)
		return
	}
	heap.Remove(&q.ready, e.index)
}

// Release returns every in-flight item to the queue unchanged. Used when
// workers are abandoned at shutdown.
func (q *Queue) Release() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, 0, len(q.inFlight))
	for id := range q.inFlight {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		item := q.inFlight[id]
		delete(q.inFlight, id)
		q.pushLocked(item)
	}
	return len(ids)
}

// Len returns the number of pending items, including delayed ones.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready.Len() + q.delayed.Len()
}

// Counts returns pending and in-flight totals read under one lock, so an
// item moving between the two is never missed.
func (q *Queue) Counts() (pending, inFlight int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready.Len() + q.delayed.Len(), len(q.inFlight)
}

// InFlightCount returns the number of items handed out by Next and not
// yet requeued or finalized.
func (q *Queue) InFlightCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

// Pending returns copies of the pending items in dequeue order.
func (q *Queue) Pending() []*domain.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]*entry, 0, q.ready.Len()+q.delayed.Len())
	entries = append(entries, q.ready...)
	entries = append(entries, q.delayed...)
	sort.Slice(entries, func(i, j int) bool { return less(entries[i], entries[j]) })

	out := make([]*domain.WorkItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.item.Clone())
	}
	return out
}

// InFlight returns copies of the in-flight items sorted by ID.
func (q *Queue) InFlight() []*domain.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*domain.WorkItem, 0, len(q.inFlight))
	for _, item := range q.inFlight {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TerminalCount returns the number of terminal results.
func (q *Queue) TerminalCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.terminal)
}

// IsTerminal reports whether id has a final result.
func (q *Queue) IsTerminal(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.terminal[id]
	return ok
}

// Results returns all terminal results ordered by completion time, then ID.
func (q *Queue) Results() []domain.ProcessingResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.ProcessingResult, 0, len(q.terminal))
	for _, r := range q.terminal {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.Before(out[j].CompletedAt)
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// ============================================================================
// Heaps
// ============================================================================

func less(a, b *entry) bool {
	if a.item.Bucket != b.item.Bucket {
		return a.item.Bucket > b.item.Bucket
	}
	if a.item.Score != b.item.Score {
		return a.item.Score > b.item.Score
	}
	return a.seq < b.seq
}

type readyHeap []*entry

func (h readyHeap) Len() int           { return len(h) }
func (h readyHeap) Less(i, j int) bool { return less(h[i], h[j]) }
func (h readyHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *readyHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type delayedHeap []*entry

func (h delayedHeap) Len() int { return len(h) }
func (h delayedHeap) Less(i, j int) bool {
	a, b := h[i].item.NotBefore, h[j].item.NotBefore
	if !a.Equal(b) {
		return a.Before(b)
	}
	return h[i].seq < h[j].seq
}
func (h delayedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *delayedHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *delayedHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
