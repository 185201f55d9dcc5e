package engine

import (
	"sync"

	"github.com/stillpoint/weft/internal/ir"
)

// TickBatch is one processing cycle's worth of input: the tick number and
// the fragments that arrived during it, in ingest order. An empty fragment
// list is a valid batch - silence is what drives lifecycle decay.
type TickBatch struct {
	Tick      int64
	Fragments []ir.Fragment
}

// tickQueue is a thread-safe FIFO queue of tick batches.
//
// Unbounded so that producers (ingestion taps) never block the engine's
// ordering guarantees. Thread-safety covers external enqueuing while the
// Run loop dequeues; in practice most usage is single-threaded.
type tickQueue struct {
	mu      sync.Mutex
	batches []TickBatch
	closed  bool
	signal  chan struct{} // buffered size 1, coalesces wakeups
}

func newTickQueue() *tickQueue {
	return &tickQueue{
		batches: make([]TickBatch, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a batch to the back of the queue.
// Returns false if the queue is closed.
func (q *tickQueue) Enqueue(b TickBatch) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.batches = append(q.batches, b)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *tickQueue) TryDequeue() (TickBatch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.batches) == 0 {
		return TickBatch{}, false
	}
	b := q.batches[0]
	q.batches[0] = TickBatch{} // release fragment slices to GC
	if len(q.batches) == 1 {
		q.batches = q.batches[:0]
	} else {
		q.batches = q.batches[1:]
	}
	return b, true
}

// Wait returns the signal channel. It fires when a batch is enqueued and
// closes when the queue closes.
func (q *tickQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending batches.
func (q *tickQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches)
}

// Close marks the queue closed and wakes any waiter.
func (q *tickQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

func (q *tickQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
