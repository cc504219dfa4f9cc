// Package queue implements the bounded single-producer/multi-consumer work
// queue that sits between the capture thread and the worker pool.
package queue

import (
	"sync"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
)

// MetricsRecorder is the slice of the metrics core the queue needs. It is
// satisfied by *metrics.Metrics; the interface exists so the queue package
// does not need to import the metrics core, and so queue_test.go can use a
// bare counter instead.
//
// The spec places the queue_drops increment exclusively inside the queue's
// failed enqueue path, so callers of Enqueue must not also increment it.
type MetricsRecorder interface {
	IncQueueDrops()
	UpdateQueueDepthMax(depth uint32)
}

// WorkQueue is a FIFO of packet records with a fixed maximum depth. Enqueue
// never blocks: a full queue fails immediately and increments queue_drops on
// the attached metrics recorder. Dequeue blocks until a record is available
// or the queue is shut down.
//
// The queue is the only structure touched by both the capture thread and the
// worker goroutines; everything else in the pipeline is either lock-free
// atomics or exclusively owned by one goroutine at a time.
type WorkQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []*core.PacketRecord
	maxDepth int
	shutdown bool

	metrics MetricsRecorder
}

// New creates a work queue with the given maximum depth, reporting drops and
// the depth watermark into metrics.
func New(maxDepth int, metrics MetricsRecorder) *WorkQueue {
	q := &WorkQueue{
		items:    make([]*core.PacketRecord, 0, maxDepth),
		maxDepth: maxDepth,
		metrics:  metrics,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends rec to the queue. Returns core.ErrQueueFull if the queue is
// already at maxDepth; the caller owns the record in that case and must
// discard it itself. The queue_depth_max watermark is updated via a
// compare-and-set loop (inside the metrics recorder) on every successful
// enqueue.
func (q *WorkQueue) Enqueue(rec *core.PacketRecord) error {
	q.mu.Lock()
	if len(q.items) >= q.maxDepth {
		q.mu.Unlock()
		q.metrics.IncQueueDrops()
		return core.ErrQueueFull
	}
	q.items = append(q.items, rec)
	depth := uint32(len(q.items))
	q.mu.Unlock()

	q.cond.Signal()
	q.metrics.UpdateQueueDepthMax(depth)
	return nil
}

// DequeueBlocking blocks until a record is available or the queue has been
// shut down and drained, in which case it returns core.ErrQueueShutdown.
func (q *WorkQueue) DequeueBlocking() (*core.PacketRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.shutdown {
		q.cond.Wait()
	}
	if len(q.items) == 0 && q.shutdown {
		return nil, core.ErrQueueShutdown
	}

	rec := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return rec, nil
}

// Shutdown flips the queue into shutdown mode and wakes every blocked
// dequeuer. Records still queued stay in the queue: DequeueBlocking keeps
// returning them until the queue is empty, and Drain removes whatever is
// left.
func (q *WorkQueue) Shutdown() {
	q.mu.Lock()
	q.shutdown = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Drain removes and returns every record still queued, leaving the queue
// empty. Used at pool teardown to account for and release records that were
// never dequeued by a worker.
func (q *WorkQueue) Drain() []*core.PacketRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	leftover := q.items
	q.items = nil
	return leftover
}

// Len reports the current queue depth.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
