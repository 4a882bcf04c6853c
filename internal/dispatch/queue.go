// Package dispatch implements the packet dispatcher (spec.md §4.4,
// component C4): one task that decodes packets off the wire and
// routes each into its kind's bounded queue, single producer
// (dispatcher), single consumer (a pipeline stage or input replay).
package dispatch

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/helixml/streamctl/internal/errs"
)

// Queue is a bounded, single-producer/single-consumer FIFO with
// drop-newest overflow (spec.md §3 "Per-type packet queue").
type Queue[T any] struct {
	ch      chan T
	dropped *xsync.Counter
}

// NewQueue builds a queue of the given depth.
func NewQueue[T any](depth int) *Queue[T] {
	if depth < 1 {
		depth = 1
	}
	return &Queue[T]{ch: make(chan T, depth), dropped: xsync.NewCounter()}
}

// Push enqueues v, dropping it if the queue is full rather than
// blocking the dispatcher.
func (q *Queue[T]) Push(v T) {
	select {
	case q.ch <- v:
	default:
		q.dropped.Add(1)
	}
}

// Pop is a non-blocking pop; it returns ErrNoDataAvailable (spec.md
// §4.4) if the queue was empty.
func (q *Queue[T]) Pop() (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	default:
		var zero T
		return zero, errs.ErrNoDataAvailable
	}
}

// PopBlocking waits for an item or for done to close.
func (q *Queue[T]) PopBlocking(done <-chan struct{}) (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	case <-done:
		var zero T
		return zero, false
	}
}

// Len reports how many items are currently queued (spec.md §8 "Queue
// bounds" test hook).
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Dropped reports the running count of drop-newest overflow events.
func (q *Queue[T]) Dropped() int64 {
	return q.dropped.Value()
}
