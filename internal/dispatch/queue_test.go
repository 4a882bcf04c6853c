package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixml/streamctl/internal/errs"
)

func TestQueuePushPopFIFO(t *testing.T) {
	q := NewQueue[int](4)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	v, err := q.Pop()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = q.Pop()
	assert.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestQueuePopEmptyReturnsErrNoDataAvailable(t *testing.T) {
	q := NewQueue[int](1)
	_, err := q.Pop()
	assert.ErrorIs(t, err, errs.ErrNoDataAvailable)
}

// TestQueueDropsNewestWhenFull pins spec.md §4.4's backpressure policy:
// a full queue drops the newest item (the one being pushed), not the
// oldest.
func TestQueueDropsNewestWhenFull(t *testing.T) {
	q := NewQueue[int](1)
	q.Push(10)
	q.Push(20) // dropped: queue already holds one item

	v, err := q.Pop()
	assert.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, int64(1), q.Dropped())
}

func TestQueueDepthMinimumIsOne(t *testing.T) {
	q := NewQueue[int](0)
	q.Push(1)
	assert.Equal(t, 1, q.Len())
}

func TestQueuePopBlockingUnblocksOnDone(t *testing.T) {
	q := NewQueue[int](1)
	done := make(chan struct{})
	close(done)

	_, ok := q.PopBlocking(done)
	assert.False(t, ok)
}
