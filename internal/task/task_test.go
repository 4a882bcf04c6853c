package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStartRunsBody(t *testing.T) {
	tk := New()
	done := make(chan struct{})

	tk.Start(context.Background(), func(ctx context.Context) {
		close(done)
		<-ctx.Done()
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("body never ran")
	}
	assert.True(t, tk.Running())
	tk.Stop()
	assert.False(t, tk.Running())
}

func TestTaskStartIsNoopWhenAlreadyRunning(t *testing.T) {
	tk := New()
	starts := 0
	tk.Start(context.Background(), func(ctx context.Context) {
		starts++
		<-ctx.Done()
	})
	tk.Start(context.Background(), func(ctx context.Context) {
		starts++
		<-ctx.Done()
	})
	tk.Stop()
	require.Equal(t, 1, starts)
}

func TestTaskStopIsIdempotent(t *testing.T) {
	tk := New()
	tk.Start(context.Background(), func(ctx context.Context) { <-ctx.Done() })
	tk.Stop()
	tk.Stop() // must not panic or block
}

func TestTaskStopJoinsBody(t *testing.T) {
	tk := New()
	var stopped bool
	tk.Start(context.Background(), func(ctx context.Context) {
		<-ctx.Done()
		stopped = true
	})
	tk.Stop()
	assert.True(t, stopped, "Stop must block until the loop body has returned")
}
