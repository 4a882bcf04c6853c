// Package task gives every long-running loop in this module (the
// dispatcher, the two pipelines, input replay) one composable shape
// instead of each reimplementing a running flag and a join handle.
// Grounded in spec.md §9's design note ("Multiple inheritance →
// composition: re-express as a Task struct owning running:
// MutexCell<bool> + a handle") and wired to
// github.com/sourcegraph/conc's structured goroutine group so a panic
// inside a loop body surfaces instead of silently killing the task.
package task

import (
	"context"

	"github.com/sourcegraph/conc"

	"github.com/helixml/streamctl/internal/errs"
	ssync "github.com/helixml/streamctl/internal/sync"
)

// Task runs a single cancellable loop body exactly once between a
// Start and a Stop. Start/Stop are idempotent and Stop joins the
// loop (spec.md §5 "Cancellation").
type Task struct {
	running *ssync.Cell[bool]
	cancel  context.CancelFunc
	wg      conc.WaitGroup
}

// New builds an unstarted Task.
func New() *Task {
	return &Task{running: ssync.NewCell(false)}
}

// Running reports whether the task's loop is currently expected to be
// running. Loop bodies poll this (or ctx.Done()) at every iteration.
func (t *Task) Running() bool {
	return t.running.Get()
}

// Start runs body in its own goroutine under a derived, cancellable
// context. Calling Start while already running is a no-op.
func (t *Task) Start(ctx context.Context, body func(ctx context.Context)) {
	if t.running.Get() {
		return
	}
	t.running.Set(true)

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Go(func() {
		body(ctx)
	})
}

// Stop flips the running flag, cancels the context, and joins the
// loop goroutine. Idempotent.
func (t *Task) Stop() {
	if !t.running.Get() {
		return
	}
	t.running.Set(false)
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

// StoppedErr aliases errs.ErrStopped, which a blocking operation
// (netio.Reader.Ensure) returns when its stop hook fires; a loop body
// that sees it returns (spec.md §7 "Stopped").
var StoppedErr = errs.ErrStopped
