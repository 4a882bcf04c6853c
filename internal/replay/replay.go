// Package replay runs the input replay loops on the Obedient Agent
// side (spec.md §4.7, component C7): pop mouse/keyboard packets off
// the dispatcher's per-kind queues and inject them through an
// InputBackend. Grounded in the teacher's ws_input.go handler
// (decoded websocket input messages dispatched into WaylandInput
// calls), generalized to three independent queue-draining loops
// instead of one inbound message switch.
package replay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/helixml/streamctl/internal/backend"
	"github.com/helixml/streamctl/internal/dispatch"
	"github.com/helixml/streamctl/internal/errs"
	"github.com/helixml/streamctl/internal/task"
	"github.com/helixml/streamctl/internal/wire"
)

// Replay drains a Dispatcher's input queues into an InputBackend.
// Every backend call error is logged and dropped (spec.md §4.7, §7
// "InputBackendError": input replay never stops or propagates a
// backend failure).
type Replay struct {
	backend backend.InputBackend
	logger  *slog.Logger

	mouseMove  *dispatch.Queue[wire.MouseMove]
	mouseClick *dispatch.Queue[wire.MouseClick]
	keyEvent   *dispatch.Queue[wire.KeyEvent]

	moveTask  *task.Task
	clickTask *task.Task
	keyTask   *task.Task
}

// New builds a Replay draining the three given queues.
func New(in backend.InputBackend, mouseMove *dispatch.Queue[wire.MouseMove], mouseClick *dispatch.Queue[wire.MouseClick], keyEvent *dispatch.Queue[wire.KeyEvent], logger *slog.Logger) *Replay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replay{
		backend:    in,
		logger:     logger,
		mouseMove:  mouseMove,
		mouseClick: mouseClick,
		keyEvent:   keyEvent,
		moveTask:   task.New(),
		clickTask:  task.New(),
		keyTask:    task.New(),
	}
}

// Start launches the three independent drain loops (spec.md §4.4:
// each kind's queue has its own single consumer).
func (r *Replay) Start(ctx context.Context) {
	r.moveTask.Start(ctx, r.runMove)
	r.clickTask.Start(ctx, r.runClick)
	r.keyTask.Start(ctx, r.runKey)
}

// Stop halts and joins all three loops.
func (r *Replay) Stop() {
	r.moveTask.Stop()
	r.clickTask.Stop()
	r.keyTask.Stop()
}

func (r *Replay) runMove(ctx context.Context) {
	for r.moveTask.Running() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m, err := r.mouseMove.Pop()
		if err != nil {
			if errors.Is(err, errs.ErrNoDataAvailable) {
				time.Sleep(2 * time.Millisecond)
				continue
			}
			continue
		}
		if err := r.backend.MouseMove(m.X, m.Y); err != nil {
			r.logger.Debug("input backend mouse move failed", "err", err)
		}
	}
}

func (r *Replay) runClick(ctx context.Context) {
	for r.clickTask.Running() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		c, err := r.mouseClick.Pop()
		if err != nil {
			if errors.Is(err, errs.ErrNoDataAvailable) {
				time.Sleep(2 * time.Millisecond)
				continue
			}
			continue
		}
		if err := r.dispatchClick(c); err != nil {
			r.logger.Debug("input backend mouse click failed", "err", err)
		}
	}
}

// dispatchClick routes a MouseClick per spec.md §4.7: LEFT/RIGHT drive
// MouseDown/MouseUp by state, WHEEL_UP/WHEEL_DOWN drive a one-tick
// Scroll regardless of state.
func (r *Replay) dispatchClick(c wire.MouseClick) error {
	switch c.Button {
	case wire.ButtonWheelUp:
		return r.backend.Scroll(1, c.X, c.Y)
	case wire.ButtonWheelDn:
		return r.backend.Scroll(-1, c.X, c.Y)
	default:
		if c.State == wire.StatePress {
			return r.backend.MouseDown(c.X, c.Y, c.Button)
		}
		return r.backend.MouseUp(c.X, c.Y, c.Button)
	}
}

func (r *Replay) runKey(ctx context.Context) {
	for r.keyTask.Running() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		k, err := r.keyEvent.Pop()
		if err != nil {
			if errors.Is(err, errs.ErrNoDataAvailable) {
				time.Sleep(2 * time.Millisecond)
				continue
			}
			continue
		}
		var berr error
		if k.State == wire.StatePress {
			berr = r.backend.KeyDown(k.Key)
		} else {
			berr = r.backend.KeyUp(k.Key)
		}
		if berr != nil {
			r.logger.Debug("input backend key event failed", "err", berr)
		}
	}
}
