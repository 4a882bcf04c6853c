package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/helixml/streamctl/internal/errs"
	"github.com/helixml/streamctl/internal/netio"
	"github.com/helixml/streamctl/internal/task"
	"github.com/helixml/streamctl/internal/wire"
)

// Default queue depths (spec.md §4.4).
const (
	VideoQueueDepth = 1
	InputQueueDepth = 64
)

// Dispatcher reads packets off a netio.Reader and routes each into its
// kind's bounded queue.
type Dispatcher struct {
	reader *netio.Reader
	logger *slog.Logger
	task   *task.Task

	Video      *Queue[wire.VideoData]
	MouseMove  *Queue[wire.MouseMove]
	MouseClick *Queue[wire.MouseClick]
	KeyEvent   *Queue[wire.KeyEvent]
}

// New builds a Dispatcher over reader.
func New(reader *netio.Reader, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		reader:     reader,
		logger:     logger,
		task:       task.New(),
		Video:      NewQueue[wire.VideoData](VideoQueueDepth),
		MouseMove:  NewQueue[wire.MouseMove](InputQueueDepth),
		MouseClick: NewQueue[wire.MouseClick](InputQueueDepth),
		KeyEvent:   NewQueue[wire.KeyEvent](InputQueueDepth),
	}
}

// Start launches the dispatch loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.task.Start(ctx, d.run)
}

// Stop halts the loop and joins it.
func (d *Dispatcher) Stop() {
	d.task.Stop()
}

func (d *Dispatcher) run(ctx context.Context) {
	resyncing := false
	for d.task.Running() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p, err := wire.Decode(d.reader)
		switch {
		case err == nil:
			resyncing = false
			d.route(p)

		case errors.Is(err, errs.ErrInvalidPacketType):
			if !resyncing {
				d.logger.Warn("invalid packet type, entering resync")
				resyncing = true
			}
			// Decode already performed the resync scan before
			// returning this error; loop straight back into Decode.

		case errors.Is(err, errs.ErrNoConnection), errors.Is(err, errs.ErrNoDataAvailable):
			time.Sleep(10 * time.Millisecond)

		case errors.Is(err, errs.ErrStopped):
			return

		default:
			d.logger.Error("dispatcher decode error", "err", err)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (d *Dispatcher) route(p wire.Packet) {
	switch v := p.(type) {
	case wire.VideoData:
		d.Video.Push(v)
	case wire.MouseMove:
		d.MouseMove.Push(v)
	case wire.MouseClick:
		d.MouseClick.Push(v)
	case wire.KeyEvent:
		d.KeyEvent.Push(v)
	case wire.Sync:
		// Consumed purely to keep the stream aligned; no queue.
	}
}
