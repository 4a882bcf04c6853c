package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/helixml/streamctl/internal/backend"
	"github.com/helixml/streamctl/internal/dispatch"
	"github.com/helixml/streamctl/internal/errs"
	ssync "github.com/helixml/streamctl/internal/sync"
	"github.com/helixml/streamctl/internal/task"
	"github.com/helixml/streamctl/internal/wire"
	"github.com/helixml/streamctl/pkg/frame"
)

// Decode runs the receive -> decode loop (spec.md §4.6): pop the
// latest VideoData off the dispatcher's single-slot video queue, run
// it through a DecoderStrategy, and push the result into a
// single-slot drop-newest output queue the renderer reads from.
type Decode struct {
	video     *dispatch.Queue[wire.VideoData]
	decoder   backend.DecoderStrategy
	logger    *slog.Logger
	task      *task.Task
	out       *dispatch.Queue[frame.Frame]
	Bandwidth *ssync.BandwidthMonitor
	FPS       *ssync.FPSCalculator
}

// NewDecode builds a Decode pipeline reading from the dispatcher's
// video queue.
func NewDecode(video *dispatch.Queue[wire.VideoData], dec backend.DecoderStrategy, logger *slog.Logger) *Decode {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decode{
		video:     video,
		decoder:   dec,
		logger:    logger,
		task:      task.New(),
		out:       dispatch.NewQueue[frame.Frame](1),
		Bandwidth: ssync.NewBandwidthMonitor(0),
		FPS:       ssync.NewFPSCalculator(0),
	}
}

// Frames returns the single-slot output queue a renderer pops from.
func (d *Decode) Frames() *dispatch.Queue[frame.Frame] {
	return d.out
}

// Start launches the decode loop.
func (d *Decode) Start(ctx context.Context) {
	d.task.Start(ctx, d.run)
}

// Stop halts and joins the loop.
func (d *Decode) Stop() {
	d.task.Stop()
}

func (d *Decode) run(ctx context.Context) {
	for d.task.Running() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		v, err := d.video.Pop()
		if err != nil {
			if errors.Is(err, errs.ErrNoDataAvailable) {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			d.logger.Warn("video queue pop error", "err", err)
			continue
		}
		d.Bandwidth.Register(len(v.Body.EncodedFrame))

		decoded, err := d.decoder.DecodePacket(v)
		if err != nil {
			if errors.Is(err, errs.ErrDecode) {
				d.logger.Warn("dropping undecodable video frame", "err", err)
				continue
			}
			d.logger.Warn("decode error", "err", err)
			continue
		}

		for _, df := range decoded {
			d.out.Push(frame.Frame{
				Width:     df.Width,
				Height:    df.Height,
				EncoderID: v.Body.EncoderID,
				Kind:      v.Body.FrameKind,
				RGB:       df.RGB,
			})
		}
		d.FPS.Tick()
	}
}
