// Package pipeline runs the two frame loops the spec names as single
// tasks (spec.md §4.5, §4.6, components C5/C6): capture+encode+send on
// the Obedient Agent, receive+decode on the Control Agent. Both are
// grounded in the teacher's ws_stream.go write/read goroutines,
// generalized from a websocket JSON envelope to the wire package's
// binary packets and from a single capture/encode implementation to
// the pluggable backend.CaptureStrategy/EncoderStrategy/
// DecoderStrategy traits.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/helixml/streamctl/internal/backend"
	ssync "github.com/helixml/streamctl/internal/sync"
	"github.com/helixml/streamctl/internal/task"
	"github.com/helixml/streamctl/internal/wire"
)

// Capture runs the capture -> encode -> send loop (spec.md §4.5).
type Capture struct {
	capture   backend.CaptureStrategy
	encoder   backend.EncoderStrategy
	writer    *wire.PacketWriter
	pacer     *ssync.Pacer
	logger    *slog.Logger
	task      *task.Task
	Bandwidth *ssync.BandwidthMonitor
	FPS       *ssync.FPSCalculator
}

// NewCapture builds a Capture pipeline targeting fps frames per
// second.
func NewCapture(cap backend.CaptureStrategy, enc backend.EncoderStrategy, w *wire.PacketWriter, fps int, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		capture:   cap,
		encoder:   enc,
		writer:    w,
		pacer:     ssync.NewPacer(fps),
		logger:    logger,
		task:      task.New(),
		Bandwidth: ssync.NewBandwidthMonitor(0),
		FPS:       ssync.NewFPSCalculator(0),
	}
}

// Start launches the capture loop.
func (c *Capture) Start(ctx context.Context) {
	c.task.Start(ctx, c.run)
}

// Stop halts and joins the loop.
func (c *Capture) Stop() {
	c.task.Stop()
}

func (c *Capture) run(ctx context.Context) {
	for c.task.Running() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.pacer.Tick()

		img, err := c.capture.CaptureScreen()
		if err != nil {
			c.logger.Warn("capture error", "err", err)
			continue
		}
		if img == nil {
			// No frame ready this tick (spec.md §4.5 step 1).
			continue
		}

		body, err := c.encoder.EncodeFrame(img.Width, img.Height, img.RGB)
		if err != nil {
			c.logger.Warn("encode error", "err", err)
			continue
		}
		if body == nil {
			continue
		}

		packet := wire.RawVideoData{
			Width:  img.Width,
			Height: img.Height,
			Body:   body,
		}
		if err := c.writer.WritePacket(packet); err != nil {
			c.logger.Warn("send video frame failed", "err", err)
			continue
		}

		c.Bandwidth.Register(len(body))
		c.FPS.Tick()
	}
}
