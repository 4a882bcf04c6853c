//go:build cgo

package gst

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"

	"github.com/helixml/streamctl/internal/backend"
)

// Capture is a backend.CaptureStrategy reading RGB frames off a
// PipeWire node published by a portal.Session, via
// pipewiresrc ! videoconvert ! appsink. Grounded in the teacher's
// GstPipeline (gst_pipeline.go), generalized from an H.264-producing
// pipeline to a raw-RGB-producing one feeding a separate
// EncoderStrategy.
type Capture struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	sink     *app.Sink
	width    uint32
	height   uint32
	latest   chan *backend.Image
}

// NewCapture opens a pipewiresrc against nodeID and negotiates RGB
// output at width x height.
func NewCapture(nodeID uint32, width, height uint32) (*Capture, error) {
	initGst()

	pipelineStr := fmt.Sprintf(
		"pipewiresrc path=%d ! videoconvert ! video/x-raw,format=RGB,width=%d,height=%d ! appsink name=rgbsink",
		nodeID, width, height)

	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return nil, fmt.Errorf("gst capture: parse pipeline: %w", err)
	}
	sinkElem, err := pipeline.GetElementByName("rgbsink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("gst capture: find appsink: %w", err)
	}

	c := &Capture{
		pipeline: pipeline,
		sink:     app.SinkFromElement(sinkElem),
		width:    width,
		height:   height,
		latest:   make(chan *backend.Image, 1),
	}
	c.sink.SetProperty("emit-signals", true)
	c.sink.SetProperty("max-buffers", uint(1))
	c.sink.SetProperty("drop", true)
	c.sink.SetProperty("sync", false)
	c.sink.SetCallbacks(&app.SinkCallbacks{NewSampleFunc: c.onSample})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("gst capture: set playing: %w", err)
	}
	return c, nil
}

func (c *Capture) onSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}
	mapInfo := buffer.Map(gst.MapRead)
	if mapInfo == nil {
		return gst.FlowOK
	}
	defer buffer.Unmap()

	rgb := make([]byte, len(mapInfo.Bytes()))
	copy(rgb, mapInfo.Bytes())

	img := &backend.Image{Width: c.width, Height: c.height, RGB: rgb}
	// Drain any stale frame first so the newest one always wins
	// (single-slot, spec.md §4.5 "most recent frame only").
	select {
	case <-c.latest:
	default:
	}
	select {
	case c.latest <- img:
	default:
	}
	return gst.FlowOK
}

// CaptureScreen returns the most recent frame, or (nil, nil) if none
// has arrived yet within a short deadline (spec.md §4.5 step 1:
// capture may return "no image").
func (c *Capture) CaptureScreen() (*backend.Image, error) {
	select {
	case img := <-c.latest:
		return img, nil
	case <-time.After(100 * time.Millisecond):
		return nil, nil
	}
}

func (c *Capture) MonitorWidth() uint32  { return c.width }
func (c *Capture) MonitorHeight() uint32 { return c.height }

// Close tears down the pipeline.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline == nil {
		return nil
	}
	err := c.pipeline.SetState(gst.StateNull)
	c.pipeline = nil
	return err
}
