//go:build cgo

package gst

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"

	"github.com/helixml/streamctl/internal/backend"
	"github.com/helixml/streamctl/internal/errs"
	"github.com/helixml/streamctl/internal/wire"
)

// Decoder turns H.264 Annex-B bytes back into raw RGB frames via an
// appsrc ! h264parse ! avdec_h264 ! videoconvert ! appsink pipeline,
// mirroring Encoder.
type Decoder struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	src      *app.Source
	sink     *app.Sink
	width    uint32
	height   uint32
	out      chan backend.DecodedFrame
}

// NewDecoder builds a Decoder for frames of exactly width x height.
func NewDecoder(width, height uint32) (*Decoder, error) {
	initGst()

	pipelineStr := "appsrc name=h264src format=time is-live=true do-timestamp=true caps=video/x-h264,stream-format=byte-stream,alignment=au ! " +
		"h264parse ! avdec_h264 ! videoconvert ! video/x-raw,format=RGB ! appsink name=rgbsink"

	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return nil, fmt.Errorf("gst decoder: parse pipeline: %w", err)
	}

	srcElem, err := pipeline.GetElementByName("h264src")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("gst decoder: find appsrc: %w", err)
	}
	sinkElem, err := pipeline.GetElementByName("rgbsink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("gst decoder: find appsink: %w", err)
	}

	d := &Decoder{
		pipeline: pipeline,
		src:      app.SrcFromElement(srcElem),
		sink:     app.SinkFromElement(sinkElem),
		width:    width,
		height:   height,
		out:      make(chan backend.DecodedFrame, 4),
	}

	d.sink.SetProperty("emit-signals", true)
	d.sink.SetProperty("max-buffers", uint(2))
	d.sink.SetProperty("drop", true)
	d.sink.SetProperty("sync", false)
	d.sink.SetCallbacks(&app.SinkCallbacks{NewSampleFunc: d.onSample})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("gst decoder: set playing: %w", err)
	}
	return d, nil
}

func (d *Decoder) onSample(sink *app.Sink) gst.FlowReturn {
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

	frame := backend.DecodedFrame{Width: d.width, Height: d.height, RGB: rgb}
	select {
	case d.out <- frame:
	default:
	}
	return gst.FlowOK
}

// DecodePacket pushes one VideoData's nested FULL_FRAME body into the
// pipeline and returns whatever decoded frames are ready. A
// DIFF_FRAME body is rejected (spec.md §9 Open Question 2 decision:
// delta decode is not implemented).
func (d *Decoder) DecodePacket(v wire.VideoData) ([]backend.DecodedFrame, error) {
	if v.Body.FrameKind != wire.FullFrame {
		return nil, fmt.Errorf("gst decoder: %w: diff-frame decode not implemented", errs.ErrDecode)
	}

	buf := gst.NewBufferFromBytes(v.Body.EncodedFrame)
	if ret := d.src.PushBuffer(buf); ret != gst.FlowOK {
		return nil, fmt.Errorf("gst decoder: push buffer: %v", ret)
	}

	select {
	case frame := <-d.out:
		return []backend.DecodedFrame{frame}, nil
	case <-time.After(200 * time.Millisecond):
		return nil, nil
	}
}

// Close tears down the pipeline.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipeline == nil {
		return nil
	}
	d.src.EndStream()
	err := d.pipeline.SetState(gst.StateNull)
	d.pipeline = nil
	close(d.out)
	return err
}
