//go:build cgo

// Package gst implements backend.EncoderStrategy and
// backend.DecoderStrategy over github.com/go-gst/go-gst, grounded in
// the teacher's api/pkg/desktop/gst_pipeline.go (appsink pull side)
// and mic_stream.go (appsrc push side). Encode pushes raw RGB into an
// x264enc pipeline and pulls H.264 NAL units back out; Decode runs the
// mirror pipeline.
package gst

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"

	"github.com/helixml/streamctl/internal/wire"
)

var initOnce sync.Once

func initGst() {
	initOnce.Do(func() { gst.Init(nil) })
}

// encoderID identifies this package's codec in the nested VideoData
// body (spec.md §4.5: "the default encoder... emits FULL_FRAME for
// every frame at encoder id 1"). Fixed per EncoderStrategy
// implementation, not derived per-process, so a DecoderStrategy can
// tell which codec produced a given body.
const encoderID uint32 = 1

// Encoder turns raw RGB frames into H.264 Annex-B bytes via an
// appsrc ! videoconvert ! x264enc ! h264parse ! appsink pipeline.
// Only FULL_FRAME output is produced (spec.md §9 decision: DIFF_FRAME
// is rejected rather than synthesized).
type Encoder struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	src      *app.Source
	sink     *app.Sink
	width    uint32
	height   uint32
	out      chan []byte
}

// NewEncoder builds an Encoder for frames of exactly width x height.
// A new Encoder must be built if the capture resolution changes.
func NewEncoder(width, height uint32) (*Encoder, error) {
	initGst()

	pipelineStr := fmt.Sprintf(
		"appsrc name=rgbsrc format=time is-live=true do-timestamp=true "+
			"caps=video/x-raw,format=RGB,width=%d,height=%d,framerate=30/1 ! "+
			"videoconvert ! x264enc tune=zerolatency speed-preset=ultrafast ! "+
			"h264parse config-interval=1 ! appsink name=h264sink",
		width, height)

	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return nil, fmt.Errorf("gst encoder: parse pipeline: %w", err)
	}

	srcElem, err := pipeline.GetElementByName("rgbsrc")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("gst encoder: find appsrc: %w", err)
	}
	sinkElem, err := pipeline.GetElementByName("h264sink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("gst encoder: find appsink: %w", err)
	}

	e := &Encoder{
		pipeline: pipeline,
		src:      app.SrcFromElement(srcElem),
		sink:     app.SinkFromElement(sinkElem),
		width:    width,
		height:   height,
		out:      make(chan []byte, 4),
	}

	e.sink.SetProperty("emit-signals", true)
	e.sink.SetProperty("max-buffers", uint(4))
	e.sink.SetProperty("drop", true)
	e.sink.SetProperty("sync", false)
	e.sink.SetCallbacks(&app.SinkCallbacks{NewSampleFunc: e.onSample})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("gst encoder: set playing: %w", err)
	}
	return e, nil
}

func (e *Encoder) onSample(sink *app.Sink) gst.FlowReturn {
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

	data := make([]byte, len(mapInfo.Bytes()))
	copy(data, mapInfo.Bytes())

	select {
	case e.out <- data:
	default:
		// Drop: the outer capture pipeline (spec.md §4.5) only ever
		// wants the latest frame anyway.
	}
	return gst.FlowOK
}

// EncodeFrame pushes one RGB frame in and returns the nested VideoData
// body wrapping the next H.264 NAL unit the pipeline emits, or
// (nil, nil) if none arrives within a short deadline (a dropped or
// still-buffering frame).
func (e *Encoder) EncodeFrame(width, height uint32, rgb []byte) ([]byte, error) {
	if width != e.width || height != e.height {
		return nil, fmt.Errorf("gst encoder: resolution changed %dx%d -> %dx%d, rebuild required", e.width, e.height, width, height)
	}

	buf := gst.NewBufferFromBytes(rgb)
	if ret := e.src.PushBuffer(buf); ret != gst.FlowOK {
		return nil, fmt.Errorf("gst encoder: push buffer: %v", ret)
	}

	select {
	case nal := <-e.out:
		return wire.EncodeBody(wire.VideoDataBody{
			EncoderID:    encoderID,
			FrameKind:    wire.FullFrame,
			EncodedFrame: nal,
		}), nil
	case <-time.After(200 * time.Millisecond):
		return nil, nil
	}
}

// Close tears down the pipeline.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pipeline == nil {
		return nil
	}
	e.src.EndStream()
	err := e.pipeline.SetState(gst.StateNull)
	e.pipeline = nil
	close(e.out)
	return err
}
