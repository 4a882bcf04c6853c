//go:build !cgo

// Package gst provides stubs for the GStreamer-backed capture/encoder/
// decoder when CGO is disabled, matching the teacher's own
// `_nocgo.go` twin convention (api/pkg/desktop/gst_pipeline_nocgo.go):
// each cgo-backed type still exists and satisfies the same
// backend.CaptureStrategy/EncoderStrategy/DecoderStrategy interfaces,
// it just fails at construction time instead of at compile time.
package gst

import (
	"fmt"

	"github.com/helixml/streamctl/internal/backend"
	"github.com/helixml/streamctl/internal/wire"
)

var errNoCgo = fmt.Errorf("gst: built without cgo, GStreamer backend unavailable")

// Capture is the no-cgo stub for the PipeWire-backed capture strategy.
type Capture struct{}

// NewCapture always fails in a no-cgo build; use the "soft" backend
// for the encoder/decoder, or rebuild with cgo enabled for capture.
func NewCapture(nodeID uint32, width, height uint32) (*Capture, error) {
	return nil, errNoCgo
}

func (c *Capture) CaptureScreen() (*backend.Image, error) { return nil, errNoCgo }
func (c *Capture) MonitorWidth() uint32                    { return 0 }
func (c *Capture) MonitorHeight() uint32                   { return 0 }
func (c *Capture) Close() error                            { return nil }

// Encoder is the no-cgo stub for the x264 encoder.
type Encoder struct{}

// NewEncoder always fails in a no-cgo build.
func NewEncoder(width, height uint32) (*Encoder, error) {
	return nil, errNoCgo
}

func (e *Encoder) EncodeFrame(width, height uint32, rgb []byte) ([]byte, error) {
	return nil, errNoCgo
}
func (e *Encoder) Close() error { return nil }

// Decoder is the no-cgo stub for the avdec_h264 decoder.
type Decoder struct{}

// NewDecoder always fails in a no-cgo build.
func NewDecoder(width, height uint32) (*Decoder, error) {
	return nil, errNoCgo
}

func (d *Decoder) DecodePacket(v wire.VideoData) ([]backend.DecodedFrame, error) {
	return nil, errNoCgo
}
func (d *Decoder) Close() error { return nil }
