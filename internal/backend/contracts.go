// Package backend declares the pluggable collaborator traits the core
// transport treats as capability objects (spec.md §6): screen
// capture, frame encode/decode, and OS input injection. The core
// never reinterprets what these return beyond the wire-level fields
// spec.md names.
package backend

import "github.com/helixml/streamctl/internal/wire"

// Image is one captured frame, RGB row-major (spec.md §6
// CaptureStrategy).
type Image struct {
	Width  uint32
	Height uint32
	RGB    []byte
}

// CaptureStrategy grabs frames from a screen.
type CaptureStrategy interface {
	// CaptureScreen grabs one frame, or (nil, nil) on a transient grab
	// failure (spec.md §4.5 step 1: "May return 'no image'").
	CaptureScreen() (*Image, error)
	MonitorWidth() uint32
	MonitorHeight() uint32
}

// EncoderStrategy turns a captured frame into a VideoData body.
type EncoderStrategy interface {
	// EncodeFrame returns the fully serialised nested VideoData body
	// (encoder_id, frame_kind, length-prefixed encoded_frame — spec.md
	// §6, built with wire.EncodeBody), or (nil, nil) if nothing should
	// be sent this tick. The core treats this as opaque and sends it
	// unparsed via wire.RawVideoData; it does not assign encoder_id or
	// frame_kind itself, so an implementation adding DIFF_FRAME support
	// never requires a core change.
	EncodeFrame(width, height uint32, rgb []byte) ([]byte, error)
}

// DecoderStrategy turns a received VideoData packet into zero or more
// decoded frames.
type DecoderStrategy interface {
	// DecodePacket may return an empty slice if more data is needed,
	// and may return more than one frame for a future multi-frame
	// codec (spec.md §6).
	DecodePacket(v wire.VideoData) ([]DecodedFrame, error)
}

// DecodedFrame is a DecoderStrategy's output before internal/pipeline
// wraps it as a pkg/frame.Frame together with its source VideoData.
type DecodedFrame struct {
	Width  uint32
	Height uint32
	RGB    []byte
}

// InputBackend injects input events into the OS (spec.md §6). All
// errors are non-fatal to the caller (spec.md §4.7, §7
// "InputBackendError").
type InputBackend interface {
	MouseMove(x, y uint32) error
	MouseDown(x, y uint32, button wire.MouseButton) error
	MouseUp(x, y uint32, button wire.MouseButton) error
	Scroll(delta int32, x, y uint32) error
	KeyDown(name string) error
	KeyUp(name string) error
}
