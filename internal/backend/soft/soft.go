// Package soft is the no-cgo fallback encoder/decoder pair: it ships
// raw RGB through github.com/klauspost/compress's zstd codec instead
// of an H.264 pipeline, so a build without GStreamer available still
// has a working backend.EncoderStrategy/backend.DecoderStrategy
// (SPEC_FULL.md §2 domain stack). Grounded in the teacher's pattern of
// a _nocgo.go twin for every cgo-backed desktop component
// (gst_pipeline_nocgo.go, wayland_input_nocgo.go): this package plays
// that twin's role for encode/decode.
package soft

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/helixml/streamctl/internal/backend"
	"github.com/helixml/streamctl/internal/errs"
	"github.com/helixml/streamctl/internal/wire"
)

// encoderID identifies this package's codec in the nested VideoData
// body, distinct from internal/backend/gst's (spec.md §3: encoder_id
// only needs to distinguish encoder implementations, not be globally
// unique).
const encoderID uint32 = 2

// Encoder zstd-compresses the raw RGB buffer and always reports
// FULL_FRAME; it never emits a delta, matching Open Question 2's
// decision to leave DIFF_FRAME unimplemented rather than invent a
// diffing scheme nothing downstream can decode either.
type Encoder struct {
	enc *zstd.Encoder
}

// NewEncoder builds an Encoder.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("soft encoder: %w", err)
	}
	return &Encoder{enc: enc}, nil
}

// EncodeFrame compresses rgb and returns the nested VideoData body
// wrapping it; width/height travel alongside in the VideoData header
// so the encoder doesn't need to embed them.
func (e *Encoder) EncodeFrame(width, height uint32, rgb []byte) ([]byte, error) {
	return wire.EncodeBody(wire.VideoDataBody{
		EncoderID:    encoderID,
		FrameKind:    wire.FullFrame,
		EncodedFrame: e.enc.EncodeAll(rgb, nil),
	}), nil
}

// Close releases the encoder's resources.
func (e *Encoder) Close() error {
	return e.enc.Close()
}

// Decoder reverses Encoder: zstd-decompress back to raw RGB.
type Decoder struct {
	dec    *zstd.Decoder
	width  uint32
	height uint32
}

// NewDecoder builds a Decoder for frames of width x height.
func NewDecoder(width, height uint32) (*Decoder, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("soft decoder: %w", err)
	}
	return &Decoder{dec: dec, width: width, height: height}, nil
}

// DecodePacket decompresses v's body and returns the one resulting
// frame. A DIFF_FRAME body errors: there is no base frame to diff
// against (Open Question 2).
func (d *Decoder) DecodePacket(v wire.VideoData) ([]backend.DecodedFrame, error) {
	if v.Body.FrameKind != wire.FullFrame {
		return nil, fmt.Errorf("soft decoder: %w: diff-frame decode not implemented", errs.ErrDecode)
	}
	rgb, err := d.dec.DecodeAll(v.Body.EncodedFrame, nil)
	if err != nil {
		return nil, fmt.Errorf("soft decoder: %w: %v", errs.ErrDecode, err)
	}
	return []backend.DecodedFrame{{Width: d.width, Height: d.height, RGB: rgb}}, nil
}

// Close releases the decoder's resources.
func (d *Decoder) Close() {
	d.dec.Close()
}
