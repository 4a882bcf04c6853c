// Package wire implements the packet tagged union and its codec,
// including mid-stream resynchronisation (spec.md §3, §4.3, component
// C3). Grounded in the teacher's mutex-guarded, directly-traceable I/O
// style (api/pkg/desktop/ws_stream.go) and in original_source/decode.py
// + packet.py for which fields belong to which tag.
package wire

import (
	"fmt"

	"github.com/helixml/streamctl/internal/errs"
	"github.com/helixml/streamctl/internal/netio"
)

// Encode writes p to w per spec.md §3.
func Encode(w *netio.Writer, p Packet) error {
	if err := w.WriteUint8(uint8(p.Tag())); err != nil {
		return err
	}
	switch v := p.(type) {
	case Sync:
		// Length-prefixed like any other bytes blob (spec.md §8
		// Scenario 5: "00 00 00 00 08 00 01 ..." — tag, u32 length=8,
		// then the 8-byte sequence), not a bare 8-byte payload.
		return w.WriteBytes(syncSequence[:])
	case VideoData:
		return encodeVideoData(w, v)
	case RawVideoData:
		return encodeRawVideoData(w, v)
	case MouseClick:
		if err := w.WriteUint8(uint8(v.Button)); err != nil {
			return err
		}
		if err := w.WriteUint8(uint8(v.State)); err != nil {
			return err
		}
		if err := w.WriteUint32(v.X); err != nil {
			return err
		}
		return w.WriteUint32(v.Y)
	case MouseMove:
		if err := w.WriteUint32(v.X); err != nil {
			return err
		}
		return w.WriteUint32(v.Y)
	case KeyEvent:
		if err := w.WriteString(v.Key); err != nil {
			return err
		}
		return w.WriteUint8(uint8(v.State))
	default:
		return fmt.Errorf("wire: encode: unknown packet type %T", p)
	}
}

func encodeVideoData(w *netio.Writer, v VideoData) error {
	if err := w.WriteUint32(v.Width); err != nil {
		return err
	}
	if err := w.WriteUint32(v.Height); err != nil {
		return err
	}
	return w.WriteBytes(EncodeBody(v.Body))
}

// encodeRawVideoData writes v.Body through as the already-serialised
// nested body an EncoderStrategy produced (spec.md §6): unlike
// encodeVideoData, it never calls EncodeBody, since there is no
// VideoDataBody struct to build here.
func encodeRawVideoData(w *netio.Writer, v RawVideoData) error {
	if err := w.WriteUint32(v.Width); err != nil {
		return err
	}
	if err := w.WriteUint32(v.Height); err != nil {
		return err
	}
	return w.WriteBytes(v.Body)
}

// EncodeBody serialises the nested {encoder_id, frame_kind,
// encoded_frame} structure into the bytes that sit inside VideoData's
// outer length-prefixed body (spec.md §3). EncoderStrategy
// implementations call this to build the payload internal/pipeline
// wraps in a VideoData packet.
func EncodeBody(b VideoDataBody) []byte {
	buf := netio.NewBufSink()
	w := netio.NewWriter(buf)
	_ = w.WriteUint32(b.EncoderID)
	_ = w.WriteUint32(uint32(b.FrameKind))
	_ = w.WriteBytes(b.EncodedFrame)
	return buf.Bytes()
}

// Decode reads one packet from r, entering resync on an unknown tag
// byte (spec.md §4.3). On success it returns the packet and has
// already called r.Compact().
func Decode(r *netio.Reader) (Packet, error) {
	tagByte, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	tag := Tag(tagByte)
	if !tag.valid() {
		if rerr := Resync(r); rerr != nil {
			return nil, rerr
		}
		return nil, errs.ErrInvalidPacketType
	}

	p, err := decodeBody(r, tag)
	if err != nil {
		return nil, err
	}
	r.Compact()
	return p, nil
}

func decodeBody(r *netio.Reader, tag Tag) (Packet, error) {
	switch tag {
	case TagSync:
		if _, err := r.ReadBytes(); err != nil {
			return nil, err
		}
		return Sync{}, nil
	case TagVideoData:
		return decodeVideoData(r)
	case TagMouseClick:
		button, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		state, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		x, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return MouseClick{Button: MouseButton(button), State: ButtonState(state), X: x, Y: y}, nil
	case TagMouseMove:
		x, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return MouseMove{X: x, Y: y}, nil
	case TagKeyEvent:
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		state, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		return KeyEvent{Key: key, State: ButtonState(state)}, nil
	default:
		return nil, errs.ErrInvalidPacketType
	}
}

// decodeVideoData reads the outer {width, height, length-prefixed
// body} envelope, then re-parses the body through a bounded sub-reader
// as the nested {encoder_id, frame_kind, encoded_frame} structure
// (spec.md §4.3's "VideoData decode quirk", resolved per §9 open
// question 1 as a sub-reader over the length-prefixed body rather than
// a rewind-by-N-bytes hack).
func decodeVideoData(r *netio.Reader) (Packet, error) {
	width, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	height, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	bodyLen, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	sub, err := r.Sub(int(bodyLen))
	if err != nil {
		return nil, err
	}
	r.Discard(int(bodyLen))

	body, err := decodeBodyFields(sub)
	if err != nil {
		return nil, err
	}

	return VideoData{Width: width, Height: height, Body: body}, nil
}

func decodeBodyFields(sub *netio.Reader) (VideoDataBody, error) {
	encoderID, err := sub.ReadUint32()
	if err != nil {
		return VideoDataBody{}, err
	}
	frameKind, err := sub.ReadUint32()
	if err != nil {
		return VideoDataBody{}, err
	}
	encoded, err := sub.ReadBytes()
	if err != nil {
		return VideoDataBody{}, err
	}
	return VideoDataBody{EncoderID: encoderID, FrameKind: FrameKind(frameKind), EncodedFrame: encoded}, nil
}
