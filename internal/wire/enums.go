package wire

import "github.com/helixml/streamctl/pkg/frame"

// Tag identifies a packet's kind; it is the first byte of every
// on-wire message (spec.md §3).
type Tag uint8

const (
	TagSync       Tag = 0
	TagVideoData  Tag = 1
	TagMouseClick Tag = 2
	TagMouseMove  Tag = 3
	TagKeyEvent   Tag = 4
)

func (t Tag) valid() bool {
	switch t {
	case TagSync, TagVideoData, TagMouseClick, TagMouseMove, TagKeyEvent:
		return true
	default:
		return false
	}
}

// MouseButton is the four-value button enumeration (spec.md §3, §9
// open question 3 — canonical over the three-value LEFT/MIDDLE/RIGHT
// alternative mentioned there).
type MouseButton uint8

const (
	ButtonLeft     MouseButton = 1
	ButtonWheelUp  MouseButton = 2
	ButtonWheelDn  MouseButton = 3
	ButtonRight    MouseButton = 4
)

// ButtonState is PRESS/RELEASE for a MouseClick packet, and also
// doubles as the key-state field of a KeyEvent packet.
type ButtonState uint8

const (
	StateRelease ButtonState = 0
	StatePress   ButtonState = 1
)

// FrameKind re-exports pkg/frame.Kind under the wire package for
// symmetry with the other packet field types; the VideoData body uses
// it directly.
type FrameKind = frame.Kind

const (
	FullFrame = frame.FullFrame
	DiffFrame = frame.DiffFrame
)

// syncSequence is the fixed 8-byte Sync packet payload scanned for
// during resync (spec.md §3, §4.3).
var syncSequence = [8]byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x01, 0x00, 0x01}
