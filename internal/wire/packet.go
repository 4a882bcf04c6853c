package wire

// Packet is the tagged union of on-wire messages (spec.md §3). Each
// concrete type below implements isPacket and is matched with a type
// switch, never erased behind a generic payload (spec.md §9 "Dynamic
// queue of any payload... do not erase types").
type Packet interface {
	isPacket()
	Tag() Tag
}

// Sync carries no payload: its 8-byte body is a fixed constant, not
// application data, so it decodes to an empty struct.
type Sync struct{}

func (Sync) isPacket()  {}
func (Sync) Tag() Tag   { return TagSync }

// VideoDataBody is the nested, codec-agnostic frame envelope inside a
// VideoData packet's payload (spec.md §3).
type VideoDataBody struct {
	EncoderID    uint32
	FrameKind    FrameKind
	EncodedFrame []byte
}

// VideoData is packet tag 1, as produced by decode: the nested body
// has already been parsed into its {encoder_id, frame_kind,
// encoded_frame} fields for a DecoderStrategy to consume.
type VideoData struct {
	Width  uint32
	Height uint32
	Body   VideoDataBody
}

func (VideoData) isPacket() {}
func (VideoData) Tag() Tag  { return TagVideoData }

// RawVideoData is also packet tag 1 on the wire, used on the send
// side instead of VideoData: spec.md §6 has an EncoderStrategy return
// the nested VideoData body already fully serialised
// ({encoder_id, frame_kind, encoded_frame}, length-prefixed), and the
// core "does not reinterpret the body" when sending it. Body here is
// exactly that opaque, already-serialised blob; Encode writes it
// through unparsed. Decoding always yields a VideoData, never a
// RawVideoData — this type only exists to be written.
type RawVideoData struct {
	Width  uint32
	Height uint32
	Body   []byte
}

func (RawVideoData) isPacket() {}
func (RawVideoData) Tag() Tag  { return TagVideoData }

// MouseClick is packet tag 2.
type MouseClick struct {
	Button MouseButton
	State  ButtonState
	X, Y   uint32
}

func (MouseClick) isPacket() {}
func (MouseClick) Tag() Tag  { return TagMouseClick }

// MouseMove is packet tag 3.
type MouseMove struct {
	X, Y uint32
}

func (MouseMove) isPacket() {}
func (MouseMove) Tag() Tag  { return TagMouseMove }

// KeyEvent is packet tag 4.
type KeyEvent struct {
	Key   string
	State ButtonState
}

func (KeyEvent) isPacket() {}
func (KeyEvent) Tag() Tag  { return TagKeyEvent }
