package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/streamctl/internal/errs"
	"github.com/helixml/streamctl/internal/netio"
)

// chunkSource feeds a fixed sequence of reads, then empty reads
// forever.
type chunkSource struct {
	chunks [][]byte
	idx    int
}

func (c *chunkSource) Read(max int) ([]byte, error) {
	if c.idx >= len(c.chunks) {
		return nil, nil
	}
	chunk := c.chunks[c.idx]
	c.idx++
	return chunk, nil
}

func encodeToBytes(t *testing.T, p Packet) []byte {
	t.Helper()
	sink := netio.NewBufSink()
	w := netio.NewWriter(sink)
	require.NoError(t, Encode(w, p))
	return sink.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	packets := []Packet{
		Sync{},
		VideoData{Width: 640, Height: 480, Body: VideoDataBody{EncoderID: 9, FrameKind: FullFrame, EncodedFrame: []byte{1, 2, 3}}},
		MouseClick{Button: ButtonLeft, State: StatePress, X: 100, Y: 200},
		MouseMove{X: 10, Y: 20},
		KeyEvent{Key: "a", State: StateRelease},
	}

	for _, p := range packets {
		data := encodeToBytes(t, p)
		r := netio.NewReader(&chunkSource{chunks: [][]byte{data}}, nil)
		got, err := Decode(r)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

// TestRawVideoDataDecodesLikeVideoData proves RawVideoData's
// already-serialised body decodes to the identical VideoData an
// EncoderStrategy's caller would get from building VideoDataBody by
// hand: internal/pipeline.Capture sends RawVideoData, but the wire
// format and what the far side reads back must be unchanged.
func TestRawVideoDataDecodesLikeVideoData(t *testing.T) {
	body := VideoDataBody{EncoderID: 1, FrameKind: FullFrame, EncodedFrame: []byte{9, 8, 7}}
	raw := RawVideoData{Width: 640, Height: 480, Body: EncodeBody(body)}

	data := encodeToBytes(t, raw)
	r := netio.NewReader(&chunkSource{chunks: [][]byte{data}}, nil)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, VideoData{Width: 640, Height: 480, Body: body}, got)
}

// TestMouseClickWireOrder pins the exact byte layout from spec.md §8
// Scenario 4: tag(2), button(1=LEFT), state(1=PRESS), X=100, Y=200.
func TestMouseClickWireOrder(t *testing.T) {
	p := MouseClick{Button: ButtonLeft, State: StatePress, X: 100, Y: 200}
	data := encodeToBytes(t, p)

	want := []byte{
		0x02,                   // tag
		0x01,                   // button = LEFT
		0x01,                   // state = PRESS
		0x00, 0x00, 0x00, 0x64, // X = 100
		0x00, 0x00, 0x00, 0xC8, // Y = 200
	}
	assert.Equal(t, want, data)
}

// TestSyncPacketWireFormat pins spec.md §8 Scenario 5: a Sync packet
// is length-prefixed like any other bytes blob (tag, u32 length=8,
// then the 8-byte sequence), not a bare unframed payload.
func TestSyncPacketWireFormat(t *testing.T) {
	data := encodeToBytes(t, Sync{})

	want := []byte{
		0x00, // tag = SYNC
		0x00, 0x00, 0x00, 0x08, // length = 8
		0x00, 0x01, 0x00, 0x01, 0x00, 0x01, 0x00, 0x01,
	}
	assert.Equal(t, want, data)
}

func TestDecodeUnknownTagTriggersResync(t *testing.T) {
	// An invalid tag (0xFF) followed by garbage, then a valid Sync
	// packet (the realignment marker), then a normal packet resync
	// should land on.
	garbage := []byte{0xFF, 0x11, 0x22, 0x33}
	sync := encodeToBytes(t, Sync{})
	next := encodeToBytes(t, MouseMove{X: 1, Y: 2})
	data := append(append(garbage, sync...), next...)

	r := netio.NewReader(&chunkSource{chunks: [][]byte{data}}, nil)

	_, err := Decode(r)
	assert.True(t, errors.Is(err, errs.ErrInvalidPacketType))

	// Resync discards through the end of the sync sequence's raw
	// bytes; the following packet should now decode cleanly.
	p, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, MouseMove{X: 1, Y: 2}, p)
}

func TestDecodeResyncAcrossChunkBoundary(t *testing.T) {
	sync := encodeToBytes(t, Sync{})
	next := encodeToBytes(t, MouseMove{X: 3, Y: 4})
	// Split the sync sequence itself across two reads. Resync's
	// Ensure(8) pulls both chunks in before scanning, so this checks
	// that a sequence split across source reads is still found.
	mid := len(sync) / 2
	r := netio.NewReader(&chunkSource{chunks: [][]byte{
		{0xFF},
		sync[:mid],
		append(sync[mid:], next...),
	}}, nil)

	_, err := Decode(r)
	assert.True(t, errors.Is(err, errs.ErrInvalidPacketType))

	p, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, MouseMove{X: 3, Y: 4}, p)
}
