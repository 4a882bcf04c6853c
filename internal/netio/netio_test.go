package netio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkSource yields each byte slice in order, then io.EOF-equivalent
// empty reads forever (simulating a socket with nothing more
// pending).
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

func TestWriterReaderRoundTrip(t *testing.T) {
	sink := NewBufSink()
	w := NewWriter(sink)

	require.NoError(t, w.WriteUint8(7))
	require.NoError(t, w.WriteUint32(1<<20))
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBytes([]byte("hello")))
	require.NoError(t, w.WriteString("world"))

	r := NewReader(&chunkSource{chunks: [][]byte{sink.Bytes()}}, nil)

	u8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), u8)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<20), u32)

	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	bytes, err := r.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(bytes))

	str, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "world", str)
}

func TestReaderEnsureRefillsAcrossChunks(t *testing.T) {
	// Split a single uint32 across two separate Read() calls, the way
	// a slow TCP socket might deliver it.
	src := &chunkSource{chunks: [][]byte{{0x00, 0x00}, {0x01, 0x00}}}
	r := NewReader(src, nil)

	v, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(256), v)
}

func TestReaderCompactDropsConsumedBytes(t *testing.T) {
	sink := NewBufSink()
	w := NewWriter(sink)
	require.NoError(t, w.WriteUint8(1))
	require.NoError(t, w.WriteUint8(2))

	r := NewReader(&chunkSource{chunks: [][]byte{sink.Bytes()}}, nil)
	_, err := r.ReadUint8()
	require.NoError(t, err)
	r.Compact()
	assert.Equal(t, 1, r.Len())

	v, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(2), v)
}

func TestReaderSubIsBoundedAndDoesNotConsume(t *testing.T) {
	sink := NewBufSink()
	w := NewWriter(sink)
	require.NoError(t, w.WriteUint32(0xAABBCCDD))
	require.NoError(t, w.WriteUint8(0xFF))

	r := NewReader(&chunkSource{chunks: [][]byte{sink.Bytes()}}, nil)

	sub, err := r.Sub(4)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Len(), "Sub must not advance the outer reader")

	v, err := sub.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAABBCCDD), v)

	_, err = sub.ReadUint8()
	assert.Error(t, err, "sub-reader must not read past its bound")

	r.Discard(4)
	tail, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), tail)
}

func TestReaderEnsureHonorsStop(t *testing.T) {
	stopped := false
	r := NewReader(&chunkSource{}, func() bool { return stopped })

	stopped = true
	_, err := r.ReadUint8()
	assert.Error(t, err)
}
