package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/streamctl/internal/errs"
	"github.com/helixml/streamctl/internal/netio"
	"github.com/helixml/streamctl/internal/wire"
)

// chunkSource yields each chunk in order, then ErrNoDataAvailable
// forever, so the dispatcher backs off and keeps polling its running
// flag (an empty read with no stop hook would spin inside
// netio.Reader.Ensure and Stop could never join the loop).
type chunkSource struct {
	chunks [][]byte
	idx    int
}

func (c *chunkSource) Read(max int) ([]byte, error) {
	if c.idx >= len(c.chunks) {
		return nil, errs.ErrNoDataAvailable
	}
	chunk := c.chunks[c.idx]
	c.idx++
	return chunk, nil
}

func encode(t *testing.T, p wire.Packet) []byte {
	t.Helper()
	sink := netio.NewBufSink()
	w := netio.NewWriter(sink)
	require.NoError(t, wire.Encode(w, p))
	return sink.Bytes()
}

// TestDispatcherRoutesByKind pins spec.md §4.4: the dispatcher routes
// each decoded packet into its kind's own queue.
func TestDispatcherRoutesByKind(t *testing.T) {
	var data []byte
	data = append(data, encode(t, wire.MouseMove{X: 1, Y: 2})...)
	data = append(data, encode(t, wire.KeyEvent{Key: "a", State: wire.StatePress})...)
	data = append(data, encode(t, wire.MouseClick{Button: wire.ButtonLeft, State: wire.StatePress, X: 5, Y: 6})...)

	r := netio.NewReader(&chunkSource{chunks: [][]byte{data}}, nil)
	d := New(r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	require.Eventually(t, func() bool {
		return d.MouseMove.Len() == 1 && d.KeyEvent.Len() == 1 && d.MouseClick.Len() == 1
	}, time.Second, time.Millisecond)

	mv, err := d.MouseMove.Pop()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), mv.X)

	ke, err := d.KeyEvent.Pop()
	require.NoError(t, err)
	assert.Equal(t, "a", ke.Key)

	mc, err := d.MouseClick.Pop()
	require.NoError(t, err)
	assert.Equal(t, wire.ButtonLeft, mc.Button)
}

func TestDispatcherSyncPacketIsConsumedNotQueued(t *testing.T) {
	data := encode(t, wire.Sync{})
	data = append(data, encode(t, wire.MouseMove{X: 9, Y: 9})...)

	r := netio.NewReader(&chunkSource{chunks: [][]byte{data}}, nil)
	d := New(r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	require.Eventually(t, func() bool {
		return d.MouseMove.Len() == 1
	}, time.Second, time.Millisecond)
}
