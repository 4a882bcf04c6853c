package conn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/streamctl/internal/errs"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
}

// TestClientServerLinkConnects exercises the full client-dial/
// server-accept pairing over real loopback sockets (spec.md §4.1).
func TestClientServerLinkConnects(t *testing.T) {
	port := freePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := New(Config{Role: RoleServer, Host: "127.0.0.1", Port: port, RetryDelay: 20 * time.Millisecond}, nil)
	require.NoError(t, server.Start(ctx))
	defer server.Stop()

	client := New(Config{Role: RoleClient, Host: "127.0.0.1", Port: port, RetryDelay: 20 * time.Millisecond}, nil)
	require.NoError(t, client.Start(ctx))
	defer client.Stop()

	require.Eventually(t, func() bool {
		return server.IsConnected() && client.IsConnected()
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Write([]byte("hello")))
	buf, err := server.Read(16)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

// TestStartTwiceIsAlreadyStarted pins spec.md §8 "Reconnect idempotence".
func TestStartTwiceIsAlreadyStarted(t *testing.T) {
	port := freePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(Config{Role: RoleServer, Host: "127.0.0.1", Port: port}, nil)
	require.NoError(t, l.Start(ctx))
	defer l.Stop()

	err := l.Start(ctx)
	assert.ErrorIs(t, err, errs.ErrAlreadyStarted)
}

func TestReadWriteWithoutConnectionErrors(t *testing.T) {
	l := New(Config{Role: RoleClient, Host: "127.0.0.1", Port: 1}, nil)
	_, err := l.Read(16)
	assert.Error(t, err)
	assert.Error(t, l.Write([]byte("x")))
}

func TestStopIsIdempotent(t *testing.T) {
	port := freePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(Config{Role: RoleServer, Host: "127.0.0.1", Port: port}, nil)
	require.NoError(t, l.Start(ctx))
	l.Stop()
	l.Stop() // must not panic or block
}
