// Package conn implements the reconnecting duplex link (spec.md §4.1,
// component C1): one connected TCP byte stream to a peer, transparently
// re-established on loss, whether this endpoint dials out (client
// role) or accepts (server role).
//
// Grounded in the teacher's api/pkg/desktop/agent_client.go (mutex-
// guarded *websocket.Conn with a readLoop that reconnects on error)
// and api/pkg/desktop/session.go's retry-with-sleep dial loop, adapted
// from websocket framing to a raw TCP byte stream and from an ad hoc
// sleep loop to github.com/avast/retry-go/v4.
package conn

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/helixml/streamctl/internal/errs"
	ssync "github.com/helixml/streamctl/internal/sync"
)

// Config configures one Link.
type Config struct {
	Role Role
	Host string
	Port int

	// RetryDelay is the client-role dial retry delay, and the
	// server-role deadline on each Accept attempt, after which Accept
	// is retried on the same listener (default 1s per spec.md §4.1,
	// §6).
	RetryDelay time.Duration

	// KeepAliveIdle/Probes/Interval configure TCP keepalive on an
	// accepted server-role connection (spec.md §4.1 default: idle 1s,
	// 3 probes, 1s interval).
	KeepAliveIdle     time.Duration
	KeepAliveProbes   int
	KeepAliveInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.KeepAliveIdle <= 0 {
		c.KeepAliveIdle = time.Second
	}
	if c.KeepAliveProbes <= 0 {
		c.KeepAliveProbes = 3
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = time.Second
	}
	return c
}

// Link owns one live TCP connection to a fixed peer and transparently
// re-establishes it. It exclusively owns the socket (spec.md §3
// "Ownership"); readers/writers borrow it through the ByteSource/
// ByteSink interfaces in internal/netio.
type Link struct {
	cfg    Config
	logger *slog.Logger

	id uuid.UUID

	state    *ssync.Cell[State]
	sock     *ssync.Cell[net.Conn]
	listener *ssync.Cell[net.Listener]

	running *ssync.Cell[bool]
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a Link. It does not connect until Start is called.
func New(cfg Config, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		id:       uuid.New(),
		state:    ssync.NewCell(Disconnected),
		sock:     ssync.NewCell[net.Conn](nil),
		listener: ssync.NewCell[net.Listener](nil),
		running:  ssync.NewCell(false),
	}
}

// State returns the current connection state.
func (l *Link) State() State {
	return l.state.Get()
}

// IsConnected reports whether reads/writes currently succeed.
func (l *Link) IsConnected() bool {
	return l.state.Get() == Connected
}

// Start launches the reconnect loop. Calling Start twice is a
// programmer error (spec.md §8 "Reconnect idempotence").
func (l *Link) Start(ctx context.Context) error {
	if l.running.Get() {
		return errs.ErrAlreadyStarted
	}
	l.running.Set(true)

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx)
	return nil
}

// Stop closes the socket (unblocking any pending Read/Write with
// ErrNoConnection) and joins the reconnect loop. Idempotent.
func (l *Link) Stop() {
	if !l.running.Get() {
		return
	}
	l.running.Set(false)
	if l.cancel != nil {
		l.cancel()
	}
	l.closeSocket()
	if lis := l.listener.Get(); lis != nil {
		_ = lis.Close()
	}
	<-l.done
}

func (l *Link) run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.state.Set(Disconnected)
			return
		default:
		}

		l.state.Set(Connecting)
		c, err := l.establish(ctx)
		if err != nil {
			l.state.Set(Disconnected)
			return
		}

		l.sock.Set(c)
		l.state.Set(Connected)
		l.logger.Info("link connected", "link", l.id, "role", roleName(l.cfg.Role))

		l.waitForSocketClose(ctx, c)

		l.state.Set(Disconnected)
		l.sock.Set(nil)
		_ = c.Close()

		if ctx.Err() != nil {
			return
		}
	}
}

// waitForSocketClose blocks until either ctx is cancelled or the
// socket is replaced/closed from under it (Read/Write errors set the
// socket to nil via closeSocket, observed here by polling the socket
// cell — no task may hold a mutex across this wait).
func (l *Link) waitForSocketClose(ctx context.Context, c net.Conn) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if l.sock.Get() != c {
				return
			}
		}
	}
}

func (l *Link) establish(ctx context.Context) (net.Conn, error) {
	switch l.cfg.Role {
	case RoleClient:
		return l.dial(ctx)
	default:
		return l.accept(ctx)
	}
}

// dial retries the client-role connect attempt at RetryDelay intervals
// until it succeeds or ctx is cancelled (spec.md §4.1: "attempts
// connect(host,port) with a retry delay").
func (l *Link) dial(ctx context.Context) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", l.cfg.Host, l.cfg.Port)
	var c net.Conn
	err := retry.Do(
		func() error {
			d := net.Dialer{Timeout: 5 * time.Second}
			conn, dialErr := d.DialContext(ctx, "tcp", addr)
			if dialErr != nil {
				return dialErr
			}
			c = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(l.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Warn("dial failed, retrying", "link", l.id, "attempt", n, "err", err)
		}),
	)
	return c, err
}

// accept binds and listens once (with the OS default backlog), then
// retries Accept at RetryDelay intervals until a peer arrives or ctx is
// cancelled. It is only called while no peer is connected: a second
// peer that connects while one is active waits in the listen queue and
// is accepted only after the active peer's socket has closed; it does
// not replace the active peer.
func (l *Link) accept(ctx context.Context) (net.Conn, error) {
	lis := l.listener.Get()
	if lis == nil {
		// net.ListenConfig has no backlog knob; the OS default backlog
		// is used and the single-peer invariant (spec.md §4.1) is
		// enforced by only ever Accept-ing once per reconnect cycle.
		addr := fmt.Sprintf("%s:%d", l.cfg.Host, l.cfg.Port)
		lc := net.ListenConfig{}
		raw, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		lis = raw
		l.listener.Set(lis)
	}

	var c net.Conn
	err := retry.Do(
		func() error {
			if tl, ok := lis.(*net.TCPListener); ok {
				_ = tl.SetDeadline(time.Now().Add(l.cfg.RetryDelay))
			}
			conn, acceptErr := lis.Accept()
			if acceptErr != nil {
				return acceptErr
			}
			c = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(0),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetKeepAliveConfig(net.KeepAliveConfig{
			Enable:   true,
			Idle:     l.cfg.KeepAliveIdle,
			Interval: l.cfg.KeepAliveInterval,
			Count:    l.cfg.KeepAliveProbes,
		})
	}
	return c, nil
}

func (l *Link) closeSocket() {
	if c := l.sock.Get(); c != nil {
		_ = c.Close()
		l.sock.Set(nil)
	}
}

// Read blocks until some bytes are available or the link is broken.
func (l *Link) Read(max int) ([]byte, error) {
	c := l.sock.Get()
	if c == nil || l.state.Get() != Connected {
		return nil, errs.ErrNoConnection
	}
	buf := make([]byte, max)
	n, err := c.Read(buf)
	if err != nil {
		l.state.Set(Disconnected)
		l.closeSocket()
		return nil, fmt.Errorf("conn: read: %w", errs.ErrNoConnection)
	}
	return buf[:n], nil
}

// Write blocks until all of b is flushed or the link breaks.
func (l *Link) Write(b []byte) error {
	c := l.sock.Get()
	if c == nil || l.state.Get() != Connected {
		return errs.ErrNoConnection
	}
	if _, err := c.Write(b); err != nil {
		l.state.Set(Disconnected)
		l.closeSocket()
		return fmt.Errorf("conn: write: %w", errs.ErrNoConnection)
	}
	return nil
}

func roleName(r Role) string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}
