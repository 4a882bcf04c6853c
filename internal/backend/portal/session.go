// Package portal negotiates a GNOME Mutter RemoteDesktop/ScreenCast
// D-Bus session and hands back the PipeWire node ID capture should
// read from. Grounded directly in the teacher's
// api/pkg/desktop/session.go; renamed from a Server method set to a
// standalone Session type since this module has no HTTP server to
// hang it off, and generalized to return the node ID to its caller
// instead of POSTing it to a Wolf sidecar socket.
package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	remoteDesktopBus          = "org.gnome.Mutter.RemoteDesktop"
	remoteDesktopPath         = "/org/gnome/Mutter/RemoteDesktop"
	remoteDesktopIface        = "org.gnome.Mutter.RemoteDesktop"
	remoteDesktopSessionIface = "org.gnome.Mutter.RemoteDesktop.Session"

	screenCastBus          = "org.gnome.Mutter.ScreenCast"
	screenCastPath         = "/org/gnome/Mutter/ScreenCast"
	screenCastIface        = "org.gnome.Mutter.ScreenCast"
	screenCastSessionIface = "org.gnome.Mutter.ScreenCast.Session"
	screenCastStreamIface  = "org.gnome.Mutter.ScreenCast.Stream"

	displayConfigBus   = "org.gnome.Mutter.DisplayConfig"
	displayConfigPath  = "/org/gnome/Mutter/DisplayConfig"
	displayConfigIface = "org.gnome.Mutter.DisplayConfig"
)

// dbusMonitorSpec is the (ssss) connector identity tuple nested inside
// DisplayConfig.GetCurrentState's monitors array.
type dbusMonitorSpec struct {
	Connector     string
	VendorName    string
	ProductName   string
	DisplaySerial string
}

// dbusMonitorMode is one entry of a monitor's (siiddada{sv}) mode list;
// only the fields this package ignores still need to be present for
// godbus to unmarshal the struct correctly.
type dbusMonitorMode struct {
	ID              string
	Width           int32
	Height          int32
	RefreshRate     float64
	PreferredScale  float64
	SupportedScales []float64
	Properties      map[string]dbus.Variant
}

// dbusMonitor is one element of GetCurrentState's monitors array:
// a(ssss)a(siiddada{sv})a{sv}.
type dbusMonitor struct {
	Spec       dbusMonitorSpec
	Modes      []dbusMonitorMode
	Properties map[string]dbus.Variant
}

// Session is one negotiated RemoteDesktop+ScreenCast D-Bus pair.
type Session struct {
	conn          *dbus.Conn
	rdSessionPath dbus.ObjectPath
	scSessionPath dbus.ObjectPath
	scStreamPath  dbus.ObjectPath
	NodeID        uint32
}

// Connect dials the session bus, retrying until the RemoteDesktop
// service answers or ctx is cancelled.
func Connect(ctx context.Context) (*dbus.Conn, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("portal: connect: %w", ctx.Err())
		default:
		}

		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			time.Sleep(time.Second)
			continue
		}

		obj := conn.Object(remoteDesktopBus, remoteDesktopPath)
		if err := obj.Call("org.freedesktop.DBus.Introspectable.Introspect", 0).Err; err != nil {
			conn.Close()
			time.Sleep(time.Second)
			continue
		}
		return conn, nil
	}
}

// fallbackMonitor is RecordMonitor's target when enumeration fails or
// turns up nothing: the single virtual output the target compositor
// always exposes when run headless.
const fallbackMonitor = "Meta-0"

// monitorConnectors lists connector names (e.g. "Meta-0", "HDMI-1") in
// the order org.gnome.Mutter.DisplayConfig.GetCurrentState reports
// them, for selectMonitor to index into (spec.md §6 "monitor
// selection (index, default primary)").
func monitorConnectors(conn *dbus.Conn) ([]string, error) {
	obj := conn.Object(displayConfigBus, displayConfigPath)

	var serial uint32
	var monitors []dbusMonitor
	var logicalMonitors []interface{}
	var properties map[string]dbus.Variant
	if err := obj.Call(displayConfigIface+".GetCurrentState", 0).
		Store(&serial, &monitors, &logicalMonitors, &properties); err != nil {
		return nil, fmt.Errorf("portal: get current display state: %w", err)
	}

	connectors := make([]string, 0, len(monitors))
	for _, m := range monitors {
		connectors = append(connectors, m.Spec.Connector)
	}
	return connectors, nil
}

// selectMonitor resolves cfg.MonitorIndex (0 = primary) against the
// compositor's reported connectors, falling back to fallbackMonitor if
// enumeration failed or turned up nothing. An out-of-range index
// degrades to the first reported connector (index 0) rather than
// failing the session outright.
func selectMonitor(conn *dbus.Conn, index int) string {
	connectors, err := monitorConnectors(conn)
	if err != nil || len(connectors) == 0 {
		return fallbackMonitor
	}
	if index < 0 || index >= len(connectors) {
		return connectors[0]
	}
	return connectors[index]
}

// Open creates a linked RemoteDesktop+ScreenCast session and starts
// it, blocking until the PipeWireStreamAdded signal delivers a node
// ID or ctx is cancelled. monitorIndex selects which output to record
// when the compositor exposes more than one (config.Config.MonitorIndex).
func Open(ctx context.Context, conn *dbus.Conn, monitorIndex int) (*Session, error) {
	s := &Session{conn: conn}

	rdObj := conn.Object(remoteDesktopBus, remoteDesktopPath)
	if err := rdObj.Call(remoteDesktopIface+".CreateSession", 0).Store(&s.rdSessionPath); err != nil {
		return nil, fmt.Errorf("portal: create RemoteDesktop session: %w", err)
	}

	sessionID := string(s.rdSessionPath)
	if idx := strings.LastIndex(sessionID, "/"); idx >= 0 {
		sessionID = sessionID[idx+1:]
	}

	scObj := conn.Object(screenCastBus, screenCastPath)
	options := map[string]dbus.Variant{
		"remote-desktop-session-id": dbus.MakeVariant(sessionID),
	}
	if err := scObj.Call(screenCastIface+".CreateSession", 0, options).Store(&s.scSessionPath); err != nil {
		return nil, fmt.Errorf("portal: create ScreenCast session: %w", err)
	}

	scSession := conn.Object(screenCastBus, s.scSessionPath)
	recordOptions := map[string]dbus.Variant{
		"cursor-mode": dbus.MakeVariant(uint32(1)), // embedded cursor
	}
	monitorName := selectMonitor(conn, monitorIndex)
	if err := scSession.Call(screenCastSessionIface+".RecordMonitor", 0, monitorName, recordOptions).Store(&s.scStreamPath); err != nil {
		return nil, fmt.Errorf("portal: record monitor: %w", err)
	}

	if err := s.start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) start(ctx context.Context) error {
	if err := s.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(s.scStreamPath),
		dbus.WithMatchInterface(screenCastStreamIface),
		dbus.WithMatchMember("PipeWireStreamAdded"),
	); err != nil {
		return fmt.Errorf("portal: add signal match: %w", err)
	}

	signalChan := make(chan *dbus.Signal, 10)
	s.conn.Signal(signalChan)

	rdSession := s.conn.Object(remoteDesktopBus, s.rdSessionPath)
	if err := rdSession.Call(remoteDesktopSessionIface+".Start", 0).Err; err != nil {
		return fmt.Errorf("portal: start session: %w", err)
	}

	timeout := time.After(10 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-signalChan:
			if sig.Name != screenCastStreamIface+".PipeWireStreamAdded" || len(sig.Body) == 0 {
				continue
			}
			nodeID, ok := sig.Body[0].(uint32)
			if !ok {
				continue
			}
			s.NodeID = nodeID
			return nil
		case <-timeout:
			return fmt.Errorf("portal: timed out waiting for PipeWireStreamAdded")
		}
	}
}

// Close releases the RemoteDesktop session, which tears down the
// linked ScreenCast session and stream with it.
func (s *Session) Close() error {
	obj := s.conn.Object(remoteDesktopBus, s.rdSessionPath)
	if err := obj.Call(remoteDesktopSessionIface+".Stop", 0).Err; err != nil {
		return fmt.Errorf("portal: stop session: %w", err)
	}
	return nil
}
