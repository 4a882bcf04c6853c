// Command streamctl-obedient runs the Obedient Agent: it captures the
// local screen, encodes frames, sends them to a Control Agent peer,
// and replays whatever mouse/keyboard input it receives back
// (spec.md §2). Cobra/zerolog wiring grounded in the teacher's
// api/cmd/helix root command and runner command
// (api/cmd/helix/root.go, runner.go); the session loop itself follows
// api/cmd/desktop-bridge/main.go's signal-driven shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/helixml/streamctl/internal/backend"
	"github.com/helixml/streamctl/internal/backend/gst"
	"github.com/helixml/streamctl/internal/backend/portal"
	"github.com/helixml/streamctl/internal/backend/soft"
	"github.com/helixml/streamctl/internal/backend/wayland"
	"github.com/helixml/streamctl/internal/conn"
	"github.com/helixml/streamctl/internal/config"
	"github.com/helixml/streamctl/internal/dispatch"
	"github.com/helixml/streamctl/internal/netio"
	"github.com/helixml/streamctl/internal/pipeline"
	"github.com/helixml/streamctl/internal/replay"
	"github.com/helixml/streamctl/internal/wire"
)

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("streamctl-obedient exited")
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streamctl-obedient",
		Short: "Captures the local screen and replays remote input",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	role := conn.RoleClient
	if cfg.Role == "server" {
		role = conn.RoleServer
	}
	link := conn.New(conn.Config{
		Role:       role,
		Host:       cfg.Host,
		Port:       cfg.Port,
		RetryDelay: cfg.RetryDelay,
	}, slogger.With("component", "link"))

	if err := link.Start(ctx); err != nil {
		return err
	}
	defer link.Stop()

	reader := netio.NewReader(link, func() bool { return ctx.Err() != nil })
	writer := wire.NewPacketWriter(netio.NewWriter(link), cfg.SyncInterval)

	dispatcher := dispatch.New(reader, slogger.With("component", "dispatch"))
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	capStrategy, encStrategy, inputBackend, cleanup, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	capPipeline := pipeline.NewCapture(capStrategy, encStrategy, writer, cfg.TargetFPS, slogger.With("component", "capture"))
	capPipeline.Start(ctx)
	defer capPipeline.Stop()

	inputReplay := replay.New(inputBackend, dispatcher.MouseMove, dispatcher.MouseClick, dispatcher.KeyEvent, slogger.With("component", "replay"))
	inputReplay.Start(ctx)
	defer inputReplay.Stop()

	log.Info().Str("role", cfg.Role).Str("backend", cfg.Backend).Msg("streamctl-obedient running")

	<-ctx.Done()
	return nil
}

// buildBackends wires the capture/encode/input strategies for cfg.Backend
// (spec.md §6, §9: the capture/encoder/input strategies are pluggable
// and swapped by configuration, not rebuilt per call). Capture always
// comes from the compositor's PipeWire node: there is no alternative
// pixel source in the retrieved pack. cfg.Backend only chooses between
// the GStreamer x264 encoder and the no-cgo zstd fallback.
func buildBackends(ctx context.Context, cfg config.Config) (backend.CaptureStrategy, backend.EncoderStrategy, backend.InputBackend, func(), error) {
	dbusConn, err := portal.Connect(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	session, err := portal.Open(ctx, dbusConn, cfg.MonitorIndex)
	if err != nil {
		dbusConn.Close()
		return nil, nil, nil, nil, err
	}

	const width, height uint32 = 1920, 1080
	cap, err := gst.NewCapture(session.NodeID, width, height)
	if err != nil {
		session.Close()
		dbusConn.Close()
		return nil, nil, nil, nil, err
	}

	var enc backend.EncoderStrategy
	var encCloser func() error
	if cfg.Backend == "soft" {
		softEnc, err := soft.NewEncoder()
		if err != nil {
			cap.Close()
			session.Close()
			dbusConn.Close()
			return nil, nil, nil, nil, err
		}
		enc, encCloser = softEnc, softEnc.Close
	} else {
		gstEnc, err := gst.NewEncoder(width, height)
		if err != nil {
			cap.Close()
			session.Close()
			dbusConn.Close()
			return nil, nil, nil, nil, err
		}
		enc, encCloser = gstEnc, gstEnc.Close
	}

	in, err := wayland.New()
	if err != nil {
		encCloser()
		cap.Close()
		session.Close()
		dbusConn.Close()
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		in.Close()
		encCloser()
		cap.Close()
		session.Close()
		dbusConn.Close()
	}
	return cap, enc, in, cleanup, nil
}
