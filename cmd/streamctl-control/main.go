// Command streamctl-control runs the Control Agent: it receives the
// video stream from an Obedient Agent peer, decodes it, and makes
// decoded frames available to a renderer. Actual display rendering
// and local input capture are UI concerns and an explicit Non-goal
// (spec.md §1, SPEC_FULL.md §6); this binary wires the transport up
// to the point a renderer/input-capture layer would plug in
// (pipeline.Decode.Frames(), wire.PacketWriter.WritePacket) and logs
// frame arrival in its place, the same boundary the teacher draws
// between api/pkg/desktop's transport code and its separate
// front-end.
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
	"github.com/helixml/streamctl/internal/backend/soft"
	"github.com/helixml/streamctl/internal/conn"
	"github.com/helixml/streamctl/internal/config"
	"github.com/helixml/streamctl/internal/dispatch"
	"github.com/helixml/streamctl/internal/netio"
	"github.com/helixml/streamctl/internal/pipeline"
	"github.com/helixml/streamctl/internal/wire"
)

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("streamctl-control exited")
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streamctl-control",
		Short: "Renders a remote screen feed and sends input back to it",
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

	decoder, closeDecoder, err := buildDecoder(cfg)
	if err != nil {
		return err
	}
	defer closeDecoder()

	decodePipeline := pipeline.NewDecode(dispatcher.Video, decoder, slogger.With("component", "decode"))
	decodePipeline.Start(ctx)
	defer decodePipeline.Stop()

	log.Info().Str("role", cfg.Role).Str("backend", cfg.Backend).Msg("streamctl-control running")

	// Input is sent by calling writer.WritePacket(wire.MouseMove{...})
	// etc. from whatever UI layer drives this agent; none is built
	// here (Non-goal).
	_ = writer

	logFrames(ctx, decodePipeline)
	reportStats(ctx, cfg, decodePipeline)
	<-ctx.Done()
	return nil
}

// logFrames stands in for a renderer: it drains the decoded-frame
// queue so it never fills and logs arrival at debug level.
func logFrames(ctx context.Context, d *pipeline.Decode) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			f, ok := d.Frames().PopBlocking(ctx.Done())
			if !ok {
				return
			}
			log.Debug().Uint32("width", f.Width).Uint32("height", f.Height).Msg("frame decoded")
		}
	}()
}

func buildDecoder(cfg config.Config) (backend.DecoderStrategy, func(), error) {
	const width, height uint32 = 1920, 1080
	if cfg.Backend == "soft" {
		dec, err := soft.NewDecoder(width, height)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() { dec.Close() }, nil
	}
	dec, err := gst.NewDecoder(width, height)
	if err != nil {
		return nil, nil, err
	}
	return dec, func() { dec.Close() }, nil
}
