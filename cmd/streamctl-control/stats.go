package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/helixml/streamctl/internal/config"
	"github.com/helixml/streamctl/internal/pipeline"
)

// reportStats periodically logs bandwidth/FPS off the decode
// pipeline, the supplemented feature grounded in
// original_source/bandwidth.py + fps.py and, for which side tracks
// bytes, control_agent.py's register_received_bytes call in its
// render loop (SPEC_FULL.md §4). A zero StatsInterval disables it.
func reportStats(ctx context.Context, cfg config.Config, dec *pipeline.Decode) {
	if cfg.StatsInterval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.StatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Info().
					Str("bandwidth", dec.Bandwidth.String()).
					Float64("fps", dec.FPS.FPS()).
					Msg("streaming stats")
			}
		}
	}()
}
