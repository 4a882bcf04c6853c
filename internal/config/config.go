// Package config loads process configuration via
// github.com/kelseyhightower/envconfig, grounded in the teacher's
// api/pkg/config package (one struct per binary, envconfig tags with
// defaults, a Load function that validates the parsed Role).
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is shared by both cmd/streamctl-obedient and
// cmd/streamctl-control; each binary only reads the fields relevant to
// its role (spec.md §6 "Configuration").
type Config struct {
	// Role selects which side of the TCP handshake this process plays:
	// "client" dials Host:Port, "server" listens on it.
	Role string `envconfig:"ROLE" default:"client"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
	Port int    `envconfig:"PORT" default:"7777"`

	// TargetFPS bounds the capture pipeline's pacer (spec.md §6
	// default 25-30; 30 chosen as the upper end of that range).
	TargetFPS int `envconfig:"TARGET_FPS" default:"30"`

	// RetryDelay is the reconnect retry delay (spec.md §6 default 1s).
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"1s"`

	// SyncInterval is the Sync-packet injection cadence (spec.md §4.3,
	// §6 default 1s).
	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"1s"`

	// MonitorIndex selects which output to capture when more than one
	// is available (spec.md §6 default: primary, index 0).
	MonitorIndex int `envconfig:"MONITOR_INDEX" default:"0"`

	// StatsInterval is how often streamctl-control logs a
	// bandwidth/FPS summary line off its decode pipeline
	// (SPEC_FULL.md §4 supplemented feature, grounded in
	// original_source/bandwidth.py + fps.py). Zero disables periodic
	// stats logging.
	StatsInterval time.Duration `envconfig:"STATS_INTERVAL" default:"5s"`

	// Backend selects the encoder/decoder pair: "soft" picks the no-cgo
	// zstd codec; any other value, including the default "wayland",
	// picks the GStreamer H.264 codec. Capture (portal + GStreamer) and
	// Wayland input on the Obedient side are used whatever the value.
	Backend string `envconfig:"BACKEND" default:"wayland"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Role != "client" && cfg.Role != "server" {
		return Config{}, fmt.Errorf("config: ROLE must be %q or %q, got %q", "client", "server", cfg.Role)
	}
	return cfg, nil
}
