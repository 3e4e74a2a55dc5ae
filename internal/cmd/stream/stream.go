// Package stream parses stream command flags and composes transport entrypoints.
package stream

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/drifthall/gamewire/internal/platform/cmd"
	server "github.com/drifthall/gamewire/internal/services/stream/app"
)

// Config holds stream command configuration.
type Config struct {
	HTTPAddr string `env:"GAMEWIRE_STREAM_HTTP_ADDR" envDefault:":8090"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "stream HTTP listen address")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the stream app and starts the event distribution transport.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStream, func(context.Context) error {
		if err := server.Run(ctx, server.Config{HTTPAddr: cfg.HTTPAddr}); err != nil {
			return fmt.Errorf("serve stream: %w", err)
		}
		return nil
	})
}
