// Package mcp parses MCP bridge command flags and composes the tool ingress.
package mcp

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/drifthall/gamewire/internal/platform/cmd"
	service "github.com/drifthall/gamewire/internal/services/mcp/service"
)

// Config holds MCP bridge command configuration.
type Config struct {
	ActionURL   string `env:"GAMEWIRE_ACTION_URL"   envDefault:"http://localhost:8091/actions"`
	DispatchURL string `env:"GAMEWIRE_DISPATCH_URL" envDefault:"http://localhost:8090/internal/dispatch"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ActionURL, "action-url", cfg.ActionURL, "game backend action endpoint")
	fs.StringVar(&cfg.DispatchURL, "dispatch-url", cfg.DispatchURL, "stream service dispatch endpoint")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the MCP bridge and serves it on stdio.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(context.Context) error {
		if err := service.Run(ctx, service.Config{
			ActionURL:   cfg.ActionURL,
			DispatchURL: cfg.DispatchURL,
		}); err != nil {
			return fmt.Errorf("serve mcp: %w", err)
		}
		return nil
	})
}
