package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/drifthall/gamewire/internal/platform/timeouts"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Gamewire MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
)

// Config configures the MCP bridge.
type Config struct {
	// ActionURL is the game backend endpoint that performs session actions.
	ActionURL string
	// DispatchURL is the stream service endpoint that receives produced events.
	DispatchURL string
	Transport   TransportKind
}

// Server hosts the MCP bridge: tool calls in, domain events out.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP bridge around an action handler and an event
// forwarder.
func New(actions ActionHandler, forwarder EventForwarder) (*Server, error) {
	if actions == nil {
		return nil, errors.New("action handler is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerSessionTools(mcpServer, actions, forwarder, timeouts.HTTPRequest)

	return &Server{mcpServer: mcpServer}, nil
}

// Run builds the bridge from config and serves it until the context ends.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio {
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}

	httpClient := &http.Client{Timeout: timeouts.HTTPRequest}
	actions, err := newHTTPActionHandler(cfg.ActionURL, httpClient)
	if err != nil {
		return fmt.Errorf("init action handler: %w", err)
	}
	forwarder, err := newHTTPForwarder(cfg.DispatchURL, httpClient)
	if err != nil {
		return fmt.Errorf("init event forwarder: %w", err)
	}

	server, err := New(actions, forwarder)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.mcpServer == nil {
		return errors.New("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
