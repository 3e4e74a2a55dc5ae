package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/drifthall/gamewire/internal/platform/timeouts"
)

// Config defines the inputs for the stream transport boundary.
type Config struct {
	HTTPAddr          string
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	SweepMinInterval  time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the session event streaming HTTP process.
//
// It owns the only shared mutable state in the system: the per-session event
// log and the per-session connection registry, both keyed by session id so
// unrelated sessions never contend.
type Server struct {
	httpAddr          string
	shutdownTimeout   time.Duration
	heartbeatInterval time.Duration
	httpServer        *http.Server

	log        *eventLog
	registry   *connRegistry
	dispatcher *Dispatcher
	clock      func() time.Time
}

// NewServer builds a configured stream server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = heartbeatInterval
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	eventLog := newEventLog()
	registry := newConnRegistry()
	s := &Server{
		httpAddr:          httpAddr,
		shutdownTimeout:   config.ShutdownTimeout,
		heartbeatInterval: config.HeartbeatInterval,
		log:               eventLog,
		registry:          registry,
		dispatcher:        newDispatcher(eventLog, registry, newSweeper(config.SweepMinInterval, config.SessionTimeout)),
		clock:             time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/internal/dispatch", s.handleDispatch)

	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return s, nil
}

// Handler exposes the HTTP routes for in-process composition and tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Dispatcher exposes the ingress entry point for in-process callers.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

type dispatchRequest struct {
	SessionID string        `json:"sessionId"`
	Events    []DomainEvent `json:"events"`
}

// handleDispatch accepts a batch of new domain events over HTTP. The caller's
// success is determined solely by the append; delivery failures are handled
// locally by connection removal and never surface here.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid dispatch payload", http.StatusBadRequest)
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" && len(req.Events) > 0 {
		sessionID = strings.TrimSpace(req.Events[0].SessionID)
	}
	if sessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	s.dispatcher.Dispatch(r.Context(), sessionID, req.Events)
	w.WriteHeader(http.StatusAccepted)
}

// Run creates and serves a stream server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init stream server: %w", err)
	}
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve stream: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("stream server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("stream server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
