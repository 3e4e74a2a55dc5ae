package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/drifthall/gamewire/internal/platform/id"
)

// heartbeatInterval paces the comment-only keepalive frames that defeat
// idle-connection timeouts in intermediary infrastructure.
const heartbeatInterval = 30 * time.Second

// connectedPayload acknowledges a new stream so the client can persist its
// resumption checkpoint before any domain event arrives.
type connectedPayload struct {
	SessionID string `json:"sessionId"`
	LastSeq   int64  `json:"lastSeq"`
}

// reconnectedPayload summarizes the catch-up window served after a resume.
type reconnectedPayload struct {
	MissedCount int   `json:"missedCount"`
	FromSeq     int64 `json:"fromSeq"`
	ToSeq       int64 `json:"toSeq"`
}

// handleEvents serves GET /events: register the stream, acknowledge, replay
// missed events when a resume token was supplied, then forward live events
// and heartbeats until the remote goes away or a write fails. The remote
// disappearing is ordinary lifecycle, not an error to report upward.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	// An EventSource reconnect supplies the token through the standard
	// Last-Event-ID header; explicit clients use the query parameter.
	raw := strings.TrimSpace(r.URL.Query().Get("lastEventId"))
	if raw == "" {
		raw = strings.TrimSpace(r.Header.Get("Last-Event-ID"))
	}
	token := parseResumeToken(sessionID, raw)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming is not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	connID, err := id.NewID()
	if err != nil {
		log.Printf("stream: connection id generation failed: %v", err)
		connID = sessionID
	}
	conn := newStreamConn(connID, sessionID)
	s.log.touch(sessionID, s.clock())
	s.registry.register(conn)
	defer func() {
		s.registry.remove(conn)
		conn.close()
	}()

	sw := &frameWriter{w: w, flusher: flusher}

	if err := sw.writeNamed("connected", connectedPayload{SessionID: sessionID, LastSeq: token.seq}); err != nil {
		return
	}

	if token.ok {
		missed := s.log.since(sessionID, token.seq)
		for _, ev := range missed {
			if err := sw.writeEvent(ev); err != nil {
				return
			}
			conn.lastSeq = ev.Seq
		}
		if len(missed) > 0 {
			summary := reconnectedPayload{
				MissedCount: len(missed),
				FromSeq:     token.seq,
				ToSeq:       missed[len(missed)-1].Seq,
			}
			if err := sw.writeNamed("reconnected", summary); err != nil {
				return
			}
		}
	}

	s.dispatcher.sweep(s.clock())

	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.closed:
			return
		case <-ticker.C:
			s.log.touch(sessionID, s.clock())
			if err := sw.writeComment("heartbeat"); err != nil {
				return
			}
		case ev := <-conn.out:
			if ev.Seq <= conn.lastSeq {
				// Already on the wire via replay.
				continue
			}
			if err := sw.writeEvent(ev); err != nil {
				return
			}
			conn.lastSeq = ev.Seq
		}
	}
}

// frameWriter serializes text/event-stream frames. Exactly one goroutine per
// connection uses it, which is what keeps heartbeat and event writes from
// interleaving.
type frameWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// writeEvent frames one domain event: id line, event name equal to the
// event's type, data holding the serialized event.
func (fw *frameWriter) writeEvent(ev DomainEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	if _, err := fmt.Fprintf(fw.w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data); err != nil {
		return err
	}
	fw.flusher.Flush()
	return nil
}

func (fw *frameWriter) writeNamed(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", name, err)
	}
	if _, err := fmt.Fprintf(fw.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	fw.flusher.Flush()
	return nil
}

// writeComment emits a comment-only frame with no id, event, or data.
func (fw *frameWriter) writeComment(text string) error {
	if _, err := fmt.Fprintf(fw.w, ": %s\n\n", text); err != nil {
		return err
	}
	fw.flusher.Flush()
	return nil
}
