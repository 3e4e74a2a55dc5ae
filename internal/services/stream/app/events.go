package stream

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DomainEvent is one state change produced by an out-of-band action against a
// session. Within a session Seq is strictly increasing and gapless as
// produced; buffer eviction may later open gaps in what a client can still
// replay, never in what was appended.
type DomainEvent struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// resumeToken is the checkpoint a client presents on reconnect, in the wire
// form "<sessionId>:<seq>". ok reports that a well-formed token was supplied;
// absent or malformed tokens mean "replay nothing, just go live".
type resumeToken struct {
	seq int64
	ok  bool
}

func parseResumeToken(sessionID, raw string) resumeToken {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return resumeToken{}
	}
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 || raw[:idx] != sessionID {
		return resumeToken{}
	}
	seq, err := strconv.ParseInt(raw[idx+1:], 10, 64)
	if err != nil || seq < 0 {
		return resumeToken{}
	}
	return resumeToken{seq: seq, ok: true}
}
