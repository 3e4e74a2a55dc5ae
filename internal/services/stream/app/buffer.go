package stream

import (
	"sync"
	"time"
)

// maxEventsPerSession caps how much replay history one session retains.
// Anything trimmed is permanently unrecoverable through this protocol.
const maxEventsPerSession = 100

type sessionBuffer struct {
	events       []DomainEvent
	lastActivity time.Time
}

// eventLog owns the per-session append-only buffers. Sessions are created
// lazily on first append or touch and cease to exist when the retention
// sweep evicts them.
type eventLog struct {
	mu       sync.Mutex
	sessions map[string]*sessionBuffer
}

func newEventLog() *eventLog {
	return &eventLog{sessions: make(map[string]*sessionBuffer)}
}

// append adds events in order, refreshes activity, and trims from the front
// once the buffer exceeds its cap. Append is the only mutation and never
// fails.
func (l *eventLog) append(sessionID string, events []DomainEvent, now time.Time) {
	if len(events) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	buf := l.sessions[sessionID]
	if buf == nil {
		buf = &sessionBuffer{}
		l.sessions[sessionID] = buf
	}
	buf.events = append(buf.events, events...)
	if excess := len(buf.events) - maxEventsPerSession; excess > 0 {
		buf.events = append(buf.events[:0:0], buf.events[excess:]...)
	}
	buf.lastActivity = now
}

// since returns the buffered events with Seq > afterSeq in ascending order.
// When afterSeq predates retention the result simply starts at the oldest
// retained event; the gap is silent.
func (l *eventLog) since(sessionID string, afterSeq int64) []DomainEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	buf := l.sessions[sessionID]
	if buf == nil {
		return nil
	}
	var out []DomainEvent
	for _, ev := range buf.events {
		if ev.Seq > afterSeq {
			out = append(out, ev)
		}
	}
	return out
}

// touch refreshes a session's activity without appending, creating the
// session record if needed. Connection registration and heartbeat ticks use
// this so live but quiet sessions are not swept.
func (l *eventLog) touch(sessionID string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	buf := l.sessions[sessionID]
	if buf == nil {
		buf = &sessionBuffer{}
		l.sessions[sessionID] = buf
	}
	buf.lastActivity = now
}

// expire removes every session whose last activity predates cutoff and
// reports the evicted session ids.
func (l *eventLog) expire(cutoff time.Time) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var expired []string
	for sessionID, buf := range l.sessions {
		if buf.lastActivity.Before(cutoff) {
			delete(l.sessions, sessionID)
			expired = append(expired, sessionID)
		}
	}
	return expired
}
