package stream

import "sync"

// outboundBuffer bounds how many undelivered events may queue for one
// connection before a dispatch treats it as dead.
const outboundBuffer = 32

// streamConn is the handle for one client's open event stream. The HTTP
// handler that created it is the only writer to the wire; dispatches hand
// events over through out and never touch the response directly.
type streamConn struct {
	id        string
	sessionID string
	out       chan DomainEvent
	closed    chan struct{}
	closeOnce sync.Once

	// lastSeq is the highest seq written to the wire. Only the handler
	// goroutine reads or writes it; it exists so a dispatch racing the
	// replay phase cannot duplicate a frame.
	lastSeq int64
}

func newStreamConn(id, sessionID string) *streamConn {
	return &streamConn{
		id:        id,
		sessionID: sessionID,
		out:       make(chan DomainEvent, outboundBuffer),
		closed:    make(chan struct{}),
	}
}

// send hands an event to the connection's writer. It reports false when the
// connection is closed or its buffer is saturated; callers treat either as
// proof of death and never retry.
func (c *streamConn) send(ev DomainEvent) bool {
	select {
	case c.out <- ev:
		return true
	case <-c.closed:
		return false
	default:
		return false
	}
}

func (c *streamConn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
