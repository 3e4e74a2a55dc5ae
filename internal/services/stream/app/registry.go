package stream

import "sync"

// connRegistry tracks the open streams per session. It is a map plus two
// mutators; dispatch takes snapshots so wire handoffs never happen under the
// registry lock.
type connRegistry struct {
	mu       sync.Mutex
	sessions map[string]map[*streamConn]struct{}
}

func newConnRegistry() *connRegistry {
	return &connRegistry{sessions: make(map[string]map[*streamConn]struct{})}
}

func (r *connRegistry) register(c *streamConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.sessions[c.sessionID]
	if set == nil {
		set = make(map[*streamConn]struct{})
		r.sessions[c.sessionID] = set
	}
	set[c] = struct{}{}
}

// remove drops one connection. The last removal deletes the set entry
// itself; the session's event buffer is left intact so a future reconnect
// can still replay.
func (r *connRegistry) remove(c *streamConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.sessions[c.sessionID]
	if set == nil {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.sessions, c.sessionID)
	}
}

// snapshot returns the connections currently registered for a session.
func (r *connRegistry) snapshot(sessionID string) []*streamConn {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.sessions[sessionID]
	if len(set) == 0 {
		return nil
	}
	conns := make([]*streamConn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// drop removes a session's whole connection set and returns it so the
// retention sweep can close the streams it evicted.
func (r *connRegistry) drop(sessionID string) []*streamConn {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	if len(set) == 0 {
		return nil
	}
	conns := make([]*streamConn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}
