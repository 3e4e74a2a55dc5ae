package stream

import (
	"context"
	"testing"
	"time"
)

func newTestDispatcher() (*Dispatcher, *eventLog, *connRegistry) {
	eventLog := newEventLog()
	registry := newConnRegistry()
	dispatcher := newDispatcher(eventLog, registry, newSweeper(sweepMinInterval, sessionTimeout))
	return dispatcher, eventLog, registry
}

func drain(c *streamConn) []DomainEvent {
	var events []DomainEvent
	for {
		select {
		case ev := <-c.out:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestDispatchBuffersWithoutConnections(t *testing.T) {
	dispatcher, eventLog, _ := newTestDispatcher()
	dispatcher.Dispatch(context.Background(), "s1", makeEvents("s1", 1, 3))

	if got := eventLog.since("s1", 0); len(got) != 3 {
		t.Fatalf("expected 3 buffered events, got %d", len(got))
	}
}

func TestDispatchForwardsInOrder(t *testing.T) {
	dispatcher, _, registry := newTestDispatcher()
	a := newStreamConn("a", "s1")
	b := newStreamConn("b", "s1")
	registry.register(a)
	registry.register(b)

	dispatcher.Dispatch(context.Background(), "s1", makeEvents("s1", 1, 3))

	for _, conn := range []*streamConn{a, b} {
		events := drain(conn)
		if len(events) != 3 {
			t.Fatalf("connection %s: expected 3 events, got %d", conn.id, len(events))
		}
		for i, ev := range events {
			if ev.Seq != int64(i+1) {
				t.Fatalf("connection %s: expected seq %d at position %d, got %d", conn.id, i+1, i, ev.Seq)
			}
		}
	}
}

func TestDispatchIsolatesSessions(t *testing.T) {
	dispatcher, _, registry := newTestDispatcher()
	other := newStreamConn("other", "s2")
	registry.register(other)

	dispatcher.Dispatch(context.Background(), "s1", makeEvents("s1", 1, 2))

	if events := drain(other); len(events) != 0 {
		t.Fatalf("expected no events on session s2 connection, got %d", len(events))
	}
}

func TestDispatchPrunesClosedConnection(t *testing.T) {
	dispatcher, _, registry := newTestDispatcher()
	dead := newStreamConn("dead", "s1")
	live := newStreamConn("live", "s1")
	registry.register(dead)
	registry.register(live)
	dead.close()

	dispatcher.Dispatch(context.Background(), "s1", makeEvents("s1", 1, 2))

	conns := registry.snapshot("s1")
	if len(conns) != 1 || conns[0] != live {
		t.Fatalf("expected only the live connection to remain, got %d", len(conns))
	}
	if events := drain(live); len(events) != 2 {
		t.Fatalf("expected live connection to receive 2 events, got %d", len(events))
	}

	// A later dispatch never writes to the pruned connection again.
	dispatcher.Dispatch(context.Background(), "s1", makeEvents("s1", 3, 3))
	if events := drain(dead); len(events) != 0 {
		t.Fatalf("expected no events on pruned connection, got %d", len(events))
	}
}

func TestDispatchPrunesSaturatedConnection(t *testing.T) {
	dispatcher, _, registry := newTestDispatcher()
	slow := newStreamConn("slow", "s1")
	registry.register(slow)

	for _, ev := range makeEvents("s1", 1, outboundBuffer) {
		if !slow.send(ev) {
			t.Fatalf("expected buffer capacity for seq %d", ev.Seq)
		}
	}

	dispatcher.Dispatch(context.Background(), "s1", makeEvents("s1", outboundBuffer+1, outboundBuffer+1))

	if got := registry.snapshot("s1"); got != nil {
		t.Fatalf("expected saturated connection to be pruned, got %d", len(got))
	}
	select {
	case <-slow.closed:
	default:
		t.Fatal("expected saturated connection to be closed")
	}
}

func TestDispatchSweepEvictsIdleSessions(t *testing.T) {
	eventLog := newEventLog()
	registry := newConnRegistry()
	dispatcher := newDispatcher(eventLog, registry, newSweeper(time.Nanosecond, time.Hour))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	eventLog.append("stale", makeEvents("stale", 1, 1), base.Add(-2*time.Hour))
	orphan := newStreamConn("orphan", "stale")
	registry.register(orphan)

	dispatcher.clock = func() time.Time { return base }
	dispatcher.Dispatch(context.Background(), "s1", makeEvents("s1", 1, 1))

	if got := eventLog.since("stale", 0); len(got) != 0 {
		t.Fatalf("expected stale session buffer evicted, got %d events", len(got))
	}
	if got := registry.snapshot("stale"); got != nil {
		t.Fatalf("expected stale session connections dropped, got %d", len(got))
	}
	select {
	case <-orphan.closed:
	default:
		t.Fatal("expected orphaned connection to be closed by the sweep")
	}
	if got := eventLog.since("s1", 0); len(got) != 1 {
		t.Fatalf("expected freshly dispatched session to survive, got %d events", len(got))
	}
}
