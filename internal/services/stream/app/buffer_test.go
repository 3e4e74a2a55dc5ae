package stream

import (
	"fmt"
	"testing"
	"time"
)

func makeEvents(sessionID string, from, to int64) []DomainEvent {
	events := make([]DomainEvent, 0, to-from+1)
	for seq := from; seq <= to; seq++ {
		events = append(events, DomainEvent{
			ID:        fmt.Sprintf("%s:%d", sessionID, seq),
			Seq:       seq,
			Type:      "move",
			SessionID: sessionID,
			Timestamp: time.Unix(seq, 0).UTC(),
		})
	}
	return events
}

func TestSinceUnknownSessionIsEmpty(t *testing.T) {
	log := newEventLog()
	if got := log.since("missing", 0); len(got) != 0 {
		t.Fatalf("expected no events for unknown session, got %d", len(got))
	}
}

func TestAppendThenSincePreservesOrder(t *testing.T) {
	log := newEventLog()
	log.append("s1", makeEvents("s1", 1, 5), time.Now())

	got := log.since("s1", 3)
	if len(got) != 2 {
		t.Fatalf("expected 2 events after seq 3, got %d", len(got))
	}
	if got[0].Seq != 4 || got[1].Seq != 5 {
		t.Fatalf("expected seqs [4 5], got [%d %d]", got[0].Seq, got[1].Seq)
	}
}

func TestAppendSeqsAreMonotonic(t *testing.T) {
	log := newEventLog()
	log.append("s1", makeEvents("s1", 1, 40), time.Now())
	log.append("s1", makeEvents("s1", 41, 60), time.Now())

	var prev int64
	for _, ev := range log.since("s1", 0) {
		if ev.Seq <= prev {
			t.Fatalf("seq %d not strictly increasing after %d", ev.Seq, prev)
		}
		prev = ev.Seq
	}
}

func TestBoundedRetentionTrimsOldestFirst(t *testing.T) {
	log := newEventLog()
	log.append("s1", makeEvents("s1", 1, 120), time.Now())

	got := log.since("s1", 0)
	if len(got) != maxEventsPerSession {
		t.Fatalf("expected %d retained events, got %d", maxEventsPerSession, len(got))
	}
	if got[0].Seq != 21 {
		t.Fatalf("expected oldest retained seq 21, got %d", got[0].Seq)
	}
	if got[len(got)-1].Seq != 120 {
		t.Fatalf("expected newest retained seq 120, got %d", got[len(got)-1].Seq)
	}
}

func TestSinceStartsAtOldestRetainedAfterEviction(t *testing.T) {
	log := newEventLog()
	log.append("s1", makeEvents("s1", 1, 150), time.Now())

	// Seq 10 was evicted; the replay silently starts at the oldest retained
	// event instead of failing.
	got := log.since("s1", 10)
	if len(got) != maxEventsPerSession {
		t.Fatalf("expected %d events, got %d", maxEventsPerSession, len(got))
	}
	if got[0].Seq != 51 {
		t.Fatalf("expected replay to start at seq 51, got %d", got[0].Seq)
	}
}

func TestExpireRemovesIdleSessionsOnly(t *testing.T) {
	log := newEventLog()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	log.append("stale", makeEvents("stale", 1, 3), base.Add(-2*time.Hour))
	log.append("fresh", makeEvents("fresh", 1, 3), base.Add(-time.Minute))

	expired := log.expire(base.Add(-time.Hour))
	if len(expired) != 1 || expired[0] != "stale" {
		t.Fatalf("expected [stale] expired, got %v", expired)
	}
	if got := log.since("stale", 0); len(got) != 0 {
		t.Fatalf("expected no events for expired session, got %d", len(got))
	}
	if got := log.since("fresh", 0); len(got) != 3 {
		t.Fatalf("expected fresh session intact, got %d events", len(got))
	}
}

func TestTouchKeepsSessionAlive(t *testing.T) {
	log := newEventLog()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	log.append("s1", makeEvents("s1", 1, 1), base.Add(-2*time.Hour))
	log.touch("s1", base)

	if expired := log.expire(base.Add(-time.Hour)); len(expired) != 0 {
		t.Fatalf("expected no expirations after touch, got %v", expired)
	}
}
