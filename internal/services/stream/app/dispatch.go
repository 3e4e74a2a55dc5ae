package stream

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/drifthall/gamewire/internal/services/stream"

// Dispatcher is the ingress entry point for new domain events: append to the
// session's event log, then best-effort push to every live connection for
// that session.
type Dispatcher struct {
	log      *eventLog
	registry *connRegistry
	sweeper  *sweeper
	clock    func() time.Time
}

func newDispatcher(eventLog *eventLog, registry *connRegistry, sweeper *sweeper) *Dispatcher {
	return &Dispatcher{
		log:      eventLog,
		registry: registry,
		sweeper:  sweeper,
		clock:    time.Now,
	}
}

// Dispatch appends events and forwards them in order to each registered
// connection. Buffering is unconditional so a client that was briefly absent
// can still catch up through replay. A connection that refuses a handoff is
// pruned without retries and without stalling the others.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, events []DomainEvent) {
	_, span := otel.Tracer(tracerName).Start(ctx, "stream.dispatch")
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("event.count", len(events)),
	)
	defer span.End()

	now := d.clock()
	d.log.append(sessionID, events, now)

	for _, conn := range d.registry.snapshot(sessionID) {
		for _, ev := range events {
			if conn.send(ev) {
				continue
			}
			d.registry.remove(conn)
			conn.close()
			log.Printf("stream: dropped dead connection %s for session %s", conn.id, sessionID)
			break
		}
	}

	d.sweep(now)
}

// sweep opportunistically evicts idle sessions, closing any streams the
// eviction orphaned.
func (d *Dispatcher) sweep(now time.Time) {
	d.sweeper.maybeSweep(now, func(cutoff time.Time) {
		for _, sessionID := range d.log.expire(cutoff) {
			for _, conn := range d.registry.drop(sessionID) {
				conn.close()
			}
			log.Printf("stream: evicted idle session %s", sessionID)
		}
	})
}
