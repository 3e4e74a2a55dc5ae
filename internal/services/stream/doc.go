// Package stream implements real-time distribution of domain events to session clients.
//
// It keeps SSE connection lifecycle, event sequencing, and replay-on-reconnect
// isolated from domain logic so the game backend remains the source of truth
// for session state transitions.
package stream
