// Package eventbus implements the priority pub/sub Event Bus (spec.md
// §4.6): a single dispatcher draining a priority queue of published Events.
package eventbus

import "time"

// Priority orders events for dispatch; lower numeric value dispatches
// first. Priority 1 is reserved for critical events that block the
// publisher until every handler completes.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityNormal   Priority = 3
	PriorityLow      Priority = 5
)

// Event is a single message published to a topic.
type Event struct {
	Topic       string
	Priority    Priority
	Payload     any
	PublishedAt time.Time

	seq int64 // FIFO tiebreaker within a priority, assigned by the bus
}

// Handler processes one Event. A panic inside a Handler is recovered by the
// dispatcher and reported, not allowed to terminate it.
type Handler func(Event)

// IsCritical reports whether this event must block its publisher until
// every subscribed handler has completed (spec.md §4.6 Delivery).
func (e Event) IsCritical() bool {
	return e.Priority == PriorityCritical
}
