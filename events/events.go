/*
Package events publishes kitchen and front-of-house notifications.

PURPOSE:
  When an order is placed or moves through the kitchen, or a reservation is
  booked, other processes (a kitchen display, a notifier) may want to know.
  Publishing is best-effort: a failed publish is logged by the caller and
  never fails the operation that produced the event.

EVENT TYPES:
  order.created           new order (remote or local)
  order.status_changed    order moved to a new status
  reservation.created     new reservation

IMPLEMENTATIONS:
  - Rabbit:   topic exchange on RabbitMQ, routing key = event type
  - Nop:      discards everything (no broker configured)
  - Recorder: keeps events in memory (tests)
*/
package events

import (
	"context"
	"sync"
	"time"
)

// Type names an event.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	ReservationCreated Type = "reservation.created"
)

// Event is one notification. Subject is the id of the record it is about.
type Event struct {
	Type       Type      `json:"type"`
	Subject    string    `json:"subject"`
	Local      bool      `json:"local"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Pinger is a publisher that can report the health of its broker link.
type Pinger interface {
	Ping() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps every published event.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of what was published, in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType filters recorded events.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
