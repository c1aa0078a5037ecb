// Package notify delivers domain events (new filings, rectifications,
// transmission marks) to interested observers.
package notify

import (
	"context"
	"time"
)

// Event types
const (
	EventFilingCreated            = "filing.created"
	EventFilingBackfilled         = "filing.backfilled"
	EventFilingTransmitted        = "filing.transmitted"
	EventRectificationCreated     = "rectification.created"
	EventRectificationTransmitted = "rectification.transmitted"
	EventConfigurationUpdated     = "configuration.updated"
	EventNotificationRead         = "notification.read"
)

// Event is the payload fanned out to websocket clients and the message bus.
type Event struct {
	Event      string      `json:"event"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, data interface{}) Event {
	return Event{Event: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events. Publishing is best effort: implementations log
// failures and never return them, so a lost notification never fails a filing.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Multi fans an event out to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
