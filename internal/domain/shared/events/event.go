// Package events is the in-process publish/subscribe seam between license
// use cases and their side effects (webhooks, notifications).
package events

import (
	"context"
	"time"
)

type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetOccurredAt() time.Time
}

// BaseEvent is embedded by concrete events. AggregateID has the form
// "<kind>:<id>", e.g. "license:42".
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e BaseEvent) GetAggregateID() string   { return e.AggregateID }
func (e BaseEvent) GetEventType() string     { return e.EventType }
func (e BaseEvent) GetOccurredAt() time.Time { return e.OccurredAt }

type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	CanHandle(eventType string) bool
}

// EventPublisher is what use cases depend on. Publishing must not block the
// request path.
type EventPublisher interface {
	Publish(event DomainEvent) error
}
