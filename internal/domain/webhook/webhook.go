package webhook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrWebhookNotFound  = errors.New("webhook not found")
	ErrNoEvents         = errors.New("webhook must subscribe to at least one event")
	ErrUnknownEventType = errors.New("unknown event type")
)

// Webhook is an owner-registered endpoint receiving license events.
type Webhook struct {
	id        uint
	ownerID   uint
	url       string
	secret    string
	events    []string
	isActive  bool
	createdAt time.Time
}

// NewWebhook validates events against known; url validation is the
// caller's concern.
func NewWebhook(ownerID uint, url, secret string, events, known []string) (*Webhook, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	for _, e := range events {
		if !slices.Contains(known, e) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, e)
		}
	}
	return &Webhook{
		ownerID:   ownerID,
		url:       url,
		secret:    secret,
		events:    events,
		isActive:  true,
		createdAt: time.Now().UTC(),
	}, nil
}

func ReconstructWebhook(id, ownerID uint, url, secret string, events []string, isActive bool, createdAt time.Time) *Webhook {
	return &Webhook{
		id:        id,
		ownerID:   ownerID,
		url:       url,
		secret:    secret,
		events:    events,
		isActive:  isActive,
		createdAt: createdAt,
	}
}

func (w *Webhook) ID() uint             { return w.id }
func (w *Webhook) OwnerID() uint        { return w.ownerID }
func (w *Webhook) URL() string          { return w.url }
func (w *Webhook) Secret() string       { return w.secret }
func (w *Webhook) Events() []string     { return w.events }
func (w *Webhook) IsActive() bool       { return w.isActive }
func (w *Webhook) CreatedAt() time.Time { return w.createdAt }

func (w *Webhook) SetID(id uint) {
	w.id = id
}

func (w *Webhook) Subscribes(eventType string) bool {
	return w.isActive && slices.Contains(w.events, eventType)
}

// Delivery records the outcome of one POST attempt.
type Delivery struct {
	ID           uint
	DeliveryID   string
	WebhookID    uint
	EventType    string
	Payload      string
	Attempt      int
	StatusCode   int
	ResponseBody string
	Success      bool
	Error        string
	DurationMs   int64
	CreatedAt    time.Time
}

type Repository interface {
	Create(ctx context.Context, w *Webhook) error
	ListActiveByOwner(ctx context.Context, ownerID uint) ([]*Webhook, error)
}

type DeliveryRepository interface {
	Create(ctx context.Context, d *Delivery) error
	ListByWebhook(ctx context.Context, webhookID uint, limit int) ([]*Delivery, error)
}
