package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/licensegate/licensegate/internal/shared/goroutine"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

var (
	ErrDispatcherStopped = errors.New("event dispatcher is not running")
	ErrQueueFull         = errors.New("event queue is full")
)

const (
	defaultQueueSize      = 100
	defaultHandlerTimeout = time.Minute
)

// InMemoryEventDispatcher queues published events and runs each matching
// handler on its own goroutine. Events are lost on process exit.
type InMemoryEventDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string][]EventHandler
	started     bool
	closed      bool

	queue    chan DomainEvent
	inflight sync.WaitGroup
	loopDone chan struct{}

	timeout time.Duration
	log     logger.Interface
}

func NewInMemoryEventDispatcher(queueSize int, handlerTimeout time.Duration, log logger.Interface) *InMemoryEventDispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if handlerTimeout <= 0 {
		handlerTimeout = defaultHandlerTimeout
	}
	return &InMemoryEventDispatcher{
		subscribers: make(map[string][]EventHandler),
		queue:       make(chan DomainEvent, queueSize),
		loopDone:    make(chan struct{}),
		timeout:     handlerTimeout,
		log:         log,
	}
}

// Publish enqueues event. It fails instead of blocking when the queue is
// full.
func (d *InMemoryEventDispatcher) Publish(event DomainEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.started || d.closed {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *InMemoryEventDispatcher) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return errors.New("event type cannot be empty")
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	d.mu.Lock()
	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
	d.mu.Unlock()
	return nil
}

func (d *InMemoryEventDispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return errors.New("event dispatcher already started")
	}
	d.started = true
	go d.loop()
	return nil
}

// Stop rejects new events, delivers everything already queued and waits for
// running handlers.
func (d *InMemoryEventDispatcher) Stop() error {
	d.mu.Lock()
	if !d.started || d.closed {
		d.mu.Unlock()
		return ErrDispatcherStopped
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.loopDone
	d.inflight.Wait()
	return nil
}

func (d *InMemoryEventDispatcher) loop() {
	defer close(d.loopDone)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *InMemoryEventDispatcher) deliver(event DomainEvent) {
	eventType := event.GetEventType()
	d.mu.RLock()
	handlers := d.subscribers[eventType]
	d.mu.RUnlock()

	for _, h := range handlers {
		if !h.CanHandle(eventType) {
			continue
		}
		d.inflight.Add(1)
		goroutine.SafeGoWithTimeout(d.log, "event-handler", d.timeout, func(ctx context.Context) {
			defer d.inflight.Done()
			if err := h.Handle(ctx, event); err != nil {
				d.log.Warnw("event handler failed",
					"event_type", eventType,
					"aggregate_id", event.GetAggregateID(),
					"error", err,
				)
			}
		})
	}
}

// HandlerFunc subscribes a plain function to a single event type.
type HandlerFunc struct {
	eventType string
	fn        func(context.Context, DomainEvent) error
}

func NewSimpleEventHandler(eventType string, fn func(context.Context, DomainEvent) error) *HandlerFunc {
	return &HandlerFunc{eventType: eventType, fn: fn}
}

func (h *HandlerFunc) Handle(ctx context.Context, event DomainEvent) error {
	if h.fn == nil {
		return nil
	}
	return h.fn(ctx, event)
}

func (h *HandlerFunc) CanHandle(eventType string) bool { return h.eventType == eventType }
