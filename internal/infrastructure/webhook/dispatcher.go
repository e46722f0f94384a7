// Package webhook delivers license events to owner-registered endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"slices"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	hook "github.com/licensegate/licensegate/internal/domain/webhook"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/constants"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils"
	"github.com/licensegate/licensegate/internal/shared/utils/logutil"
)

const (
	userAgent          = "LicenseGate-Webhook/1.0"
	maxResponseBody    = 4 << 10
	maxParallelTargets = 4
)

// Config tunes delivery.
type Config struct {
	Timeout         time.Duration
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// allowPrivateTargets skips the dial-time address check.
	allowPrivateTargets bool
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxTries == 0 {
		c.MaxTries = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 30 * time.Second
	}
	return c
}

// Payload is the JSON body posted to endpoints.
type Payload struct {
	ID         string             `json:"id"`
	Event      string             `json:"event"`
	OccurredAt time.Time          `json:"occurred_at"`
	Data       events.DomainEvent `json:"data"`
}

// Dispatcher is an event handler that POSTs license events to every active
// webhook of the owning account. Failures are recorded, never returned to
// the publisher.
type Dispatcher struct {
	hooks      hook.Repository
	deliveries hook.DeliveryRepository
	client     *http.Client
	config     Config
	metrics    *metrics.Registry
	logger     logger.Interface
}

func NewDispatcher(
	hooks hook.Repository,
	deliveries hook.DeliveryRepository,
	config Config,
	m *metrics.Registry,
	log logger.Interface,
) *Dispatcher {
	config = config.withDefaults()
	return &Dispatcher{
		hooks:      hooks,
		deliveries: deliveries,
		client:     newHTTPClient(config),
		config:     config,
		metrics:    m,
		logger:     log,
	}
}

// errBlockedTarget is returned when an endpoint resolves to an address a
// webhook may not reach.
var errBlockedTarget = errors.New("webhook target resolves to a private or reserved address")

// newHTTPClient does not follow redirects and refuses to connect to
// non-public addresses, checked on the address actually dialed.
func newHTTPClient(config Config) *http.Client {
	dialer := &net.Dialer{Timeout: config.Timeout, KeepAlive: 30 * time.Second}
	if !config.allowPrivateTargets {
		dialer.Control = func(_, address string, _ syscall.RawConn) error {
			ap, err := netip.ParseAddrPort(address)
			if err != nil || !utils.IsPublicAddr(ap.Addr()) {
				return errBlockedTarget
			}
			return nil
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (d *Dispatcher) CanHandle(eventType string) bool {
	return slices.Contains(license.AllEventTypes, eventType)
}

func (d *Dispatcher) Handle(ctx context.Context, event events.DomainEvent) error {
	owned, ok := event.(license.OwnedEvent)
	if !ok {
		return nil
	}

	hooks, err := d.hooks.ListActiveByOwner(ctx, owned.GetOwnerID())
	if err != nil {
		return fmt.Errorf("failed to load webhooks: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(maxParallelTargets)
	for _, h := range hooks {
		if !h.Subscribes(event.GetEventType()) {
			continue
		}
		g.Go(func() error {
			d.Deliver(ctx, h, event)
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

// Deliver posts one event to one webhook, retrying transport errors, 429
// and 5xx responses with exponential backoff. Every attempt is recorded.
func (d *Dispatcher) Deliver(ctx context.Context, h *hook.Webhook, event events.DomainEvent) bool {
	payload := Payload{
		ID:         uuid.NewString(),
		Event:      event.GetEventType(),
		OccurredAt: event.GetOccurredAt(),
		Data:       event,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Errorw("failed to encode webhook payload", "event_type", payload.Event, "error", err)
		return false
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.InitialInterval
	b.MaxInterval = d.config.MaxInterval

	attempt := 0
	_, err = backoff.Retry(ctx, func() (int, error) {
		attempt++
		return d.attempt(ctx, h, payload, body, attempt)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(d.config.MaxTries),
	)
	if err != nil {
		d.logger.Warnw("webhook delivery failed",
			"webhook_id", h.ID(),
			"event_type", payload.Event,
			"delivery_id", payload.ID,
			"attempts", attempt,
			"error", err,
		)
		return false
	}

	d.logger.Debugw("webhook delivered", "webhook_id", h.ID(), "event_type", payload.Event, "attempts", attempt)
	return true
}

func (d *Dispatcher) attempt(ctx context.Context, h *hook.Webhook, payload Payload, body []byte, attempt int) (int, error) {
	start := time.Now()
	status, respBody, err := d.post(ctx, h, payload, body)
	elapsed := time.Since(start)

	record := &hook.Delivery{
		DeliveryID:   payload.ID,
		WebhookID:    h.ID(),
		EventType:    payload.Event,
		Payload:      string(body),
		Attempt:      attempt,
		StatusCode:   status,
		ResponseBody: respBody,
		Success:      err == nil && status >= 200 && status < 300,
		DurationMs:   elapsed.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}

	var result error
	switch {
	case err != nil:
		result = err
	case record.Success:
		result = nil
	case status == http.StatusTooManyRequests || status >= 500:
		result = fmt.Errorf("endpoint returned %d", status)
	default:
		result = backoff.Permanent(fmt.Errorf("endpoint returned %d", status))
	}
	if result != nil {
		record.Error = logutil.TruncateForLog(result.Error(), 1000)
	}

	// Recording must not fail the delivery; the request context may already
	// be cancelled by a slow endpoint.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	if rerr := d.deliveries.Create(recordCtx, record); rerr != nil {
		d.logger.Warnw("failed to record webhook delivery", "webhook_id", h.ID(), "error", rerr)
	}
	cancel()

	d.metrics.RecordWebhookAttempt(record.Success, elapsed)
	return status, result
}

func (d *Dispatcher) post(ctx context.Context, h *hook.Webhook, payload Payload, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL(), bytes.NewReader(body))
	if err != nil {
		return 0, "", backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(constants.HeaderWebhookEvent, payload.Event)
	req.Header.Set(constants.HeaderWebhookDelivery, payload.ID)
	if h.Secret() != "" {
		req.Header.Set(constants.HeaderWebhookSignature, Sign(h.Secret(), body))
	}

	resp, err := d.client.Do(req)
	if errors.Is(err, errBlockedTarget) {
		return 0, "", backoff.Permanent(errBlockedTarget)
	}
	if err != nil {
		return 0, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return resp.StatusCode, string(respBody), nil
}

// Sign returns the signature header value "sha256=<hex HMAC-SHA256(body)>".
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

var _ events.EventHandler = (*Dispatcher)(nil)
