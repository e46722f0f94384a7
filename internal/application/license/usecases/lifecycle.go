package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/license"
	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils/logutil"
)

// Expiry triggers reported to metrics.
const (
	TriggerLazy  = "lazy"
	TriggerSweep = "sweep"
)

// lifecycle bundles the side effects shared by the protocol use cases:
// persisting the lazy expiry transition, publishing events and auditing.
type lifecycle struct {
	licenses  license.Repository
	publisher events.EventPublisher
	recorder  audit.Recorder
	metrics   *metrics.Registry
	logger    logger.Interface
}

// expire moves l from active to expired. Only the call that performs the
// transition publishes license.expired.
func (lc *lifecycle) expire(ctx context.Context, l *license.License, trigger string) (bool, error) {
	changed, err := lc.licenses.TransitionStatus(ctx, l.ID(), vo.StatusActive, vo.StatusExpired)
	if err != nil {
		return false, fmt.Errorf("failed to expire license: %w", err)
	}
	if !changed {
		return false, nil
	}
	if err := l.MarkExpired(); err != nil {
		lc.logger.Warnw("expired license in unexpected status", "license_id", l.ID(), "status", l.Status(), "error", err)
	}

	lc.metrics.RecordLicenseExpired(trigger)
	lc.publish(license.NewLicenseExpiredEvent(l))
	lc.logger.Infow("license expired",
		"license_id", l.ID(),
		"license_key", logutil.MaskLicenseKey(l.LicenseKey()),
		"trigger", trigger,
	)
	return true, nil
}

func (lc *lifecycle) publish(event events.DomainEvent) {
	if lc.publisher == nil {
		return
	}
	if err := lc.publisher.Publish(event); err != nil {
		lc.logger.Warnw("failed to publish event", "event_type", event.GetEventType(), "error", err)
	}
}

func (lc *lifecycle) audit(e *audit.Entry) {
	if lc.recorder == nil {
		return
	}
	lc.recorder.Record(e)
}

// lookup returns the license or a 404 AppError.
func (lc *lifecycle) lookup(ctx context.Context, key string) (*license.License, error) {
	l, err := lc.licenses.GetByKey(ctx, key)
	if err != nil {
		lc.logger.Errorw("failed to get license", "license_key", logutil.MaskLicenseKey(key), "error", err)
		return nil, errors.NewInternalError("failed to load license")
	}
	if l == nil {
		return nil, errors.NewNotFoundError(MsgNotFound)
	}
	return l, nil
}

// checkScope rejects product-scoped keys used against another product's license.
func checkScope(key *apikey.APIKey, l *license.License) error {
	if key != nil && !key.CanAccessProduct(l.ProductID()) {
		return errors.NewForbiddenError("API key is not authorized for this product")
	}
	return nil
}

// usable rejects licenses that are not active, lazily expiring overdue ones.
func (lc *lifecycle) usable(ctx context.Context, l *license.License, now time.Time) error {
	if !l.Status().IsActive() {
		return errors.NewForbiddenError(MsgNotActive, l.Status().String())
	}
	if l.IsExpiredAt(now) {
		if _, err := lc.expire(ctx, l, TriggerLazy); err != nil {
			lc.logger.Errorw("failed to persist lazy expiry", "license_id", l.ID(), "error", err)
			return errors.NewInternalError("failed to update license")
		}
		return errors.NewForbiddenError(MsgExpired)
	}
	return nil
}

func keyID(key *apikey.APIKey) uint {
	if key == nil {
		return 0
	}
	return key.ID()
}
