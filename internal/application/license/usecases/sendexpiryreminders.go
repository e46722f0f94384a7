package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/notification"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

const (
	DefaultReminderDays = 7
	reminderBatchSize   = 500
)

// SendExpiryRemindersUseCase publishes license.expiring once per license for
// licenses expiring within the reminder window. The notification log entry
// is written before publishing so concurrent sweeps cannot both notify.
type SendExpiryRemindersUseCase struct {
	licenses  license.Repository
	logs      notification.LogRepository
	publisher events.EventPublisher
	window    time.Duration
	logger    logger.Interface
	now       Clock
}

func NewSendExpiryRemindersUseCase(
	licenses license.Repository,
	logs notification.LogRepository,
	publisher events.EventPublisher,
	days int,
	logger logger.Interface,
) *SendExpiryRemindersUseCase {
	if days <= 0 {
		days = DefaultReminderDays
	}
	return &SendExpiryRemindersUseCase{
		licenses:  licenses,
		logs:      logs,
		publisher: publisher,
		window:    time.Duration(days) * 24 * time.Hour,
		logger:    logger,
		now:       utcNow,
	}
}

// Execute walks the whole reminder window in id-ordered pages, so licenses
// already reminded never hide the ones still waiting.
func (uc *SendExpiryRemindersUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.now()
	until := now.Add(uc.window)

	sent := 0
	var afterID uint
	for {
		page, err := uc.licenses.FindExpiringBetween(ctx, now, until, afterID, reminderBatchSize)
		if err != nil {
			return sent, fmt.Errorf("failed to find expiring licenses: %w", err)
		}
		for _, l := range page {
			if uc.remind(ctx, l, now) {
				sent++
			}
		}
		if len(page) < reminderBatchSize {
			return sent, nil
		}
		afterID = page[len(page)-1].ID()
		if err := ctx.Err(); err != nil {
			return sent, err
		}
	}
}

func (uc *SendExpiryRemindersUseCase) remind(ctx context.Context, l *license.License, now time.Time) bool {
	if !l.ExpiresWithin(now, uc.window) {
		return false
	}

	already, err := uc.logs.Exists(ctx, l.ID(), notification.KindExpiryReminder)
	if err != nil {
		uc.logger.Errorw("failed to check reminder log", "license_id", l.ID(), "error", err)
		return false
	}
	if already {
		return false
	}

	claimed, err := uc.logs.Create(ctx, notification.NewLog(l.ID(), notification.KindExpiryReminder))
	if err != nil {
		uc.logger.Errorw("failed to record reminder", "license_id", l.ID(), "error", err)
		return false
	}
	if !claimed {
		return false
	}

	if err := uc.publisher.Publish(license.NewLicenseExpiringEvent(l, now)); err != nil {
		uc.logger.Warnw("failed to publish expiring event", "license_id", l.ID(), "error", err)
		return false
	}
	return true
}
