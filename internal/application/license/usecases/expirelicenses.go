package usecases

import (
	"context"
	"fmt"

	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

const expireBatchSize = 500

// ExpireLicensesUseCase is the periodic correction for lazy expiry: active
// licenses whose expiry passed without a validation are moved to expired.
type ExpireLicensesUseCase struct {
	lifecycle
	now Clock
}

func NewExpireLicensesUseCase(
	licenses license.Repository,
	publisher events.EventPublisher,
	m *metrics.Registry,
	logger logger.Interface,
) *ExpireLicensesUseCase {
	return &ExpireLicensesUseCase{
		lifecycle: lifecycle{
			licenses:  licenses,
			publisher: publisher,
			metrics:   m,
			logger:    logger,
		},
		now: utcNow,
	}
}

// Execute returns the number of licenses this run transitioned. Batches are
// drained until a short batch or a batch with no progress.
func (uc *ExpireLicensesUseCase) Execute(ctx context.Context) (int, error) {
	total := 0
	for {
		overdue, err := uc.licenses.FindOverdue(ctx, uc.now(), expireBatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to find overdue licenses: %w", err)
		}
		if len(overdue) == 0 {
			return total, nil
		}

		expired := 0
		for _, l := range overdue {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			changed, err := uc.expire(ctx, l, TriggerSweep)
			if err != nil {
				uc.logger.Errorw("failed to expire license", "license_id", l.ID(), "error", err)
				continue
			}
			if changed {
				expired++
			}
		}
		total += expired

		if len(overdue) < expireBatchSize || expired == 0 {
			return total, nil
		}
	}
}
