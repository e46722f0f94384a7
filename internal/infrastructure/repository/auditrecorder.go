package repository

import (
	"context"
	"time"

	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/shared/goroutine"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

const auditWriteTimeout = 5 * time.Second

// AsyncAuditRecorder writes audit entries off the request path. A failed
// write is logged and dropped.
type AsyncAuditRecorder struct {
	repo   audit.Repository
	logger logger.Interface
}

func NewAsyncAuditRecorder(repo audit.Repository, logger logger.Interface) *AsyncAuditRecorder {
	return &AsyncAuditRecorder{repo: repo, logger: logger}
}

func (r *AsyncAuditRecorder) Record(e *audit.Entry) {
	if e == nil {
		return
	}
	goroutine.SafeGoWithTimeout(r.logger, "audit-record", auditWriteTimeout, func(ctx context.Context) {
		if err := r.repo.Create(ctx, e); err != nil {
			r.logger.Warnw("audit entry dropped", "action", e.Action, "error", err)
		}
	})
}

var _ audit.Recorder = (*AsyncAuditRecorder)(nil)
