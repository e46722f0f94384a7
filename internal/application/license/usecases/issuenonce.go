package usecases

import (
	"context"
	"time"

	"github.com/licensegate/licensegate/internal/domain/nonce"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type IssueNonceResult struct {
	Nonce     string    `json:"nonce"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int       `json:"expires_in"`
}

type IssueNonceUseCase struct {
	nonces  nonce.Store
	metrics *metrics.Registry
	logger  logger.Interface
}

func NewIssueNonceUseCase(nonces nonce.Store, m *metrics.Registry, logger logger.Interface) *IssueNonceUseCase {
	return &IssueNonceUseCase{nonces: nonces, metrics: m, logger: logger}
}

func (uc *IssueNonceUseCase) Execute(ctx context.Context) (*IssueNonceResult, error) {
	n, err := uc.nonces.Issue(ctx)
	if err != nil {
		uc.metrics.RecordNonce("issue", "error")
		uc.logger.Errorw("failed to issue nonce", "error", err)
		return nil, errors.NewInternalError("failed to issue nonce")
	}
	uc.metrics.RecordNonce("issue", "ok")

	return &IssueNonceResult{
		Nonce:     n.Value,
		IssuedAt:  n.IssuedAt,
		ExpiresAt: n.ExpiresAt,
		ExpiresIn: int(n.ExpiresAt.Sub(n.IssuedAt).Seconds()),
	}, nil
}
