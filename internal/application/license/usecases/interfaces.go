package usecases

import (
	"time"

	"github.com/licensegate/licensegate/internal/infrastructure/auth"
)

// ResponseSigner signs validation results and derives re-verifiable tokens.
type ResponseSigner interface {
	Sign(payload any, nonce string, timestamp int64) (string, error)
	IssueToken(licenseKey string, valid bool, timestamp int64, tc auth.TokenContext) string
	VerifyToken(token, licenseKey string, valid bool, timestamp int64, tc auth.TokenContext, now time.Time) bool
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
