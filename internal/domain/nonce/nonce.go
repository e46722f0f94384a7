// Package nonce defines single-use anti-replay challenges.
package nonce

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long an issued nonce can be consumed.
const DefaultTTL = 5 * time.Minute

// ValueBytes is the entropy of a nonce; the hex value is twice as long.
const ValueBytes = 32

var (
	ErrNonceNotFound    = errors.New("nonce not found")
	ErrNonceAlreadyUsed = errors.New("nonce already used")
	ErrNonceExpired     = errors.New("nonce expired")
)

type Nonce struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Store issues nonces and consumes each at most once. Among concurrent
// Consume calls for the same value exactly one returns nil.
type Store interface {
	Issue(ctx context.Context) (*Nonce, error)
	Consume(ctx context.Context, value string) error
}

// Sweeper is implemented by stores that reclaim expired entries themselves.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// IsRejection reports whether err is one of the consume outcomes a caller
// should see rather than a store failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNonceNotFound) ||
		errors.Is(err, ErrNonceAlreadyUsed) ||
		errors.Is(err, ErrNonceExpired)
}
