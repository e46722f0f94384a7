// Package auth holds the server-side HMAC primitives that let client SDKs
// detect tampered validation responses and re-verify earlier results.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	// DefaultTokenMaxAge bounds how long a validation token re-verifies.
	DefaultTokenMaxAge = 300 * time.Second

	generatedSecretBytes = 32
)

// TokenContext carries the optional request fields bound into a token.
type TokenContext struct {
	Domain    string
	MachineID string
	ProductID string
}

// Signer signs validation responses and derives validation tokens with one
// process-wide secret.
type Signer struct {
	secret []byte
	maxAge time.Duration
}

func NewSigner(secret []byte, maxAge time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret cannot be empty")
	}
	if maxAge <= 0 {
		maxAge = DefaultTokenMaxAge
	}
	return &Signer{secret: secret, maxAge: maxAge}, nil
}

// ResolveSecret returns the configured secret, or a random one when none is
// configured. generated tells the caller to warn that signatures and tokens
// will not survive a restart.
func ResolveSecret(configured string) (secret []byte, generated bool, err error) {
	if configured != "" {
		return []byte(configured), false, nil
	}
	b := make([]byte, generatedSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, false, fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return []byte(hex.EncodeToString(b)), true, nil
}

// Sign returns hex HMAC-SHA256 over JSON(payload) + nonce + timestamp.
func (s *Signer) Sign(payload any, nonce string, timestamp int64) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload for signing: %w", err)
	}
	h := hmac.New(sha256.New, s.secret)
	h.Write(body)
	h.Write([]byte(nonce))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifySignature recomputes Sign and compares in constant time.
func (s *Signer) VerifySignature(payload any, nonce string, timestamp int64, signature string) bool {
	expected, err := s.Sign(payload, nonce, timestamp)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(signature))
}

// IssueToken derives the validation token for a result. timestamp is in
// unix seconds.
func (s *Signer) IssueToken(licenseKey string, valid bool, timestamp int64, tc TokenContext) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(tokenMessage(licenseKey, valid, timestamp, tc, s.secret)))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyToken checks token against the same inputs it was issued for. A
// token older than the max age, or dated further ahead than the max age, is
// rejected even when its HMAC matches.
func (s *Signer) VerifyToken(token, licenseKey string, valid bool, timestamp int64, tc TokenContext, now time.Time) bool {
	age := now.Sub(time.Unix(timestamp, 0))
	if age > s.maxAge || age < -s.maxAge {
		return false
	}
	expected := s.IssueToken(licenseKey, valid, timestamp, tc)
	return hmac.Equal([]byte(expected), []byte(token))
}

// MaxAge is the token lifetime.
func (s *Signer) MaxAge() time.Duration {
	return s.maxAge
}

func tokenMessage(licenseKey string, valid bool, timestamp int64, tc TokenContext, secret []byte) string {
	return fmt.Sprintf("%s:%t:%d:%s:%s:%s:%s",
		licenseKey, valid, timestamp, tc.Domain, tc.MachineID, tc.ProductID, secret)
}
