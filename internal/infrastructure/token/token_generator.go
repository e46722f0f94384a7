// Package token generates API key secrets. Only the sha256 of a secret is
// persisted; the plaintext is shown to the caller once.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/licensegate/licensegate/internal/shared/constants"
)

const (
	PrefixLive = constants.APIKeyPrefix
	PrefixTest = "lg_test_"

	// displayRandomChars is how much of the random part is kept in the
	// stored display prefix so owners can tell keys apart.
	displayRandomChars = 4
)

// secretBytes of randomness are hex encoded after the prefix.
const secretBytes = 32

// TokenGenerator mints API key secrets and the digests stored in their
// place.
type TokenGenerator interface {
	Generate(prefix string) (plainToken string, hash string, err error)
	Hash(plainToken string) string
	Verify(plainToken, hash string) bool
}

type sha256Generator struct{}

func NewTokenGenerator() TokenGenerator {
	return sha256Generator{}
}

func (g sha256Generator) Generate(prefix string) (string, string, error) {
	var secret [secretBytes]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	plain := prefix + hex.EncodeToString(secret[:])
	return plain, g.Hash(plain), nil
}

// Hash is unsalted: keys carry 256 bits of entropy and must be found by
// digest.
func (sha256Generator) Hash(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}

func (g sha256Generator) Verify(plainToken, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(g.Hash(plainToken)), []byte(hash)) == 1
}

// DisplayPrefix returns the non-secret leading part of a key, e.g.
// "lg_live_3fa9".
func DisplayPrefix(plainToken, prefix string) string {
	n := len(prefix) + displayRandomChars
	if len(plainToken) < n {
		return plainToken
	}
	return plainToken[:n]
}
