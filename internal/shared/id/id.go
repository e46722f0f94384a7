// Package id generates human-shareable identifiers and random secrets.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet omits the look-alike characters I, O, 0 and 1.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generate creates a random string of length characters drawn from Alphabet.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(Alphabet)))

	for i := range result {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = Alphabet[num.Int64()]
	}

	return string(result), nil
}

// GenerateSegmented returns prefix followed by groups random segments of
// size characters, all joined by dashes: PREFIX-XXX-XXX-XXX-XXX.
func GenerateSegmented(prefix string, groups, size int) (string, error) {
	parts := make([]string, 0, groups+1)
	parts = append(parts, prefix)
	for i := 0; i < groups; i++ {
		seg, err := Generate(size)
		if err != nil {
			return "", err
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "-"), nil
}

// ParseSegmented splits a segmented id into its prefix and random segments.
// ok is false when the input does not have exactly groups segments of size
// Alphabet characters after a non-empty alphanumeric prefix.
func ParseSegmented(s string, groups, size int) (prefix string, segments []string, ok bool) {
	parts := strings.Split(s, "-")
	if len(parts) != groups+1 || !isPrefix(parts[0]) {
		return "", nil, false
	}
	for _, seg := range parts[1:] {
		if len(seg) != size || !inAlphabet(seg) {
			return "", nil, false
		}
	}
	return parts[0], parts[1:], true
}

// RandomHex returns n cryptographically random bytes hex encoded.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func isPrefix(s string) bool {
	if s == "" || len(s) > 16 {
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func inAlphabet(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
