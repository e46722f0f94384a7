package cache

import (
	"context"
	"sync"
	"time"

	"github.com/licensegate/licensegate/internal/domain/nonce"
	"github.com/licensegate/licensegate/internal/shared/id"
)

type nonceEntry struct {
	issuedAt time.Time
	used     bool
}

// MemoryNonceStore keeps nonces in a process-local map. Each replica has an
// independent view; use RedisNonceStore when running more than one.
type MemoryNonceStore struct {
	mu      sync.Mutex
	entries map[string]*nonceEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryNonceStore(ttl time.Duration) *MemoryNonceStore {
	if ttl <= 0 {
		ttl = nonce.DefaultTTL
	}
	return &MemoryNonceStore{
		entries: make(map[string]*nonceEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryNonceStore) Issue(ctx context.Context) (*nonce.Nonce, error) {
	value, err := id.RandomHex(nonce.ValueBytes)
	if err != nil {
		return nil, err
	}
	issuedAt := s.now().UTC()

	s.mu.Lock()
	s.entries[value] = &nonceEntry{issuedAt: issuedAt}
	s.mu.Unlock()

	return &nonce.Nonce{Value: value, IssuedAt: issuedAt, ExpiresAt: issuedAt.Add(s.ttl)}, nil
}

func (s *MemoryNonceStore) Consume(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[value]
	if !ok {
		return nonce.ErrNonceNotFound
	}
	if e.used {
		return nonce.ErrNonceAlreadyUsed
	}
	if s.now().Sub(e.issuedAt) > s.ttl {
		return nonce.ErrNonceExpired
	}
	e.used = true
	return nil
}

// Sweep drops every entry older than the TTL, used or not.
func (s *MemoryNonceStore) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for value, e := range s.entries {
		if e.issuedAt.Before(cutoff) {
			delete(s.entries, value)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked nonces.
func (s *MemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
