package mem

import (
	"context"
	"sync"
	"time"
)

// CooldownStore gates low-stock alerts per product. Acquire is the
// set-if-absent primitive: it returns true exactly once per window, and
// false while the cooldown for that product is still running.
type CooldownStore interface {
	// Acquire sets the cooldown flag for key if no active flag exists.
	// Returns true when the flag was newly set (alert may fire).
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Reset clears the flag so the next qualifying allocation alerts again.
	Reset(ctx context.Context, key string) error

	// Active reports whether a cooldown is currently running for key.
	Active(ctx context.Context, key string) (bool, error)
}

type entry struct {
	expiresAt time.Time
}

// Cooldowns is the in-memory CooldownStore, used in tests and as a
// single-process fallback when redis is not configured.
type Cooldowns struct {
	mu   sync.Mutex
	data map[string]entry
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{
		data: make(map[string]entry),
	}
}

func (s *Cooldowns) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if ok && time.Now().Before(e.expiresAt) {
		return false, nil
	}
	s.data[key] = entry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (s *Cooldowns) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *Cooldowns) Active(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(s.data, key) // cleanup expired
		return false, nil
	}
	return true, nil
}
