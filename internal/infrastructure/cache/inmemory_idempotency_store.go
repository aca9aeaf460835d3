package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps idempotency keys in process memory. It is
// used when Redis is not configured and in tests; keys are lost on restart
// and are not shared between instances.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	now     func() time.Time

	done     chan struct{}
	sweeper  sync.WaitGroup
	stopOnce sync.Once
}

// MemoryOption configures an InMemoryIdempotencyStore
type MemoryOption func(*InMemoryIdempotencyStore, *time.Duration)

// WithSweepInterval sets how often expired keys are dropped
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(_ *InMemoryIdempotencyStore, interval *time.Duration) {
		if d > 0 {
			*interval = d
		}
	}
}

// WithClock replaces time.Now, for tests that need to move time forward
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryIdempotencyStore, _ *time.Duration) {
		s.now = now
	}
}

// NewInMemoryIdempotencyStore starts a store with a background sweeper.
// Call Close to stop it.
func NewInMemoryIdempotencyStore(opts ...MemoryOption) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	interval := defaultSweepInterval
	for _, opt := range opts {
		opt(s, &interval)
	}

	s.sweeper.Add(1)
	go s.sweep(interval)
	return s
}

func (s *InMemoryIdempotencyStore) live(key string, at time.Time) bool {
	exp, ok := s.expires[key]
	return ok && at.Before(exp)
}

// MarkProcessed claims key for ttl. It reports false when a live claim
// already exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	if s.live(key, at) {
		return false, nil
	}
	s.expires[key] = at.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live(key, s.now()), nil
}

// Forget drops key. Unknown keys are ignored.
func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expires, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper. Further calls are no-ops.
func (s *InMemoryIdempotencyStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.sweeper.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweep(interval time.Duration) {
	defer s.sweeper.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	for key := range s.expires {
		if !s.live(key, at) {
			delete(s.expires, key)
		}
	}
}

// Size counts stored keys, expired ones included until the next sweep
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expires)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
