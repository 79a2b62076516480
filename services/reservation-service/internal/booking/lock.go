package booking

import (
	"context"
	"sync"
)

// SlotLock serializes validate-then-persist sequences per stylist-day so
// that two concurrent requests for overlapping times can never both pass
// validation. Acquire blocks until the lock is held or ctx is done, in
// which case it returns ErrLockTimeout.
type SlotLock interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryLock is a keyed in-process mutex, sufficient for single-instance
// deployments. Multi-instance deployments use RedisLock (or rely on the
// database exclusion constraint alone, at the cost of more SLOT_TAKEN
// retries).
type MemoryLock struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: make(map[string]chan struct{})}
}

func (l *MemoryLock) Acquire(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		ch, taken := l.held[key]
		if !taken {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			var once sync.Once
			release := func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
			}
			return release, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ch:
			// Holder released; race for the lock again.
		}
	}
}
