package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLock_MutualExclusion(t *testing.T) {
	l := NewMemoryLock()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "sty-1|2026-03-02")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r2, err := l.Acquire(ctx, "sty-1|2026-03-02")
		if err != nil {
			t.Errorf("second acquire failed: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		r2()
	}()

	select {
	case <-acquired:
		t.Fatalf("second acquire succeeded while lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second acquire never completed after release")
	}
}

func TestMemoryLock_TimeoutReturnsErrLockTimeout(t *testing.T) {
	l := NewMemoryLock()

	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestMemoryLock_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLock()
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "sty-1|2026-03-02")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer r1()

	r2, err := l.Acquire(ctx, "sty-1|2026-03-03")
	if err != nil {
		t.Fatalf("different key must not block: %v", err)
	}
	r2()
}

func TestMemoryLock_ReleaseIsIdempotent(t *testing.T) {
	l := NewMemoryLock()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	release()
	release()

	r2, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("reacquire after double release failed: %v", err)
	}
	r2()
}
