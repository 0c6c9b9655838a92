// Package lock serializes token refreshes for a portal across callers.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAcquired is returned when the wait for a lock ran out.
var ErrNotAcquired = errors.New("lock: not acquired")

const (
	DefaultTTL  = 30 * time.Second
	pollEvery   = 50 * time.Millisecond
	defaultWait = 35 * time.Second
)

// Locker grants exclusive, expiring locks keyed by name.
type Locker interface {
	// Acquire blocks until the lock is held, ctx is done, or the wait bound
	// elapses.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Handle, error)
}

type Handle interface {
	Unlock(ctx context.Context) error
}

// MemoryLocker is a process-local Locker.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
	wait  time.Duration
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]time.Time),
		now:   time.Now,
		wait:  defaultWait,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Handle, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return poll(ctx, l.wait, func() (Handle, bool, error) {
		now := l.now()
		l.mu.Lock()
		defer l.mu.Unlock()
		if until, ok := l.locks[key]; ok && now.Before(until) {
			return nil, false, nil
		}
		l.locks[key] = now.Add(ttl)
		return &memoryHandle{locker: l, key: key}, true, nil
	})
}

type memoryHandle struct {
	locker *MemoryLocker
	key    string
	once   sync.Once
}

func (h *memoryHandle) Unlock(_ context.Context) error {
	h.once.Do(func() {
		h.locker.mu.Lock()
		delete(h.locker.locks, h.key)
		h.locker.mu.Unlock()
	})
	return nil
}

// poll retries try until it reports success, fails, or the wait runs out.
func poll(ctx context.Context, wait time.Duration, try func() (Handle, bool, error)) (Handle, error) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		h, ok, err := try()
		if err != nil {
			return nil, err
		}
		if ok {
			return h, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrNotAcquired
		case <-ticker.C:
		}
	}
}
