package lock

import (
	"context"
	"sync"
	"time"

	"fareguard-service/internal/usecase"
)

// MemoryLocker implements Locker within one process
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	now   func() time.Time
	epoch uint64
}

type memoryLease struct {
	id        uint64
	expiresAt time.Time
}

var _ usecase.Locker = (*MemoryLocker)(nil)

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held: make(map[string]memoryLease),
		now:  time.Now,
	}
}

// TryLock acquires key for ttl; an expired lease is taken over
func (l *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.held[key]; ok && now.Before(lease.expiresAt) {
		return nil, false, nil
	}

	l.epoch++
	id := l.epoch
	l.held[key] = memoryLease{id: id, expiresAt: now.Add(ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, ok := l.held[key]; ok && lease.id == id {
			delete(l.held, key)
		}
	}
	return release, true, nil
}
