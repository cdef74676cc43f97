package memory

import (
	"context"
	"sync"
)

// Locker is a process-local try-lock keyed like a Postgres advisory lock.
type Locker struct {
	mu   sync.Mutex
	held map[int64]bool
}

func NewLocker() *Locker {
	return &Locker{held: make(map[int64]bool)}
}

func (l *Locker) TryWithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error) {
	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return false, nil
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return true, fn(ctx)
}
