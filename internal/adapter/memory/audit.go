package memory

import (
	"context"
	"sync"

	"github.com/alanyang/threadkeeper/internal/domain/event"
)

const DefaultAuditCapacity = 500

// AuditLog keeps the most recent audit events in a fixed-size ring.
type AuditLog struct {
	mu     sync.Mutex
	buf    []event.Event
	next   int
	filled bool
}

func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditLog{buf: make([]event.Event, capacity)}
}

func (a *AuditLog) Append(_ context.Context, e event.Event) error {
	a.mu.Lock()
	a.buf[a.next] = e
	a.next = (a.next + 1) % len(a.buf)
	if a.next == 0 {
		a.filled = true
	}
	a.mu.Unlock()
	return nil
}

func (a *AuditLog) Recent(_ context.Context, limit int) ([]event.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := a.next
	if a.filled {
		size = len(a.buf)
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]event.Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (a.next - i + len(a.buf)) % len(a.buf)
		out = append(out, a.buf[idx])
	}
	return out, nil
}
