package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/alanyang/threadkeeper/internal/domain/event"
)

// CaptureRecorder is a test-double AuditRecorder. It records every event
// with a mutex so it is safe for concurrent use.
type CaptureRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *CaptureRecorder) Record(_ context.Context, e event.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *CaptureRecorder) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

// OfType returns all recorded events of type t.
func (c *CaptureRecorder) OfType(t event.Type) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns the messages of every warning-level event.
func (c *CaptureRecorder) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		if e.Level == event.LevelWarning {
			out = append(out, e.Message)
		}
	}
	return out
}

// Logged reports whether any recorded message contains substr.
func (c *CaptureRecorder) Logged(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
