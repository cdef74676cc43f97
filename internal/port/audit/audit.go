package audit

import (
	"context"

	"github.com/alanyang/threadkeeper/internal/domain/event"
)

type Store interface {
	Append(ctx context.Context, e event.Event) error
	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]event.Event, error)
}
