package notifier

import (
	"context"

	"github.com/alanyang/threadkeeper/internal/domain/event"
)

// AuditRecorder is where services report every effect they produce.
// Recording never fails from the caller's point of view.
type AuditRecorder interface {
	Record(ctx context.Context, e event.Event)
}
