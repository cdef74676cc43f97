package reminder

import (
	"context"

	"github.com/alanyang/threadkeeper/internal/domain/reminder"
)

// Store is the reminder system of record. Implementations never keep
// reminders in process; every call reflects the worker's current state.
type Store interface {
	Create(ctx context.Context, r reminder.Reminder) (int64, error)
	Due(ctx context.Context) ([]reminder.Reminder, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID string) ([]reminder.Reminder, error)
	ListByGuild(ctx context.Context, guildID string) ([]reminder.Reminder, error)
	// Cleanup removes every reminder older than the retention window and
	// returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}
