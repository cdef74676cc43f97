package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyang/threadkeeper/internal/domain/event"
	portaudit "github.com/alanyang/threadkeeper/internal/port/audit"
	portbus "github.com/alanyang/threadkeeper/internal/port/eventbus"
	portgateway "github.com/alanyang/threadkeeper/internal/port/gateway"
)

// Relay is the single sink for audit records. Every record is logged,
// echoed to the bot-logs channel, persisted and published. Only the log line
// is guaranteed; the other three are best effort.
type Relay struct {
	messenger    portgateway.Messenger
	logChannelID string
	store        portaudit.Store
	bus          portbus.EventBus
}

// NewRelay wires the optional sinks. Any of messenger, store and bus may be
// nil, and an empty logChannelID disables the channel echo.
func NewRelay(messenger portgateway.Messenger, logChannelID string, store portaudit.Store, bus portbus.EventBus) *Relay {
	return &Relay{messenger: messenger, logChannelID: logChannelID, store: store, bus: bus}
}

func (r *Relay) Record(ctx context.Context, e event.Event) {
	slog.Log(ctx, slogLevel(e.Level), e.Message,
		"event", e.Type,
		"guild_id", e.GuildID,
		"actor_id", e.ActorID,
		"subject", e.Subject,
	)

	if r.messenger != nil && r.logChannelID != "" {
		if err := r.messenger.Send(ctx, r.logChannelID, FormatEcho(e)); err != nil {
			slog.ErrorContext(ctx, "failed to send log to channel", "channel_id", r.logChannelID, "error", err)
		}
	}
	if r.store != nil {
		if err := r.store.Append(ctx, e); err != nil {
			slog.ErrorContext(ctx, "failed to persist audit event", "event_id", e.ID, "error", err)
		}
	}
	if r.bus != nil {
		if err := r.bus.Publish(ctx, e); err != nil {
			slog.ErrorContext(ctx, "failed to publish audit event", "event_id", e.ID, "error", err)
		}
	}
}

// FormatEcho renders the bot-logs channel line for e.
func FormatEcho(e event.Event) string {
	return fmt.Sprintf("%s `[%s]` %s", e.Emoji(), e.Timestamp.Format("2006-01-02 15:04:05"), e.Message)
}

func slogLevel(l event.Level) slog.Level {
	switch l {
	case event.LevelWarning:
		return slog.LevelWarn
	case event.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
