package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeThreadOpened        Type = "thread_opened"
	TypeThreadClosed        Type = "thread_closed"
	TypeThreadReopened      Type = "thread_reopened"
	TypeThreadMemberRemoved Type = "thread_member_removed"
	TypeReminderScheduled   Type = "reminder_scheduled"
	TypeReminderDelivered   Type = "reminder_delivered"
	TypeReminderCancelled   Type = "reminder_cancelled"
	TypeRemindersExpired    Type = "reminders_expired"
	TypeAuthRequested       Type = "auth_requested"
	TypeNicknameUpdated     Type = "nickname_updated"
	TypeReauthRequested     Type = "reauth_requested"
	TypeAuthForgotten       Type = "auth_forgotten"
	TypeMemberJoined        Type = "member_joined"
	TypeWarning             Type = "warning"
	TypeFailure             Type = "failure"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Channel is a domain-scoped fan-out channel. All event types within a
// domain share one subscription.
type Channel string

const (
	ChannelThread   Channel = "thread"
	ChannelReminder Channel = "reminder"
	ChannelAuth     Channel = "auth"
	ChannelGuild    Channel = "guild"
)

// Channels lists every channel, for subscribers that want the whole feed.
var Channels = []Channel{ChannelThread, ChannelReminder, ChannelAuth, ChannelGuild}

var typeToChannel = map[Type]Channel{
	TypeThreadOpened:        ChannelThread,
	TypeThreadClosed:        ChannelThread,
	TypeThreadReopened:      ChannelThread,
	TypeThreadMemberRemoved: ChannelThread,
	TypeReminderScheduled:   ChannelReminder,
	TypeReminderDelivered:   ChannelReminder,
	TypeReminderCancelled:   ChannelReminder,
	TypeRemindersExpired:    ChannelReminder,
	TypeAuthRequested:       ChannelAuth,
	TypeNicknameUpdated:     ChannelAuth,
	TypeReauthRequested:     ChannelAuth,
	TypeAuthForgotten:       ChannelAuth,
	TypeMemberJoined:        ChannelGuild,
	TypeWarning:             ChannelGuild,
	TypeFailure:             ChannelGuild,
}

// ChannelFor returns the domain channel for a given event type.
func ChannelFor(t Type) Channel {
	if ch, ok := typeToChannel[t]; ok {
		return ch
	}
	return ChannelGuild
}

// Event is one audit record: what happened, who did it, and the line that
// was logged for it.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Level     Level     `json:"level"`
	GuildID   string    `json:"guild_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, level Level, guildID, message string) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Level:     level,
		GuildID:   guildID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func Info(eventType Type, guildID, message string) Event {
	return New(eventType, LevelInfo, guildID, message)
}

func Warning(guildID, message string) Event {
	return New(TypeWarning, LevelWarning, guildID, message)
}

func Failure(guildID, message string) Event {
	return New(TypeFailure, LevelError, guildID, message)
}

func (e Event) WithActor(id string) Event {
	e.ActorID = id
	return e
}

// WithSubject records the id of the thing acted on (thread, reminder, member).
func (e Event) WithSubject(id string) Event {
	e.Subject = id
	return e
}

func (e Event) Emoji() string {
	switch e.Level {
	case LevelWarning:
		return "⚠️"
	case LevelError:
		return "❌"
	default:
		return "📝"
	}
}
