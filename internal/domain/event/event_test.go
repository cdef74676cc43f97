package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyang/threadkeeper/internal/domain/event"
)

func TestChannelFor(t *testing.T) {
	assert.Equal(t, event.ChannelThread, event.ChannelFor(event.TypeThreadOpened))
	assert.Equal(t, event.ChannelReminder, event.ChannelFor(event.TypeReminderDelivered))
	assert.Equal(t, event.ChannelAuth, event.ChannelFor(event.TypeNicknameUpdated))
	assert.Equal(t, event.ChannelAuth, event.ChannelFor(event.TypeAuthForgotten))
	assert.Equal(t, event.ChannelGuild, event.ChannelFor(event.Type("unknown")))
}

func TestEmoji(t *testing.T) {
	assert.Equal(t, "📝", event.Info(event.TypeThreadOpened, "g", "x").Emoji())
	assert.Equal(t, "⚠️", event.Warning("g", "x").Emoji())
	assert.Equal(t, "❌", event.Failure("g", "x").Emoji())
}

func TestBuilders(t *testing.T) {
	e := event.Info(event.TypeThreadClosed, "g1", "closed").WithActor("u1").WithSubject("t1")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "g1", e.GuildID)
	assert.Equal(t, "u1", e.ActorID)
	assert.Equal(t, "t1", e.Subject)
	assert.Equal(t, event.LevelInfo, e.Level)
}
