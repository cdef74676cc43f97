package discord

import (
	"github.com/bwmarrin/discordgo"

	discordadapter "github.com/alanyang/threadkeeper/internal/adapter/discord"
	"github.com/alanyang/threadkeeper/internal/domain/member"
)

// Invocation is one slash command as the handlers see it, detached from the
// discordgo interaction so handlers can be driven directly in tests.
type Invocation struct {
	Command   string
	GuildID   string
	ChannelID string
	Actor     member.Member
	Options   map[string]any
}

// Int reads an integer option. JSON numbers arrive as float64.
func (inv Invocation) Int(name string) (int64, bool) {
	switch v := inv.Options[name].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func (inv Invocation) String(name string) (string, bool) {
	s, ok := inv.Options[name].(string)
	return s, ok
}

// invocationFrom converts a guild slash-command interaction. Anything else
// (DMs, components, autocomplete) reports false.
func invocationFrom(i *discordgo.Interaction) (Invocation, bool) {
	if i.Type != discordgo.InteractionApplicationCommand || i.Member == nil || i.GuildID == "" {
		return Invocation{}, false
	}
	data := i.ApplicationCommandData()
	inv := Invocation{
		Command:   data.Name,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Actor:     discordadapter.ToMember(i.Member),
		Options:   make(map[string]any, len(data.Options)),
	}
	for _, o := range data.Options {
		inv.Options[o.Name] = o.Value
	}
	return inv, true
}

// Reply is what the bot answers with. Every reply is ephemeral.
type Reply struct {
	Content string
	Embeds  []*discordgo.MessageEmbed
	err     error
}

func Text(content string) Reply {
	return Reply{Content: content}
}

// Failed is a reply caused by err. The error is logged and counted by the
// router; only content reaches the user.
func Failed(err error, content string) Reply {
	return Reply{Content: content, err: err}
}

func (r Reply) Err() error { return r.err }
