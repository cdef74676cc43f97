package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	discordadapter "github.com/alanyang/threadkeeper/internal/adapter/discord"
	authsvc "github.com/alanyang/threadkeeper/internal/service/auth"
	greetersvc "github.com/alanyang/threadkeeper/internal/service/greeter"
)

// Intents covers guild structure, member joins and leaves, and slash commands.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

// Bot binds the gateway session to the dispatch table, the greeter and the
// auth record cleanup on leave.
type Bot struct {
	session  *discordgo.Session
	guildID  string
	router   *Router
	greeter  *greetersvc.Service
	auth     *authsvc.Service
	commands []*discordgo.ApplicationCommand

	// ctx is the lifetime of the open session; discordgo handlers carry none.
	ctx context.Context
}

func NewBot(session *discordgo.Session, guildID string, router *Router, greeter *greetersvc.Service, auth *authsvc.Service) *Bot {
	return &Bot{
		session:  session,
		guildID:  guildID,
		router:   router,
		greeter:  greeter,
		auth:     auth,
		commands: Commands(),
		ctx:      context.Background(),
	}
}

// Open registers every event handler and connects. Handlers stop doing work
// once ctx is cancelled.
func (b *Bot) Open(ctx context.Context) error {
	b.ctx = ctx
	for _, h := range []any{
		b.onReady,
		b.onMemberAdd,
		b.onMemberRemove,
		b.onInteraction,
	} {
		b.session.AddHandler(h)
	}
	b.session.Identify.Intents = Intents

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway session: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// onReady overwrites the guild's command set so removed commands disappear.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("logged in", "user", r.User.String())

	synced, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.guildID, b.commands, discordgo.WithContext(b.ctx))
	if err != nil {
		slog.Error("failed to sync commands", "guild_id", b.guildID, "error", err)
		return
	}
	slog.Info(fmt.Sprintf("Synced %d commands to guild %s.", len(synced), b.guildID))
}

func (b *Bot) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if b.greeter == nil || m.Member == nil || m.GuildID != b.guildID {
		return
	}
	if err := b.greeter.Welcome(b.ctx, m.GuildID, discordadapter.ToMember(m.Member)); err != nil {
		slog.ErrorContext(b.ctx, "failed to welcome member", "guild_id", m.GuildID, "error", err)
	}
}

func (b *Bot) onMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if b.auth == nil || m.Member == nil || m.User == nil || m.GuildID != b.guildID {
		return
	}
	if err := b.auth.Forget(b.ctx, m.GuildID, discordadapter.ToMember(m.Member)); err != nil {
		slog.ErrorContext(b.ctx, "failed to forget auth record", "user_id", m.User.ID, "error", err)
	}
}

// onInteraction defers the response first so slow operations (paced
// membership changes) never hit the interaction deadline.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	inv, ok := invocationFrom(i.Interaction)
	if !ok {
		return
	}
	ctx := b.ctx

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		slog.ErrorContext(ctx, "failed to defer interaction", "command", inv.Command, "error", err)
		return
	}

	reply := b.router.Dispatch(ctx, inv)

	edit := &discordgo.WebhookEdit{Content: &reply.Content}
	if len(reply.Embeds) > 0 {
		edit.Embeds = &reply.Embeds
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit, discordgo.WithContext(ctx)); err != nil {
		slog.ErrorContext(ctx, "failed to send reply", "command", inv.Command, "error", err)
	}
}
