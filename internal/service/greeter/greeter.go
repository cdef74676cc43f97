package greeter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	"github.com/alanyang/threadkeeper/internal/port/gateway"
	"github.com/alanyang/threadkeeper/internal/port/notifier"
)

const DefaultChannelName = "recruitment"

// Service posts the join greeting in the guild's welcome channel.
type Service struct {
	dir         gateway.Directory
	msg         gateway.Messenger
	audit       notifier.AuditRecorder
	channelName string
	community   string
}

func NewService(dir gateway.Directory, msg gateway.Messenger, audit notifier.AuditRecorder, channelName, community string) *Service {
	if channelName == "" {
		channelName = DefaultChannelName
	}
	return &Service{dir: dir, msg: msg, audit: audit, channelName: channelName, community: community}
}

// Welcome greets m. A guild without the welcome channel is not an error;
// the join simply goes unannounced.
func (s *Service) Welcome(ctx context.Context, guildID string, m member.Member) error {
	channels, err := s.dir.TextChannels(ctx, guildID)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	var channelID string
	for _, c := range channels {
		if c.Name == s.channelName {
			channelID = c.ID
			break
		}
	}
	if channelID == "" {
		slog.DebugContext(ctx, "no welcome channel", "guild_id", guildID, "channel_name", s.channelName)
		return nil
	}

	if err := s.msg.Send(ctx, channelID, Message(s.community, m.Mention())); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	s.audit.Record(ctx, event.Info(event.TypeMemberJoined, guildID,
		fmt.Sprintf("%s joined the server.", m.Username)).WithSubject(m.ID))
	return nil
}

func Message(community, mention string) string {
	if community == "" {
		community = "the server"
	}
	return fmt.Sprintf("👋 Welcome to **%s**, %s!\n\n"+
		"If you're looking to join up, type **/recruit**.\n\n"+
		"If you need to speak with leadership or a diplomat, type **/officer**.", community, mention)
}
