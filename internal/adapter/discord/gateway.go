package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/alanyang/threadkeeper/internal/domain/member"
	"github.com/alanyang/threadkeeper/internal/domain/thread"
	"github.com/alanyang/threadkeeper/internal/port/gateway"
)

const (
	memberPage       = 1000
	threadMemberPage = 100
	// autoArchiveMinutes is the longest auto-archive window every guild tier allows.
	autoArchiveMinutes = 1440
)

var (
	_ gateway.Directory = (*Gateway)(nil)
	_ gateway.Threads   = (*Gateway)(nil)
	_ gateway.Messenger = (*Gateway)(nil)
	_ gateway.Nicknamer = (*Gateway)(nil)
)

// Gateway implements the gateway ports on top of a discordgo session. Every
// call goes to the REST API so roles and membership are never stale.
type Gateway struct {
	s *discordgo.Session
}

func NewGateway(s *discordgo.Session) *Gateway {
	return &Gateway{s: s}
}

// ── Directory ─────────────────────────────────────────────────────────────────

func (g *Gateway) Member(ctx context.Context, guildID, userID string) (member.Member, error) {
	m, err := g.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return member.Member{}, mapErr("get member", err)
	}
	return ToMember(m), nil
}

func (g *Gateway) Members(ctx context.Context, guildID string) ([]member.Member, error) {
	var (
		out   []member.Member
		after string
	)
	for {
		page, err := g.s.GuildMembers(guildID, after, memberPage, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapErr("list members", err)
		}
		for _, m := range page {
			out = append(out, ToMember(m))
		}
		if len(page) < memberPage {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (g *Gateway) RoleMembers(ctx context.Context, guildID, roleID string) ([]member.Member, error) {
	roles, err := g.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr("list roles", err)
	}
	found := false
	for _, r := range roles {
		if r.ID == roleID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("role %s: %w", roleID, gateway.ErrNotFound)
	}

	all, err := g.Members(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var out []member.Member
	for _, m := range all {
		if m.HasRole(roleID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (g *Gateway) TextChannels(ctx context.Context, guildID string) ([]gateway.Channel, error) {
	chs, err := g.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr("list channels", err)
	}
	var out []gateway.Channel
	for _, c := range chs {
		if c.Type == discordgo.ChannelTypeGuildText {
			out = append(out, toChannel(c))
		}
	}
	return out, nil
}

func (g *Gateway) Channel(ctx context.Context, channelID string) (gateway.Channel, error) {
	c, err := g.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return gateway.Channel{}, mapErr("get channel", err)
	}
	return toChannel(c), nil
}

// ── Threads ───────────────────────────────────────────────────────────────────

func (g *Gateway) ActiveThreads(ctx context.Context, guildID string) ([]thread.Thread, error) {
	list, err := g.s.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr("list active threads", err)
	}
	return toThreads(list.Threads), nil
}

// ArchivedThreads merges the public and private archives. A failure on one
// side is tolerated as long as the other succeeds.
func (g *Gateway) ArchivedThreads(ctx context.Context, channelID string, limit int) ([]thread.Thread, error) {
	public, pubErr := g.s.ThreadsArchived(channelID, nil, limit, discordgo.WithContext(ctx))
	private, privErr := g.s.ThreadsPrivateArchived(channelID, nil, limit, discordgo.WithContext(ctx))
	if pubErr != nil && privErr != nil {
		return nil, mapErr("list archived threads", privErr)
	}

	var chs []*discordgo.Channel
	if pubErr == nil {
		chs = append(chs, public.Threads...)
	}
	if privErr == nil {
		chs = append(chs, private.Threads...)
	}
	return mergeArchived(toThreads(chs), limit), nil
}

func (g *Gateway) Thread(ctx context.Context, channelID string) (thread.Thread, error) {
	c, err := g.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return thread.Thread{}, mapErr("get thread", err)
	}
	if !c.IsThread() {
		return thread.Thread{}, gateway.ErrNotAThread
	}
	return toThread(c), nil
}

func (g *Gateway) CreatePrivateThread(ctx context.Context, parentID, name string) (thread.Thread, error) {
	c, err := g.s.ThreadStartComplex(parentID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		Invitable:           false,
		AutoArchiveDuration: autoArchiveMinutes,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return thread.Thread{}, mapErr("create thread", err)
	}
	return toThread(c), nil
}

// ThreadMembers lists a thread's members with their guild roles. Members who
// left the guild come back as a bare id.
func (g *Gateway) ThreadMembers(ctx context.Context, guildID, threadID string) ([]member.Member, error) {
	var (
		out   []member.Member
		after string
	)
	for {
		page, err := g.s.ThreadMembers(threadID, threadMemberPage, true, after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapErr("list thread members", err)
		}
		for _, tm := range page {
			if tm.Member != nil && tm.Member.User != nil {
				out = append(out, ToMember(tm.Member))
				continue
			}
			m, err := g.Member(ctx, guildID, tm.UserID)
			if errors.Is(err, gateway.ErrNotFound) {
				// Left the guild but still listed: holds no roles, so not staff.
				out = append(out, member.Member{ID: tm.UserID})
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		if len(page) < threadMemberPage {
			return out, nil
		}
		after = page[len(page)-1].UserID
	}
}

func (g *Gateway) AddThreadMember(ctx context.Context, threadID, userID string) error {
	if err := g.s.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx)); err != nil {
		return mapErr("add thread member", err)
	}
	return nil
}

func (g *Gateway) RemoveThreadMember(ctx context.Context, threadID, userID string) error {
	if err := g.s.ThreadMemberRemove(threadID, userID, discordgo.WithContext(ctx)); err != nil {
		return mapErr("remove thread member", err)
	}
	return nil
}

func (g *Gateway) SetThreadState(ctx context.Context, threadID string, archived, locked bool) (thread.Thread, error) {
	c, err := g.s.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return thread.Thread{}, mapErr("edit thread", err)
	}
	return toThread(c), nil
}

// ── Messenger / Nicknamer ─────────────────────────────────────────────────────

func (g *Gateway) Send(ctx context.Context, channelID, content string) error {
	if _, err := g.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return mapErr("send message", err)
	}
	return nil
}

func (g *Gateway) SendDirect(ctx context.Context, userID, content string) error {
	dm, err := g.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return mapErr("open direct channel", err)
	}
	return g.Send(ctx, dm.ID, content)
}

func (g *Gateway) SetNickname(ctx context.Context, guildID, userID, nick string) error {
	if err := g.s.GuildMemberNickname(guildID, userID, nick, discordgo.WithContext(ctx)); err != nil {
		return mapErr("set nickname", err)
	}
	return nil
}

// ── Conversions ───────────────────────────────────────────────────────────────

// ToMember flattens a discordgo member. A member without a user payload maps
// to the zero Member.
func ToMember(m *discordgo.Member) member.Member {
	if m == nil || m.User == nil {
		return member.Member{}
	}
	return member.Member{
		ID:       m.User.ID,
		Username: m.User.Username,
		Nick:     m.Nick,
		Bot:      m.User.Bot,
		Roles:    append([]string(nil), m.Roles...),
	}
}

func toChannel(c *discordgo.Channel) gateway.Channel {
	return gateway.Channel{
		ID:       c.ID,
		GuildID:  c.GuildID,
		ParentID: c.ParentID,
		Name:     c.Name,
		Thread:   c.IsThread(),
	}
}

func toThread(c *discordgo.Channel) thread.Thread {
	t := thread.Thread{
		ID:          c.ID,
		GuildID:     c.GuildID,
		ParentID:    c.ParentID,
		Name:        c.Name,
		MemberCount: c.MemberCount,
	}
	if md := c.ThreadMetadata; md != nil {
		t.Archived = md.Archived
		t.Locked = md.Locked
		if md.Archived {
			t.ArchivedAt = md.ArchiveTimestamp
		}
	}
	return t
}

func toThreads(chs []*discordgo.Channel) []thread.Thread {
	out := make([]thread.Thread, 0, len(chs))
	for _, c := range chs {
		out = append(out, toThread(c))
	}
	return out
}

// mergeArchived orders threads most recently archived first and keeps at
// most limit of them.
func mergeArchived(ts []thread.Thread, limit int) []thread.Thread {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].ArchivedAt.After(ts[j].ArchivedAt)
	})
	if limit > 0 && len(ts) > limit {
		ts = ts[:limit]
	}
	return ts
}

// mapErr translates REST status codes into the gateway sentinels.
func mapErr(op string, err error) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, gateway.ErrForbidden, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, gateway.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
