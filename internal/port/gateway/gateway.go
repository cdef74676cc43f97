package gateway

import (
	"context"
	"errors"

	"github.com/alanyang/threadkeeper/internal/domain/member"
	"github.com/alanyang/threadkeeper/internal/domain/thread"
)

var (
	// ErrForbidden means the platform refused the call for lack of permission.
	ErrForbidden = errors.New("gateway: forbidden")
	// ErrNotFound means the guild, channel, role or member does not exist.
	ErrNotFound = errors.New("gateway: not found")
	// ErrNotAThread is returned when a channel id resolves to a non-thread channel.
	ErrNotAThread = errors.New("gateway: channel is not a thread")
)

type Channel struct {
	ID       string `json:"id"`
	GuildID  string `json:"guild_id"`
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	Thread   bool   `json:"thread"`
}

// Directory resolves guild members, roles and channels.
type Directory interface {
	Member(ctx context.Context, guildID, userID string) (member.Member, error)
	Members(ctx context.Context, guildID string) ([]member.Member, error)
	// RoleMembers returns ErrNotFound when the role does not exist.
	RoleMembers(ctx context.Context, guildID, roleID string) ([]member.Member, error)
	TextChannels(ctx context.Context, guildID string) ([]Channel, error)
	// Channel resolves a text channel or a thread.
	Channel(ctx context.Context, channelID string) (Channel, error)
}

// Threads manages private threads and their membership.
type Threads interface {
	ActiveThreads(ctx context.Context, guildID string) ([]thread.Thread, error)
	// ArchivedThreads returns up to limit of the most recently archived
	// threads under channelID, public and private merged.
	ArchivedThreads(ctx context.Context, channelID string, limit int) ([]thread.Thread, error)
	Thread(ctx context.Context, channelID string) (thread.Thread, error)
	CreatePrivateThread(ctx context.Context, parentID, name string) (thread.Thread, error)
	ThreadMembers(ctx context.Context, guildID, threadID string) ([]member.Member, error)
	AddThreadMember(ctx context.Context, threadID, userID string) error
	RemoveThreadMember(ctx context.Context, threadID, userID string) error
	SetThreadState(ctx context.Context, threadID string, archived, locked bool) (thread.Thread, error)
}

type Messenger interface {
	Send(ctx context.Context, channelID, content string) error
	SendDirect(ctx context.Context, userID, content string) error
}

type Nicknamer interface {
	SetNickname(ctx context.Context, guildID, userID, nick string) error
}
