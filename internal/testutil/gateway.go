package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alanyang/threadkeeper/internal/domain/member"
	"github.com/alanyang/threadkeeper/internal/domain/thread"
	"github.com/alanyang/threadkeeper/internal/port/gateway"
)

// Sent is one message the fake gateway accepted.
type Sent struct {
	To      string
	Content string
}

// Mutation is one thread membership change, in call order.
type Mutation struct {
	Op       string // "add" or "remove"
	ThreadID string
	UserID   string
	At       time.Time
}

// FakeGateway is an in-memory guild implementing every gateway port.
// Failure maps inject per-id errors.
type FakeGateway struct {
	mu sync.Mutex

	members       map[string]member.Member
	roles         map[string]bool
	channels      map[string]gateway.Channel
	threads       map[string]thread.Thread
	threadMembers map[string][]string
	nextID        int

	sent      []Sent
	direct    []Sent
	mutations []Mutation
	nicknames map[string]string

	ArchivedErr error
	CreateErr   error
	ActiveErr   error
	FailAdd     map[string]error
	FailRemove  map[string]error
	FailSend    map[string]error
	FailDirect  map[string]error
	FailNick    map[string]error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		members:       make(map[string]member.Member),
		roles:         make(map[string]bool),
		channels:      make(map[string]gateway.Channel),
		threads:       make(map[string]thread.Thread),
		threadMembers: make(map[string][]string),
		nicknames:     make(map[string]string),
		FailAdd:       make(map[string]error),
		FailRemove:    make(map[string]error),
		FailSend:      make(map[string]error),
		FailDirect:    make(map[string]error),
		FailNick:      make(map[string]error),
	}
}

// ── Seeding ──────────────────────────────────────────────────────────────────

func (g *FakeGateway) AddMember(m member.Member) {
	g.mu.Lock()
	g.members[m.ID] = m
	g.mu.Unlock()
}

func (g *FakeGateway) AddRole(id string) {
	g.mu.Lock()
	g.roles[id] = true
	g.mu.Unlock()
}

func (g *FakeGateway) AddTextChannel(guildID, id, name string) {
	g.mu.Lock()
	g.channels[id] = gateway.Channel{ID: id, GuildID: guildID, Name: name}
	g.mu.Unlock()
}

func (g *FakeGateway) AddThread(t thread.Thread, memberIDs ...string) {
	g.mu.Lock()
	g.threads[t.ID] = t
	g.threadMembers[t.ID] = append([]string(nil), memberIDs...)
	g.mu.Unlock()
}

// ── Inspection ───────────────────────────────────────────────────────────────

func (g *FakeGateway) Sent() []Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Sent(nil), g.sent...)
}

func (g *FakeGateway) SentTo(channelID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, s := range g.sent {
		if s.To == channelID {
			out = append(out, s.Content)
		}
	}
	return out
}

func (g *FakeGateway) Direct() []Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Sent(nil), g.direct...)
}

func (g *FakeGateway) Mutations() []Mutation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Mutation(nil), g.mutations...)
}

func (g *FakeGateway) MembersOf(threadID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.threadMembers[threadID]...)
}

func (g *FakeGateway) ThreadByName(name string) (thread.Thread, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.threads {
		if t.Name == name {
			return t, true
		}
	}
	return thread.Thread{}, false
}

func (g *FakeGateway) Nickname(userID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nicknames[userID]
}

// ── gateway.Directory ────────────────────────────────────────────────────────

func (g *FakeGateway) Member(_ context.Context, _, userID string) (member.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[userID]
	if !ok {
		return member.Member{}, fmt.Errorf("member %s: %w", userID, gateway.ErrNotFound)
	}
	return m, nil
}

func (g *FakeGateway) Members(_ context.Context, _ string) ([]member.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]member.Member, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *FakeGateway) RoleMembers(_ context.Context, _, roleID string) ([]member.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.roles[roleID] {
		return nil, fmt.Errorf("role %s: %w", roleID, gateway.ErrNotFound)
	}
	var out []member.Member
	for _, m := range g.members {
		if m.HasRole(roleID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *FakeGateway) TextChannels(_ context.Context, guildID string) ([]gateway.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []gateway.Channel
	for _, c := range g.channels {
		if c.GuildID == guildID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *FakeGateway) Channel(_ context.Context, channelID string) (gateway.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.channels[channelID]; ok {
		return c, nil
	}
	if t, ok := g.threads[channelID]; ok {
		return gateway.Channel{ID: t.ID, GuildID: t.GuildID, ParentID: t.ParentID, Name: t.Name, Thread: true}, nil
	}
	return gateway.Channel{}, fmt.Errorf("channel %s: %w", channelID, gateway.ErrNotFound)
}

// ── gateway.Threads ──────────────────────────────────────────────────────────

func (g *FakeGateway) ActiveThreads(_ context.Context, guildID string) ([]thread.Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ActiveErr != nil {
		return nil, g.ActiveErr
	}
	var out []thread.Thread
	for _, t := range g.threads {
		if t.GuildID == guildID && !t.Archived {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *FakeGateway) ArchivedThreads(_ context.Context, channelID string, limit int) ([]thread.Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ArchivedErr != nil {
		return nil, g.ArchivedErr
	}
	var out []thread.Thread
	for _, t := range g.threads {
		if t.ParentID == channelID && t.Archived {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArchivedAt.After(out[j].ArchivedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *FakeGateway) Thread(_ context.Context, channelID string) (thread.Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.threads[channelID]; ok {
		return t, nil
	}
	if _, ok := g.channels[channelID]; ok {
		return thread.Thread{}, gateway.ErrNotAThread
	}
	return thread.Thread{}, fmt.Errorf("thread %s: %w", channelID, gateway.ErrNotFound)
}

func (g *FakeGateway) CreatePrivateThread(_ context.Context, parentID, name string) (thread.Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return thread.Thread{}, g.CreateErr
	}
	g.nextID++
	t := thread.Thread{
		ID:       fmt.Sprintf("thread-%d", g.nextID),
		GuildID:  g.channels[parentID].GuildID,
		ParentID: parentID,
		Name:     name,
	}
	g.threads[t.ID] = t
	g.threadMembers[t.ID] = nil
	return t, nil
}

func (g *FakeGateway) ThreadMembers(_ context.Context, _, threadID string) ([]member.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.threads[threadID]; !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID, gateway.ErrNotFound)
	}
	var out []member.Member
	for _, id := range g.threadMembers[threadID] {
		m, ok := g.members[id]
		if !ok {
			m = member.Member{ID: id}
		}
		out = append(out, m)
	}
	return out, nil
}

func (g *FakeGateway) AddThreadMember(_ context.Context, threadID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mutations = append(g.mutations, Mutation{Op: "add", ThreadID: threadID, UserID: userID, At: time.Now()})
	if err := g.FailAdd[userID]; err != nil {
		return err
	}
	for _, id := range g.threadMembers[threadID] {
		if id == userID {
			return nil
		}
	}
	g.threadMembers[threadID] = append(g.threadMembers[threadID], userID)
	return nil
}

func (g *FakeGateway) RemoveThreadMember(_ context.Context, threadID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mutations = append(g.mutations, Mutation{Op: "remove", ThreadID: threadID, UserID: userID, At: time.Now()})
	if err := g.FailRemove[userID]; err != nil {
		return err
	}
	ids := g.threadMembers[threadID]
	for i, id := range ids {
		if id == userID {
			g.threadMembers[threadID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (g *FakeGateway) SetThreadState(_ context.Context, threadID string, archived, locked bool) (thread.Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.threads[threadID]
	if !ok {
		return thread.Thread{}, fmt.Errorf("thread %s: %w", threadID, gateway.ErrNotFound)
	}
	t.Archived = archived
	t.Locked = locked
	if archived {
		t.ArchivedAt = time.Now()
	}
	g.threads[threadID] = t
	return t, nil
}

// ── gateway.Messenger / Nicknamer ────────────────────────────────────────────

func (g *FakeGateway) Send(_ context.Context, channelID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.FailSend[channelID]; err != nil {
		return err
	}
	g.sent = append(g.sent, Sent{To: channelID, Content: content})
	return nil
}

func (g *FakeGateway) SendDirect(_ context.Context, userID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.FailDirect[userID]; err != nil {
		return err
	}
	g.direct = append(g.direct, Sent{To: userID, Content: content})
	return nil
}

func (g *FakeGateway) SetNickname(_ context.Context, _, userID, nick string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.FailNick[userID]; err != nil {
		return err
	}
	g.nicknames[userID] = nick
	if m, ok := g.members[userID]; ok {
		m.Nick = nick
		g.members[userID] = m
	}
	return nil
}

var (
	_ gateway.Directory = (*FakeGateway)(nil)
	_ gateway.Threads   = (*FakeGateway)(nil)
	_ gateway.Messenger = (*FakeGateway)(nil)
	_ gateway.Nicknamer = (*FakeGateway)(nil)
)
