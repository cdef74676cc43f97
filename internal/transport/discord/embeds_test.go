package discord_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/alanyang/threadkeeper/internal/domain/auth"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	domainthread "github.com/alanyang/threadkeeper/internal/domain/thread"
	authsvc "github.com/alanyang/threadkeeper/internal/service/auth"
	threadsvc "github.com/alanyang/threadkeeper/internal/service/thread"
	"github.com/alanyang/threadkeeper/internal/transport/discord"
)

func TestThreadListEmbed_Truncates(t *testing.T) {
	var l threadsvc.Listing
	for i := 0; i < 12; i++ {
		l.Active = append(l.Active, domainthread.Thread{ID: fmt.Sprint(i), Name: fmt.Sprintf("Recruit-%d", i), MemberCount: 2})
	}

	e := discord.ThreadListEmbed(l, "dee", t0)

	require.Len(t, e.Fields, 2)
	active := e.Fields[0]
	assert.Equal(t, "🟢 Active Threads (12)", active.Name)
	assert.Equal(t, 11, strings.Count(active.Value, "\n"), "ten lines plus the tail")
	assert.True(t, strings.HasSuffix(active.Value, "*...and 2 more*"))
	assert.Equal(t, "*No archived threads*", e.Fields[1].Value)
	assert.Equal(t, "Requested by dee", e.Footer.Text)
}

func TestThreadListEmbed_ArchivedUsesRelativeTime(t *testing.T) {
	archivedAt := t0.Add(-2 * time.Hour)
	l := threadsvc.Listing{Archived: []domainthread.Thread{{ID: "9", Name: "officer-dee", Archived: true, ArchivedAt: archivedAt}}}

	e := discord.ThreadListEmbed(l, "dee", t0)

	assert.Equal(t, "*No active threads*", e.Fields[0].Value)
	assert.Equal(t, fmt.Sprintf("• officer-dee - Archived <t:%d:R>", archivedAt.Unix()), e.Fields[1].Value)
}

func TestStatusEmbed_Sections(t *testing.T) {
	rep := authsvc.StatusReport{
		NeedsReauth: []authsvc.Linked{{Member: member.Member{ID: "7"}, Record: domainauth.Record{}}},
	}
	for i := 0; i < 23; i++ {
		rep.NotAuthenticated = append(rep.NotAuthenticated, member.Member{ID: fmt.Sprint(100 + i)})
	}

	e := discord.StatusEmbed(rep, "dee", t0)

	require.Len(t, e.Fields, 3)
	assert.Equal(t, "🟡 Needs Re-authentication (1)", e.Fields[0].Name)
	assert.Equal(t, "⚠️ <@7> - N/A (expired)", e.Fields[0].Value)
	assert.Equal(t, "🔴 Not Authenticated (23)", e.Fields[1].Name)
	assert.Equal(t, 20, strings.Count(e.Fields[1].Value, "❌"))
	assert.Equal(t, "*...and 3 more*", e.Fields[2].Value)
}
