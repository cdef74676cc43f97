package thread_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	domainthread "github.com/alanyang/threadkeeper/internal/domain/thread"
	"github.com/alanyang/threadkeeper/internal/port/gateway"
	threadsvc "github.com/alanyang/threadkeeper/internal/service/thread"
	"github.com/alanyang/threadkeeper/internal/testutil"
)

const (
	guildID     = "900"
	channelID   = "901"
	recruiterID = "111"
	directorID  = "222"
)

var (
	nyx       = member.Member{ID: "1", Username: "Nyx"}
	recruitA  = member.Member{ID: "2", Username: "alpha", Roles: []string{recruiterID}}
	recruitB  = member.Member{ID: "3", Username: "bravo", Roles: []string{recruiterID}}
	director  = member.Member{ID: "4", Username: "dee", Roles: []string{directorID}}
	bot       = member.Member{ID: "5", Username: "bot", Bot: true}
	applicant = member.Member{ID: "6", Username: "applicant"}
)

type fixture struct {
	svc   *threadsvc.Service
	gw    *testutil.FakeGateway
	audit *testutil.CaptureRecorder
}

func newFixture(t *testing.T, pace time.Duration) fixture {
	t.Helper()
	gw := testutil.NewFakeGateway()
	gw.AddRole(recruiterID)
	gw.AddRole(directorID)
	gw.AddTextChannel(guildID, channelID, "recruitment")
	for _, m := range []member.Member{nyx, recruitA, recruitB, director, bot, applicant} {
		gw.AddMember(m)
	}
	audit := &testutil.CaptureRecorder{}
	svc := threadsvc.NewService(gw, gw, gw, role.NewGate(recruiterID, directorID), audit, threadsvc.Settings{Pace: pace})
	return fixture{svc: svc, gw: gw, audit: audit}
}

// ── OpenThread ────────────────────────────────────────────────────────────────

func TestOpenThread_RecruitmentScenario(t *testing.T) {
	f := newFixture(t, 0)

	created, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.NoError(t, err)

	assert.Equal(t, "Recruit-Nyx", created.Name)
	assert.ElementsMatch(t, []string{nyx.ID, recruitA.ID, recruitB.ID}, f.gw.MembersOf(created.ID))

	posts := f.gw.SentTo(created.ID)
	require.Len(t, posts, 1)
	assert.True(t, strings.HasPrefix(posts[0], "<@&"+recruiterID+">\n👋 <@1> has started a recruitment thread!"))

	opened := f.audit.OfType(event.TypeThreadOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, "Nyx created recruitment thread Recruit-Nyx.", opened[0].Message)
}

func TestOpenThread_OwnerAddedFirst(t *testing.T) {
	f := newFixture(t, 0)

	created, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.NoError(t, err)

	muts := f.gw.Mutations()
	require.NotEmpty(t, muts)
	assert.Equal(t, testutil.Mutation{Op: "add", ThreadID: created.ID, UserID: nyx.ID}, stripTime(muts[0]))
}

func TestOpenThread_ConflictWithActiveThread(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "recruit-nyx"}, nyx.ID)

	_, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.Error(t, err)
	assert.ErrorIs(t, err, threadsvc.ErrConflict)

	var ce *domainthread.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.False(t, ce.Archived)
	assert.Empty(t, f.gw.Mutations(), "no thread should be created")
}

func TestOpenThread_ConflictWithArchivedThread(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "RECRUIT-NYX", Archived: true, Locked: true})

	_, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)

	var ce *domainthread.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Archived)
}

func TestOpenThread_ActiveThreadInOtherChannelIsNoConflict(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddTextChannel(guildID, "902", "general")
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: "902", Name: "Recruit-Nyx"})

	_, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.NoError(t, err)
}

func TestOpenThread_ArchiveScanForbiddenIsWarning(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.ArchivedErr = fmt.Errorf("list archived: %w", gateway.ErrForbidden)

	_, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.NoError(t, err)
	assert.Contains(t, f.audit.Warnings(), "Cannot check archived threads - missing permissions")
}

func TestOpenThread_CreateForbidden(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.CreateErr = gateway.ErrForbidden

	_, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.Error(t, err)
	assert.ErrorIs(t, err, threadsvc.ErrPlatformPermission)
	assert.Contains(t, err.Error(), "create thread")
}

func TestOpenThread_StaffAddFailureIsSkipped(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.FailAdd[recruitA.ID] = errors.New("boom")

	created, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{nyx.ID, recruitB.ID}, f.gw.MembersOf(created.ID))
	assert.True(t, f.audit.Logged("Failed to add alpha"))
	assert.Len(t, f.audit.OfType(event.TypeThreadOpened), 1)
}

func TestOpenThread_OwnerAddFailureIsWarning(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.FailAdd[nyx.ID] = errors.New("boom")

	created, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.NoError(t, err)

	assert.Equal(t, "Recruit-Nyx", created.Name)
	assert.ElementsMatch(t, []string{recruitA.ID, recruitB.ID}, f.gw.MembersOf(created.ID))
	assert.True(t, f.audit.Logged("Failed to add owner Nyx"))
	assert.Len(t, f.audit.OfType(event.TypeThreadOpened), 1)
	assert.NotEmpty(t, f.gw.SentTo(created.ID), "welcome is still posted")
}

func TestOpenThread_MissingRoleOmitsMention(t *testing.T) {
	gw := testutil.NewFakeGateway()
	gw.AddTextChannel(guildID, channelID, "recruitment")
	gw.AddMember(nyx)
	audit := &testutil.CaptureRecorder{}
	// Recruiter role id configured but absent from the guild.
	svc := threadsvc.NewService(gw, gw, gw, role.NewGate(recruiterID, directorID), audit, threadsvc.Settings{})

	created, err := svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.NoError(t, err)

	posts := gw.SentTo(created.ID)
	require.Len(t, posts, 1)
	assert.True(t, strings.HasPrefix(posts[0], "👋 <@1>"))
	assert.Contains(t, audit.Warnings(), "Recruiter role not found")
	assert.Equal(t, []string{nyx.ID}, gw.MembersOf(created.ID))
}

func TestOpenThread_OfficerRequiresStaff(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.OpenThread(context.Background(), domainthread.KindOfficer, nyx, guildID, channelID)
	assert.ErrorIs(t, err, role.ErrPermissionDenied)

	created, err := f.svc.OpenThread(context.Background(), domainthread.KindOfficer, recruitA, guildID, channelID)
	require.NoError(t, err)
	assert.Equal(t, "officer-alpha", created.Name)
	assert.ElementsMatch(t, []string{recruitA.ID, director.ID}, f.gw.MembersOf(created.ID))
	assert.Equal(t, "<@&"+directorID+">\n👋 <@2> has started a thread for officer discussion.", f.gw.SentTo(created.ID)[0])
}

func TestOpenThread_UnknownKind(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.OpenThread(context.Background(), domainthread.Kind("party"), nyx, guildID, channelID)
	assert.ErrorIs(t, err, threadsvc.ErrUnknownKind)
}

func TestOpenThread_PacesMembershipMutations(t *testing.T) {
	const pace = 20 * time.Millisecond
	f := newFixture(t, pace)

	_, err := f.svc.OpenThread(context.Background(), domainthread.KindRecruitment, nyx, guildID, channelID)
	require.NoError(t, err)

	muts := f.gw.Mutations()
	require.Len(t, muts, 3)
	for i := 1; i < len(muts); i++ {
		// Allow a little scheduler slack below the nominal pace.
		assert.GreaterOrEqual(t, muts[i].At.Sub(muts[i-1].At), pace-5*time.Millisecond)
	}
}

// ── CloseThread ───────────────────────────────────────────────────────────────

func TestCloseThread_RemovesOnlyNonStaffHumans(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"},
		nyx.ID, recruitA.ID, director.ID, bot.ID, applicant.ID)

	removed, err := f.svc.CloseThread(context.Background(), director, guildID, "t1")
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.ElementsMatch(t, []string{recruitA.ID, director.ID, bot.ID}, f.gw.MembersOf("t1"))

	closed, err := f.gw.Thread(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, closed.Archived)
	assert.True(t, closed.Locked)
	assert.True(t, f.audit.Logged("dee closed thread Recruit-Nyx (removed 2 users)."))
}

func TestCloseThread_FailedRemovalContinuesBatch(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"}, nyx.ID, applicant.ID)
	f.gw.FailRemove[nyx.ID] = errors.New("boom")

	removed, err := f.svc.CloseThread(context.Background(), director, guildID, "t1")
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.True(t, f.audit.Logged("Failed to remove Nyx"))
}

func TestCloseThread_DepartedMemberIsRemoved(t *testing.T) {
	f := newFixture(t, 0)
	// "gone" is listed in the thread but is no longer a guild member.
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"},
		nyx.ID, "gone", recruitA.ID)

	removed, err := f.svc.CloseThread(context.Background(), director, guildID, "t1")
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{recruitA.ID}, f.gw.MembersOf("t1"))

	closed, err := f.gw.Thread(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, closed.Archived)
	assert.True(t, closed.Locked)
}

func TestCloseThread_DirectorOnly(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"}, nyx.ID)

	_, err := f.svc.CloseThread(context.Background(), recruitA, guildID, "t1")
	assert.ErrorIs(t, err, role.ErrPermissionDenied)
	assert.Empty(t, f.gw.Mutations())
}

func TestCloseThread_NotAThread(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.CloseThread(context.Background(), director, guildID, channelID)
	assert.ErrorIs(t, err, threadsvc.ErrNotAThread)
}

// ── RemoveMember ──────────────────────────────────────────────────────────────

func TestRemoveMember_StaffRemovesApplicant(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"}, nyx.ID, recruitA.ID)

	removed, err := f.svc.RemoveMember(context.Background(), recruitA, guildID, "t1", nyx.ID)
	require.NoError(t, err)
	assert.Equal(t, nyx.ID, removed.ID)
	assert.Equal(t, []string{recruitA.ID}, f.gw.MembersOf("t1"))
}

func TestRemoveMember_DefaultsToCaller(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"}, nyx.ID, recruitA.ID)

	removed, err := f.svc.RemoveMember(context.Background(), recruitA, guildID, "t1", "")
	require.NoError(t, err)
	assert.Equal(t, recruitA.ID, removed.ID)
	assert.True(t, f.audit.Logged("alpha removed themselves from thread Recruit-Nyx."))
}

func TestRemoveMember_StaffProtected(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"}, recruitA.ID, director.ID)

	_, err := f.svc.RemoveMember(context.Background(), recruitA, guildID, "t1", director.ID)
	assert.ErrorIs(t, err, threadsvc.ErrStaffProtected)
	assert.ElementsMatch(t, []string{recruitA.ID, director.ID}, f.gw.MembersOf("t1"))
}

func TestRemoveMember_NotInThread(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"}, recruitA.ID)

	_, err := f.svc.RemoveMember(context.Background(), recruitA, guildID, "t1", nyx.ID)
	assert.ErrorIs(t, err, threadsvc.ErrNotInThread)
}

func TestRemoveMember_RequiresStaff(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"}, nyx.ID)

	_, err := f.svc.RemoveMember(context.Background(), nyx, guildID, "t1", "")
	assert.ErrorIs(t, err, role.ErrPermissionDenied)
}

// ── ListWorkflowThreads ───────────────────────────────────────────────────────

func TestListWorkflowThreads(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddTextChannel(guildID, "902", "officers")
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"})
	f.gw.AddThread(domainthread.Thread{ID: "t2", GuildID: guildID, ParentID: "902", Name: "officer-dee"})
	f.gw.AddThread(domainthread.Thread{ID: "t3", GuildID: guildID, ParentID: channelID, Name: "random chat"})
	f.gw.AddThread(domainthread.Thread{ID: "t4", GuildID: guildID, ParentID: "902", Name: "Recruit-old", Archived: true, Locked: true})

	listing, err := f.svc.ListWorkflowThreads(context.Background(), recruitA, guildID)
	require.NoError(t, err)

	assert.Equal(t, []string{"t1", "t2"}, threadIDs(listing.Active))
	assert.Equal(t, []string{"t4"}, threadIDs(listing.Archived))
}

func TestListWorkflowThreads_ArchiveFailuresSwallowed(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx"})
	f.gw.ArchivedErr = gateway.ErrForbidden

	listing, err := f.svc.ListWorkflowThreads(context.Background(), director, guildID)
	require.NoError(t, err)
	assert.Len(t, listing.Active, 1)
	assert.Empty(t, listing.Archived)
}

func TestListWorkflowThreads_RequiresStaff(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.ListWorkflowThreads(context.Background(), nyx, guildID)
	assert.ErrorIs(t, err, role.ErrPermissionDenied)
}

// ── ReopenThread ──────────────────────────────────────────────────────────────

func TestReopenThread(t *testing.T) {
	f := newFixture(t, 0)
	f.gw.AddThread(domainthread.Thread{ID: "t1", GuildID: guildID, ParentID: channelID, Name: "Recruit-Nyx", Archived: true, Locked: true})

	reopened, err := f.svc.ReopenThread(context.Background(), director, guildID, "recruit-nyx")
	require.NoError(t, err)

	assert.Equal(t, "t1", reopened.ID)
	assert.Equal(t, domainthread.StateActive, reopened.State())
	assert.Len(t, f.audit.OfType(event.TypeThreadReopened), 1)
}

func TestReopenThread_NotFound(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.ReopenThread(context.Background(), director, guildID, "Recruit-ghost")
	assert.ErrorIs(t, err, threadsvc.ErrNotFound)
}

func TestReopenThread_DirectorOnly(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.ReopenThread(context.Background(), recruitA, guildID, "Recruit-Nyx")
	assert.ErrorIs(t, err, role.ErrPermissionDenied)
}

func stripTime(m testutil.Mutation) testutil.Mutation {
	m.At = time.Time{}
	return m
}

func threadIDs(ts []domainthread.Thread) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}
