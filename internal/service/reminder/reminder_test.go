package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanyang/threadkeeper/internal/adapter/memory"
	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	domainreminder "github.com/alanyang/threadkeeper/internal/domain/reminder"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	"github.com/alanyang/threadkeeper/internal/mocks"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
	"github.com/alanyang/threadkeeper/internal/testutil"
)

const (
	guildID    = "900"
	channelID  = "901"
	directorID = "222"
)

var (
	t0       = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	director = member.Member{ID: "4", Username: "dee", Roles: []string{directorID}}
	plain    = member.Member{ID: "1", Username: "Nyx"}
	other    = member.Member{ID: "7", Username: "zed"}
	gate     = role.NewGate("111", directorID)
)

type fixture struct {
	svc   *remindersvc.Service
	store *testutil.FakeReminderStore
	gw    *testutil.FakeGateway
	clock *testutil.Clock
	audit *testutil.CaptureRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := testutil.NewClock(t0)
	store := testutil.NewFakeReminderStore(clock.Now)
	gw := testutil.NewFakeGateway()
	gw.AddTextChannel(guildID, channelID, "general")
	gw.AddMember(director)
	gw.AddMember(plain)
	audit := &testutil.CaptureRecorder{}
	ledger := memory.NewClaims()
	svc := remindersvc.NewService(store, gw, gw, ledger, gate, audit, remindersvc.Settings{Now: clock.Now})
	return fixture{svc: svc, store: store, gw: gw, clock: clock, audit: audit}
}

// ── Schedule ─────────────────────────────────────────────────────────────────

func TestSchedule_DueIsNowPlusDelay(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Schedule(context.Background(), director, guildID, channelID, domainreminder.Delay{Minutes: 5}, "Check fuel")
	require.NoError(t, err)

	stored, ok := f.store.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, t0.Add(5*time.Minute), stored.DueAt)
	assert.Equal(t, director.ID, stored.UserID)
	assert.Len(t, f.audit.OfType(event.TypeReminderScheduled), 1)
}

func TestSchedule_RejectsNonPositiveDelay(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Schedule(context.Background(), director, guildID, channelID, domainreminder.Delay{}, "x")
	assert.ErrorIs(t, err, domainreminder.ErrNonPositiveDelay)
	assert.Zero(t, f.store.Len())
}

func TestSchedule_DirectorOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Schedule(context.Background(), plain, guildID, channelID, domainreminder.Delay{Minutes: 5}, "x")
	assert.ErrorIs(t, err, role.ErrPermissionDenied)
	assert.Zero(t, f.store.Len())
}

func TestSchedule_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReminderStore(ctrl)
	svc := remindersvc.NewService(store, nil, nil, nil, gate, &testutil.CaptureRecorder{}, remindersvc.Settings{Now: func() time.Time { return t0 }})

	store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("worker api unavailable"))

	_, err := svc.Schedule(context.Background(), director, guildID, channelID, domainreminder.Delay{Hours: 1}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule reminder")
}

// ── DuePoll ──────────────────────────────────────────────────────────────────

func TestDuePoll_DirectorScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Schedule(ctx, director, guildID, channelID, domainreminder.Delay{Minutes: 5}, "Check fuel")
	require.NoError(t, err)

	res, err := f.svc.DuePoll(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Due, "nothing due before five minutes")

	f.clock.Advance(5*time.Minute + 30*time.Second)
	res, err = f.svc.DuePoll(ctx)
	require.NoError(t, err)

	assert.Equal(t, remindersvc.PollResult{Due: 1, Channel: 1}, res)
	assert.Equal(t, []string{"🔔 <@4> Reminder: Check fuel"}, f.gw.SentTo(channelID))
	assert.Zero(t, f.store.Len())
}

func TestDuePoll_FallsBackToDirectMessage(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(domainreminder.Reminder{GuildID: guildID, ChannelID: "gone", UserID: plain.ID, DueAt: t0, Message: "hello", CreatedAt: t0})

	res, err := f.svc.DuePoll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Direct)
	assert.Equal(t, []testutil.Sent{{To: plain.ID, Content: "🔔 Reminder: hello"}}, f.gw.Direct())
	assert.Zero(t, f.store.Len())
}

func TestDuePoll_MemberGoneFallsBackToDirectMessage(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(domainreminder.Reminder{GuildID: guildID, ChannelID: channelID, UserID: "left-guild", DueAt: t0, Message: "m", CreatedAt: t0})

	res, err := f.svc.DuePoll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direct)
	assert.Empty(t, f.gw.SentTo(channelID))
}

func TestDuePoll_ChannelInOtherGuildFallsBack(t *testing.T) {
	f := newFixture(t)
	f.gw.AddTextChannel("elsewhere", "777", "general")
	f.store.Seed(domainreminder.Reminder{GuildID: guildID, ChannelID: "777", UserID: plain.ID, DueAt: t0, Message: "m", CreatedAt: t0})

	res, err := f.svc.DuePoll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Direct)
}

func TestDuePoll_DeletesEvenWhenDeliveryFails(t *testing.T) {
	f := newFixture(t)
	f.gw.FailSend[channelID] = errors.New("missing access")
	f.gw.FailDirect[plain.ID] = errors.New("dms closed")
	r1 := f.store.Seed(domainreminder.Reminder{GuildID: guildID, ChannelID: channelID, UserID: plain.ID, DueAt: t0, Message: "a", CreatedAt: t0})
	r2 := f.store.Seed(domainreminder.Reminder{GuildID: guildID, ChannelID: "gone", UserID: plain.ID, DueAt: t0, Message: "b", CreatedAt: t0})

	res, err := f.svc.DuePoll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, []int64{r1.ID, r2.ID}, f.store.Deletes())
	assert.Zero(t, f.store.Len())
	assert.Empty(t, f.gw.Direct(), "a failed channel post must not fall back to DM")
}

func TestDuePoll_NotYetDueIsUntouched(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(domainreminder.Reminder{GuildID: guildID, ChannelID: channelID, UserID: plain.ID, DueAt: t0.Add(time.Minute), Message: "later", CreatedAt: t0})

	res, err := f.svc.DuePoll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Due)
	assert.Equal(t, 1, f.store.Len())
}

func TestDuePoll_LedgerPreventsRedeliveryAfterFailedDelete(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(domainreminder.Reminder{GuildID: guildID, ChannelID: channelID, UserID: plain.ID, DueAt: t0, Message: "once", CreatedAt: t0})
	f.store.DeleteErr = errors.New("worker api unavailable")

	res, err := f.svc.DuePoll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Channel)
	assert.Equal(t, 1, res.Orphaned)

	f.store.DeleteErr = nil
	res, err = f.svc.DuePoll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, f.gw.SentTo(channelID), 1, "delivered exactly once")
	assert.Zero(t, f.store.Len())
}

func TestDuePoll_LedgerErrorStillDelivers(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockClaimLedger(ctrl)
	clock := testutil.NewClock(t0)
	store := testutil.NewFakeReminderStore(clock.Now)
	gw := testutil.NewFakeGateway()
	gw.AddTextChannel(guildID, channelID, "general")
	gw.AddMember(plain)
	svc := remindersvc.NewService(store, gw, gw, ledger, gate, &testutil.CaptureRecorder{}, remindersvc.Settings{Now: clock.Now})

	r := store.Seed(domainreminder.Reminder{GuildID: guildID, ChannelID: channelID, UserID: plain.ID, DueAt: t0, Message: "x", CreatedAt: t0})
	ledger.EXPECT().Claim(gomock.Any(), "reminder:1", remindersvc.DefaultLedgerTTL).Return(false, time.Duration(0), errors.New("redis down"))

	res, err := svc.DuePoll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)
	assert.Equal(t, 1, res.Channel)
}

func TestDuePoll_FetchFailure(t *testing.T) {
	f := newFixture(t)
	f.store.DueErr = errors.New("worker api unavailable")

	_, err := f.svc.DuePoll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch due reminders")
}

// ── RetentionSweep ───────────────────────────────────────────────────────────

func TestRetentionSweep_FortyFiveDayRule(t *testing.T) {
	f := newFixture(t)
	old := f.store.Seed(domainreminder.Reminder{GuildID: guildID, UserID: plain.ID, CreatedAt: t0.Add(-46 * 24 * time.Hour), DueAt: t0.Add(time.Hour)})
	young := f.store.Seed(domainreminder.Reminder{GuildID: guildID, UserID: plain.ID, CreatedAt: t0.Add(-44 * 24 * time.Hour), DueAt: t0.Add(time.Hour)})

	n, err := f.svc.RetentionSweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	_, ok := f.store.Get(old.ID)
	assert.False(t, ok)
	_, ok = f.store.Get(young.ID)
	assert.True(t, ok)
}

func TestRetentionSweep_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReminderStore(ctrl)
	svc := remindersvc.NewService(store, nil, nil, nil, gate, &testutil.CaptureRecorder{}, remindersvc.Settings{})

	store.EXPECT().Cleanup(gomock.Any()).Return(0, errors.New("boom"))

	_, err := svc.RetentionSweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup reminders")
}

// ── Cancel ───────────────────────────────────────────────────────────────────

func TestCancel_OwnerCancelsOwn(t *testing.T) {
	f := newFixture(t)
	r := f.store.Seed(domainreminder.Reminder{GuildID: guildID, UserID: plain.ID, DueAt: t0.Add(time.Hour), CreatedAt: t0})

	got, err := f.svc.Cancel(context.Background(), plain, guildID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Zero(t, f.store.Len())
}

func TestCancel_OtherUsersReminderIsNotFoundForNonDirector(t *testing.T) {
	f := newFixture(t)
	r := f.store.Seed(domainreminder.Reminder{GuildID: guildID, UserID: other.ID, DueAt: t0.Add(time.Hour), CreatedAt: t0})

	_, err := f.svc.Cancel(context.Background(), plain, guildID, r.ID)
	assert.ErrorIs(t, err, remindersvc.ErrNotFound)
	assert.Equal(t, 1, f.store.Len())
}

func TestCancel_DirectorCancelsAnyInGuild(t *testing.T) {
	f := newFixture(t)
	r := f.store.Seed(domainreminder.Reminder{GuildID: guildID, UserID: other.ID, DueAt: t0.Add(time.Hour), CreatedAt: t0})

	_, err := f.svc.Cancel(context.Background(), director, guildID, r.ID)
	require.NoError(t, err)
	assert.Zero(t, f.store.Len())
	assert.True(t, f.audit.Logged("dee cancelled reminder ID 1."))
}

func TestCancel_UnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(context.Background(), director, guildID, 99)
	assert.ErrorIs(t, err, remindersvc.ErrNotFound)
}

// ── ListFor ──────────────────────────────────────────────────────────────────

func TestListFor_Scopes(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(domainreminder.Reminder{GuildID: guildID, UserID: plain.ID, DueAt: t0, CreatedAt: t0})
	f.store.Seed(domainreminder.Reminder{GuildID: guildID, UserID: other.ID, DueAt: t0, CreatedAt: t0})

	scope, list, err := f.svc.ListFor(context.Background(), director, guildID)
	require.NoError(t, err)
	assert.Equal(t, remindersvc.ScopeGuild, scope)
	assert.Len(t, list, 2)

	scope, list, err = f.svc.ListFor(context.Background(), plain, guildID)
	require.NoError(t, err)
	assert.Equal(t, remindersvc.ScopeMine, scope)
	require.Len(t, list, 1)
	assert.Equal(t, plain.ID, list[0].UserID)
}
