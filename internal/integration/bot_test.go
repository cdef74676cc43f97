//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgaudit "github.com/alanyang/threadkeeper/internal/adapter/postgres/audit"
	pgclaims "github.com/alanyang/threadkeeper/internal/adapter/postgres/claims"
	pgeventbus "github.com/alanyang/threadkeeper/internal/adapter/postgres/eventbus"
	pglocker "github.com/alanyang/threadkeeper/internal/adapter/postgres/locker"
	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	domainreminder "github.com/alanyang/threadkeeper/internal/domain/reminder"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	domainthread "github.com/alanyang/threadkeeper/internal/domain/thread"
	"github.com/alanyang/threadkeeper/internal/scheduler"
	auditsvc "github.com/alanyang/threadkeeper/internal/service/audit"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
	threadsvc "github.com/alanyang/threadkeeper/internal/service/thread"
	"github.com/alanyang/threadkeeper/internal/testutil"
)

const (
	recruiterID = "111"
	directorID  = "222"
	logsChannel = "999"
)

// ── Audit pipeline ────────────────────────────────────────────────────────────

// Opening a thread must land in the log channel, the audit table and on the
// Postgres event bus.
func TestOpenThread_AuditReachesEverySink(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()

	bus := pgeventbus.New(pool)
	defer bus.Close()
	store := pgaudit.New(pool)

	published := make(chan event.Event, 8)
	_, err := bus.Subscribe(ctx, event.ChannelThread, func(_ context.Context, e event.Event) { published <- e })
	require.NoError(t, err)

	guildID := "g-" + uuid.NewString()[:8]
	gw := testutil.NewFakeGateway()
	gw.AddRole(recruiterID)
	gw.AddTextChannel(guildID, "c1", "recruitment")
	actor := member.Member{ID: "1", Username: "Nyx-" + guildID}
	gw.AddMember(actor)

	relay := auditsvc.NewRelay(gw, logsChannel, store, bus)
	threads := threadsvc.NewService(gw, gw, gw, role.NewGate(recruiterID, directorID), relay, threadsvc.Settings{})

	created, err := threads.OpenThread(ctx, domainthread.KindRecruitment, actor, guildID, "c1")
	require.NoError(t, err)
	want := fmt.Sprintf("%s created recruitment thread %s.", actor.Username, created.Name)

	echoed := gw.SentTo(logsChannel)
	require.NotEmpty(t, echoed)
	assert.Contains(t, echoed[len(echoed)-1], want)

	recent, err := store.Recent(ctx, 50)
	require.NoError(t, err)
	found := false
	for _, e := range recent {
		if e.GuildID == guildID && e.Type == event.TypeThreadOpened {
			found = true
			assert.Equal(t, want, e.Message)
		}
	}
	assert.True(t, found, "thread_opened event persisted")

	select {
	case e := <-published:
		assert.Equal(t, event.TypeThreadOpened, e.Type)
		assert.Equal(t, guildID, e.GuildID)
	case <-time.After(5 * time.Second):
		t.Fatal("event not published")
	}
}

// ── Delivery across replicas ──────────────────────────────────────────────────

// Two bot replicas polling the same due reminder share the Postgres ledger, so
// only one of them delivers it.
func TestDuePoll_TwoReplicasDeliverOnce(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	ledger := pgclaims.New(pool)

	clock := testutil.NewClock(time.Now().UTC())
	guildID := "g-" + uuid.NewString()[:8]
	due := domainreminder.Reminder{
		ID:        time.Now().UnixNano() % 1_000_000_000,
		GuildID:   guildID,
		ChannelID: "c1",
		UserID:    "u1",
		DueAt:     clock.Now().Add(-time.Minute),
		Message:   "Check fuel",
	}

	var delivered []string
	for range 2 {
		store := testutil.NewFakeReminderStore(clock.Now)
		store.Seed(due)
		gw := testutil.NewFakeGateway()
		gw.AddTextChannel(guildID, "c1", "ops")
		gw.AddMember(member.Member{ID: "u1", Username: "dee"})

		svc := remindersvc.NewService(store, gw, gw, ledger, role.NewGate(recruiterID, directorID), &testutil.CaptureRecorder{}, remindersvc.Settings{Now: clock.Now})
		_, err := svc.DuePoll(ctx)
		require.NoError(t, err)
		delivered = append(delivered, gw.SentTo("c1")...)
		assert.Zero(t, store.Len())
	}

	require.Len(t, delivered, 1)
	assert.Equal(t, "🔔 <@u1> Reminder: Check fuel", delivered[0])
}

// ── Scheduler across replicas ─────────────────────────────────────────────────

func TestRunNow_AdvisoryLockSpansRunners(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	name := "retention-" + uuid.NewString()[:8]

	first := scheduler.NewRunner(pglocker.New(pool), nil)
	require.NoError(t, first.Add(scheduler.Task{Name: name, Every: time.Hour, Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	second := scheduler.NewRunner(pglocker.New(pool), nil)
	require.NoError(t, second.Add(scheduler.Task{Name: name, Every: time.Hour, Run: func(context.Context) error { return nil }}))

	done := make(chan error, 1)
	go func() { done <- first.RunNow(ctx, name) }()
	<-started

	assert.ErrorIs(t, second.RunNow(ctx, name), scheduler.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.NoError(t, second.RunNow(ctx, name))
}
