package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/threadkeeper/internal/adapter/memory"
	"github.com/alanyang/threadkeeper/internal/domain/event"
	domainreminder "github.com/alanyang/threadkeeper/internal/domain/reminder"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	"github.com/alanyang/threadkeeper/internal/scheduler"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
	"github.com/alanyang/threadkeeper/internal/testutil"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func makeReq(args map[string]any) mcpmcp.CallToolRequest {
	var req mcpmcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(r *mcpmcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	b, _ := json.Marshal(r.Content[0])
	var m map[string]interface{}
	json.Unmarshal(b, &m) //nolint:errcheck
	if t, ok := m["text"].(string); ok {
		return t
	}
	return ""
}

func newReminders(t *testing.T) (*remindersvc.Service, *testutil.FakeReminderStore) {
	t.Helper()
	clock := testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := testutil.NewFakeReminderStore(clock.Now)
	gw := testutil.NewFakeGateway()
	svc := remindersvc.NewService(store, gw, gw, nil, role.NewGate("1", "2"), &testutil.CaptureRecorder{}, remindersvc.Settings{Now: clock.Now})
	return svc, store
}

// ── list_reminders ────────────────────────────────────────────────────────────

func TestListRemindersHandler(t *testing.T) {
	svc, store := newReminders(t)
	store.Seed(domainreminder.Reminder{GuildID: "g1", UserID: "u1", Message: "fuel"})
	store.Seed(domainreminder.Reminder{GuildID: "g2", UserID: "u2", Message: "other guild"})

	res, err := listRemindersHandler(svc)(context.Background(), makeReq(map[string]any{"guild_id": "g1"}))
	require.NoError(t, err)

	var got []domainreminder.Reminder
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "fuel", got[0].Message)
}

func TestListRemindersHandler_MissingGuild(t *testing.T) {
	svc, _ := newReminders(t)

	res, err := listRemindersHandler(svc)(context.Background(), makeReq(map[string]any{}))

	require.NoError(t, err)
	assert.Equal(t, "error: guild_id is required", resultText(res))
}

// ── recent_audit ──────────────────────────────────────────────────────────────

func TestRecentAuditHandler(t *testing.T) {
	log := memory.NewAuditLog(10)
	ctx := context.Background()
	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, log.Append(ctx, event.Info(event.TypeMemberJoined, "g1", msg)))
	}

	tests := []struct {
		name      string
		args      map[string]any
		wantFirst string
		wantLen   int
		wantText  string
	}{
		{name: "default limit", args: map[string]any{}, wantFirst: "third", wantLen: 3},
		{name: "explicit limit", args: map[string]any{"limit": float64(2)}, wantFirst: "third", wantLen: 2},
		{name: "non-positive limit", args: map[string]any{"limit": float64(0)}, wantText: "error: limit must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := recentAuditHandler(log)(ctx, makeReq(tt.args))
			require.NoError(t, err)

			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, resultText(res))
				return
			}
			var got []event.Event
			require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantFirst, got[0].Message)
		})
	}
}

// ── run_task ──────────────────────────────────────────────────────────────────

func TestRunTaskHandler(t *testing.T) {
	runs := 0
	runner := scheduler.NewRunner(memory.NewLocker(), nil)
	require.NoError(t, runner.Add(scheduler.Task{Name: "due-poll", Every: time.Minute, Run: func(context.Context) error {
		runs++
		return nil
	}}))
	require.NoError(t, runner.Add(scheduler.Task{Name: "retention", Every: time.Hour, Run: func(context.Context) error {
		return errors.New("store down")
	}}))
	handler := runTaskHandler(runner)
	ctx := context.Background()

	res, err := handler(ctx, makeReq(map[string]any{"name": "due-poll"}))
	require.NoError(t, err)
	assert.Equal(t, "ok: due-poll completed", resultText(res))
	assert.Equal(t, 1, runs)

	res, _ = handler(ctx, makeReq(map[string]any{"name": "retention"}))
	assert.Contains(t, resultText(res), "store down")

	res, _ = handler(ctx, makeReq(map[string]any{"name": "nope"}))
	assert.Equal(t, "error: unknown task nope (one of: due-poll, retention)", resultText(res))
}
