package workerapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyang/threadkeeper/internal/domain/reminder"
	portreminder "github.com/alanyang/threadkeeper/internal/port/reminder"
)

var _ portreminder.Store = (*Reminders)(nil)

type wireReminder struct {
	ID           int64     `json:"id,omitempty"`
	GuildID      snowflake `json:"guild_id"`
	ChannelID    snowflake `json:"channel_id"`
	UserID       snowflake `json:"user_id"`
	ReminderTime string    `json:"reminder_time"`
	Message      string    `json:"message"`
	CreatedAt    string    `json:"created_at,omitempty"`
}

// domain converts a wire row. A timestamp that does not parse is left zero
// and logged: the row must still reach the caller so a due reminder can be
// delivered and deleted.
func (w wireReminder) domain(ctx context.Context) reminder.Reminder {
	return reminder.Reminder{
		ID:        w.ID,
		GuildID:   string(w.GuildID),
		ChannelID: string(w.ChannelID),
		UserID:    string(w.UserID),
		DueAt:     w.parseField(ctx, "reminder_time", w.ReminderTime),
		Message:   w.Message,
		CreatedAt: w.parseField(ctx, "created_at", w.CreatedAt),
	}
}

func (w wireReminder) parseField(ctx context.Context, field, raw string) time.Time {
	t, err := parseTime(raw)
	if err != nil {
		slog.WarnContext(ctx, "workerapi: ignoring malformed timestamp", "reminder_id", w.ID, "field", field, "error", err)
		return time.Time{}
	}
	return t
}

// Reminders is the reminder half of the worker API. It implements
// port/reminder.Store.
type Reminders struct {
	c *Client
}

func (c *Client) Reminders() *Reminders { return &Reminders{c: c} }

type reminderList struct {
	Reminders []wireReminder `json:"reminders"`
}

func (r *Reminders) Create(ctx context.Context, rem reminder.Reminder) (int64, error) {
	body := wireReminder{
		GuildID:      snowflake(rem.GuildID),
		ChannelID:    snowflake(rem.ChannelID),
		UserID:       snowflake(rem.UserID),
		ReminderTime: formatTime(rem.DueAt),
		Message:      rem.Message,
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if err := r.c.do(ctx, http.MethodPost, "/reminders", body, &out); err != nil {
		return 0, unavailable(http.MethodPost, "/reminders", err)
	}
	return out.ID, nil
}

func (r *Reminders) Due(ctx context.Context) ([]reminder.Reminder, error) {
	return r.list(ctx, "/reminders/due")
}

// Delete treats a 404 as success: the reminder is gone either way.
func (r *Reminders) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/reminders/%d", id)
	if err := r.c.do(ctx, http.MethodDelete, path, nil, nil); err != nil && !errors.Is(err, errAbsent) {
		return err
	}
	return nil
}

func (r *Reminders) ListByUser(ctx context.Context, userID string) ([]reminder.Reminder, error) {
	return r.list(ctx, "/reminders/user/"+url.PathEscape(userID))
}

func (r *Reminders) ListByGuild(ctx context.Context, guildID string) ([]reminder.Reminder, error) {
	return r.list(ctx, "/reminders/guild/"+url.PathEscape(guildID))
}

func (r *Reminders) Cleanup(ctx context.Context) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := r.c.do(ctx, http.MethodPost, "/cleanup", nil, &out); err != nil {
		return 0, unavailable(http.MethodPost, "/cleanup", err)
	}
	return out.Deleted, nil
}

func (r *Reminders) list(ctx context.Context, path string) ([]reminder.Reminder, error) {
	var out reminderList
	if err := r.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, unavailable(http.MethodGet, path, err)
	}
	rs := make([]reminder.Reminder, 0, len(out.Reminders))
	for _, w := range out.Reminders {
		rs = append(rs, w.domain(ctx))
	}
	return rs, nil
}
