package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	domainreminder "github.com/alanyang/threadkeeper/internal/domain/reminder"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	"github.com/alanyang/threadkeeper/internal/observ"
	portclaim "github.com/alanyang/threadkeeper/internal/port/claim"
	"github.com/alanyang/threadkeeper/internal/port/gateway"
	"github.com/alanyang/threadkeeper/internal/port/notifier"
	portreminder "github.com/alanyang/threadkeeper/internal/port/reminder"
)

// DefaultLedgerTTL keeps a delivery claim long enough to outlive a failed
// delete and the next few polls.
const DefaultLedgerTTL = 48 * time.Hour

var ErrNotFound = errors.New("reminder not found")

// Outcome is what happened to one due reminder in a poll.
type Outcome string

const (
	OutcomeChannel Outcome = "channel"
	OutcomeDirect  Outcome = "direct"
	OutcomeFailed  Outcome = "failed"
	// OutcomeSkipped means a previous poll already claimed the delivery.
	OutcomeSkipped Outcome = "skipped"
)

type Settings struct {
	Now       func() time.Time
	LedgerTTL time.Duration
	Metrics   *observ.Metrics
}

// Service schedules reminders and delivers them when due. The worker API is
// the system of record; nothing is cached here.
type Service struct {
	store     portreminder.Store
	dir       gateway.Directory
	msg       gateway.Messenger
	ledger    portclaim.Ledger
	gate      role.Gate
	audit     notifier.AuditRecorder
	now       func() time.Time
	ledgerTTL time.Duration
	metrics   *observ.Metrics
}

// NewService builds the engine. ledger may be nil, in which case every due
// reminder is attempted.
func NewService(store portreminder.Store, dir gateway.Directory, msg gateway.Messenger, ledger portclaim.Ledger, gate role.Gate, audit notifier.AuditRecorder, settings Settings) *Service {
	now := settings.Now
	if now == nil {
		now = time.Now
	}
	ttl := settings.LedgerTTL
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}
	return &Service{
		store:     store,
		dir:       dir,
		msg:       msg,
		ledger:    ledger,
		gate:      gate,
		audit:     audit,
		now:       now,
		ledgerTTL: ttl,
		metrics:   settings.Metrics,
	}
}

// Schedule persists a reminder for actor due delay from now.
func (s *Service) Schedule(ctx context.Context, actor member.Member, guildID, channelID string, delay domainreminder.Delay, message string) (domainreminder.Reminder, error) {
	if err := s.gate.Require(actor.Roles, role.Director); err != nil {
		return domainreminder.Reminder{}, err
	}
	r, err := domainreminder.New(guildID, channelID, actor.ID, delay, message, s.now())
	if err != nil {
		return domainreminder.Reminder{}, err
	}

	id, err := s.store.Create(ctx, r)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create reminder", "user_id", actor.ID, "error", err)
		return domainreminder.Reminder{}, fmt.Errorf("schedule reminder: %w", err)
	}
	r.ID = id

	s.audit.Record(ctx, event.Info(event.TypeReminderScheduled, guildID,
		fmt.Sprintf("%s set a reminder for %s: %s", actor.Username, delay, r.Preview())).
		WithActor(actor.ID).WithSubject(fmt.Sprint(id)))
	s.metrics.ReminderScheduled()
	return r, nil
}

// PollResult tallies one DuePoll pass.
type PollResult struct {
	Due      int `json:"due"`
	Channel  int `json:"channel"`
	Direct   int `json:"direct"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	Orphaned int `json:"orphaned"` // delete failed; the ledger keeps them from re-delivering
}

// DuePoll delivers every due reminder and then deletes it. The delete runs
// whatever the delivery outcome, so a reminder is attempted at most once;
// there are no retries.
func (s *Service) DuePoll(ctx context.Context) (PollResult, error) {
	due, err := s.store.Due(ctx)
	if err != nil {
		return PollResult{}, fmt.Errorf("fetch due reminders: %w", err)
	}

	res := PollResult{Due: len(due)}
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out := s.process(ctx, r)
		switch out {
		case OutcomeChannel:
			res.Channel++
		case OutcomeDirect:
			res.Direct++
		case OutcomeSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
		s.metrics.Delivery(string(out))

		if err := s.store.Delete(ctx, r.ID); err != nil {
			res.Orphaned++
			slog.ErrorContext(ctx, "failed to delete reminder", "reminder_id", r.ID, "error", err)
		}
	}
	return res, nil
}

func (s *Service) process(ctx context.Context, r domainreminder.Reminder) Outcome {
	if s.ledger != nil {
		granted, _, err := s.ledger.Claim(ctx, domainreminder.DeliveryKey(r.ID), s.ledgerTTL)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "delivery ledger unavailable", "reminder_id", r.ID, "error", err)
		case !granted:
			return OutcomeSkipped
		}
	}
	return s.deliver(ctx, r)
}

// deliver posts r in its channel, falling back to a DM when the channel or
// member no longer resolves. A channel post failure does not fall back.
func (s *Service) deliver(ctx context.Context, r domainreminder.Reminder) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "panic delivering reminder", "reminder_id", r.ID, "panic", p)
			out = OutcomeFailed
		}
	}()

	ch, chErr := s.dir.Channel(ctx, r.ChannelID)
	m, mErr := s.dir.Member(ctx, r.GuildID, r.UserID)
	if chErr == nil && ch.GuildID == r.GuildID && mErr == nil {
		if err := s.msg.Send(ctx, ch.ID, fmt.Sprintf("🔔 %s Reminder: %s", m.Mention(), r.Message)); err != nil {
			slog.ErrorContext(ctx, "error sending reminder", "reminder_id", r.ID, "error", err)
			return OutcomeFailed
		}
		s.audit.Record(ctx, event.Info(event.TypeReminderDelivered, r.GuildID,
			fmt.Sprintf("Reminder delivered to %s: %s", m.Username, r.Preview())).
			WithActor(r.UserID).WithSubject(fmt.Sprint(r.ID)))
		return OutcomeChannel
	}

	if err := s.msg.SendDirect(ctx, r.UserID, "🔔 Reminder: "+r.Message); err != nil {
		slog.DebugContext(ctx, "reminder direct message failed", "reminder_id", r.ID, "error", err)
		return OutcomeFailed
	}
	return OutcomeDirect
}

// RetentionSweep asks the worker to drop reminders older than the retention
// window and reports how many went.
func (s *Service) RetentionSweep(ctx context.Context) (int, error) {
	n, err := s.store.Cleanup(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleanup reminders: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, fmt.Sprintf("Cleaned up %d old reminders (45+ days)", n), "deleted", n)
		s.metrics.RemindersExpired(n)
	}
	return n, nil
}

// Cancel deletes reminder id on behalf of actor. Ownership is resolved from
// the actor's own list, then the guild list for Directors; a reminder the
// actor cannot see is reported as not found.
func (s *Service) Cancel(ctx context.Context, actor member.Member, guildID string, id int64) (domainreminder.Reminder, error) {
	director := s.gate.Admits(actor.Roles, role.Director)

	mine, err := s.store.ListByUser(ctx, actor.ID)
	if err != nil {
		return domainreminder.Reminder{}, fmt.Errorf("list reminders: %w", err)
	}
	r, ok := domainreminder.Find(mine, id)
	if !ok && director {
		all, err := s.store.ListByGuild(ctx, guildID)
		if err != nil {
			return domainreminder.Reminder{}, fmt.Errorf("list guild reminders: %w", err)
		}
		r, ok = domainreminder.Find(all, id)
	}
	if !ok {
		return domainreminder.Reminder{}, ErrNotFound
	}
	if r.UserID != actor.ID && !director {
		return domainreminder.Reminder{}, role.ErrPermissionDenied
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return domainreminder.Reminder{}, fmt.Errorf("cancel reminder: %w", err)
	}
	s.audit.Record(ctx, event.Info(event.TypeReminderCancelled, guildID,
		fmt.Sprintf("%s cancelled reminder ID %d.", actor.Username, id)).
		WithActor(actor.ID).WithSubject(fmt.Sprint(id)))
	return r, nil
}

// Scope says whose reminders a listing covers.
type Scope string

const (
	ScopeMine  Scope = "mine"
	ScopeGuild Scope = "guild"
)

// ListFor returns the guild's reminders for Directors and the actor's own
// for everyone else.
func (s *Service) ListFor(ctx context.Context, actor member.Member, guildID string) (Scope, []domainreminder.Reminder, error) {
	if s.gate.Admits(actor.Roles, role.Director) {
		all, err := s.ListAll(ctx, guildID)
		return ScopeGuild, all, err
	}
	mine, err := s.ListMine(ctx, actor.ID)
	return ScopeMine, mine, err
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]domainreminder.Reminder, error) {
	rs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return rs, nil
}

func (s *Service) ListAll(ctx context.Context, guildID string) ([]domainreminder.Reminder, error) {
	rs, err := s.store.ListByGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list guild reminders: %w", err)
	}
	return rs, nil
}
