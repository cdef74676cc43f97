package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	domainreminder "github.com/alanyang/threadkeeper/internal/domain/reminder"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	domainthread "github.com/alanyang/threadkeeper/internal/domain/thread"
	authsvc "github.com/alanyang/threadkeeper/internal/service/auth"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
	threadsvc "github.com/alanyang/threadkeeper/internal/service/thread"
)

const (
	deniedReply    = "❌ You don't have permission to use this command."
	notThreadReply = "⚠️ This command can only be used inside a thread."
)

// kindWords fills the per-kind duplicate-thread replies.
var kindWords = map[domainthread.Kind]struct{ noun, article, contact string }{
	domainthread.KindRecruitment: {"recruit", "a", "recruiter"},
	domainthread.KindOfficer:     {"officer", "an", "director"},
}

// Handlers turns invocations into service calls and service results into
// replies.
type Handlers struct {
	threads   *threadsvc.Service
	reminders *remindersvc.Service
	auth      *authsvc.Service
	now       func() time.Time
}

func NewHandlers(threads *threadsvc.Service, reminders *remindersvc.Service, auth *authsvc.Service) *Handlers {
	return &Handlers{threads: threads, reminders: reminders, auth: auth, now: time.Now}
}

// Register fills router with every command. Thread-opening commands take the
// cooldown of their kind.
func (h *Handlers) Register(r *Router) {
	kinds := h.threads.Kinds()
	r.Handle(Route{Name: CmdRecruit, Cooldown: kinds[domainthread.KindRecruitment].Cooldown, Handle: h.open(domainthread.KindRecruitment)})
	r.Handle(Route{Name: CmdOfficer, Cooldown: kinds[domainthread.KindOfficer].Cooldown, Handle: h.open(domainthread.KindOfficer)})
	r.Handle(Route{Name: CmdClose, Handle: h.Close})
	r.Handle(Route{Name: CmdRemove, Handle: h.Remove})
	r.Handle(Route{Name: CmdThreads, Handle: h.Threads})
	r.Handle(Route{Name: CmdReopen, Handle: h.Reopen})
	r.Handle(Route{Name: CmdRemind, Handle: h.Remind})
	r.Handle(Route{Name: CmdListReminders, Handle: h.ListReminders})
	r.Handle(Route{Name: CmdCancelReminder, Handle: h.CancelReminder})
	r.Handle(Route{Name: CmdAuth, Handle: h.Auth})
	r.Handle(Route{Name: CmdStatus, Handle: h.Status})
}

// ── Threads ───────────────────────────────────────────────────────────────────

func (h *Handlers) open(kind domainthread.Kind) HandlerFunc {
	return func(ctx context.Context, inv Invocation) Reply {
		t, err := h.threads.OpenThread(ctx, kind, inv.Actor, inv.GuildID, inv.ChannelID)
		words, ok := kindWords[kind]
		if !ok {
			words.noun, words.article, words.contact = string(kind), "a", "staff member"
		}

		var conflict *domainthread.ConflictError
		switch {
		case err == nil:
			return Text(fmt.Sprintf("✅ Created your %s thread: %s", kindLabel(h.threads, kind), t.Mention()))
		case errors.Is(err, role.ErrPermissionDenied):
			if kind == domainthread.KindOfficer {
				return Text("❌ You need the Recruiter or Director role to use this command.")
			}
			return Text(deniedReply)
		case errors.As(err, &conflict) && conflict.Archived:
			return Text(fmt.Sprintf("❌ You already have %s %s thread (it may be archived). Please contact a %s.", words.article, words.noun, words.contact))
		case errors.As(err, &conflict):
			return Text(fmt.Sprintf("❌ You already have an open %s thread.", words.noun))
		case errors.Is(err, threadsvc.ErrPlatformPermission):
			return Failed(err, "❌ I don't have permission to create threads.")
		default:
			return Failed(err, fmt.Sprintf("❌ Failed to create thread: %v", err))
		}
	}
}

func kindLabel(s *threadsvc.Service, kind domainthread.Kind) string {
	if spec, ok := s.Kinds().Spec(kind); ok && spec.Label != "" {
		return spec.Label
	}
	return string(kind)
}

func (h *Handlers) Close(ctx context.Context, inv Invocation) Reply {
	removed, err := h.threads.CloseThread(ctx, inv.Actor, inv.GuildID, inv.ChannelID)
	switch {
	case err == nil:
		return Text(fmt.Sprintf("🗂️ Thread closed. Removed %d user(s).", removed))
	case errors.Is(err, role.ErrPermissionDenied):
		return Text(deniedReply)
	case errors.Is(err, threadsvc.ErrNotAThread):
		return Text(notThreadReply)
	case errors.Is(err, threadsvc.ErrPlatformPermission):
		return Failed(err, "❌ I don't have permission to manage this thread.")
	default:
		return Failed(err, fmt.Sprintf("❌ Error closing thread: %v", err))
	}
}

func (h *Handlers) Remove(ctx context.Context, inv Invocation) Reply {
	targetID, _ := inv.String("user")
	removed, err := h.threads.RemoveMember(ctx, inv.Actor, inv.GuildID, inv.ChannelID, targetID)
	if targetID == "" {
		targetID = inv.Actor.ID
	}
	switch {
	case err == nil:
		return Text(fmt.Sprintf("✅ Removed %s from the thread.", removed.Mention()))
	case errors.Is(err, role.ErrPermissionDenied):
		return Text(deniedReply)
	case errors.Is(err, threadsvc.ErrNotAThread):
		return Text(notThreadReply)
	case errors.Is(err, threadsvc.ErrStaffProtected):
		return Text("❌ You cannot remove staff members from threads.")
	case errors.Is(err, threadsvc.ErrNotInThread):
		return Text(fmt.Sprintf("⚠️ <@%s> is not in this thread.", targetID))
	case errors.Is(err, threadsvc.ErrPlatformPermission):
		return Failed(err, "❌ I don't have permission to remove users from this thread.")
	default:
		return Failed(err, fmt.Sprintf("❌ Failed to remove user: %v", err))
	}
}

func (h *Handlers) Threads(ctx context.Context, inv Invocation) Reply {
	listing, err := h.threads.ListWorkflowThreads(ctx, inv.Actor, inv.GuildID)
	switch {
	case err == nil:
		return Reply{Embeds: embeds(ThreadListEmbed(listing, inv.Actor.Username, h.now()))}
	case errors.Is(err, role.ErrPermissionDenied):
		return Text(deniedReply)
	default:
		return Failed(err, fmt.Sprintf("❌ Error retrieving threads: %v", err))
	}
}

func (h *Handlers) Reopen(ctx context.Context, inv Invocation) Reply {
	name, _ := inv.String("thread_name")
	t, err := h.threads.ReopenThread(ctx, inv.Actor, inv.GuildID, name)
	switch {
	case err == nil:
		return Text("✅ Reopened thread: " + t.Mention())
	case errors.Is(err, role.ErrPermissionDenied):
		return Text(deniedReply)
	case errors.Is(err, threadsvc.ErrNotFound):
		return Text(fmt.Sprintf("❌ Could not find archived thread: `%s`", name))
	case errors.Is(err, threadsvc.ErrPlatformPermission):
		return Failed(err, "❌ I don't have permission to unarchive threads.")
	default:
		return Failed(err, fmt.Sprintf("❌ Error reopening thread: %v", err))
	}
}

// ── Reminders ─────────────────────────────────────────────────────────────────

func (h *Handlers) Remind(ctx context.Context, inv Invocation) Reply {
	days, _ := inv.Int("days")
	hours, _ := inv.Int("hours")
	minutes, _ := inv.Int("minutes")
	message, ok := inv.String("message")
	if !ok || message == "" {
		message = domainreminder.DefaultMessage
	}
	delay := domainreminder.Delay{Days: int(days), Hours: int(hours), Minutes: int(minutes)}

	_, err := h.reminders.Schedule(ctx, inv.Actor, inv.GuildID, inv.ChannelID, delay, message)
	switch {
	case err == nil:
		return Text(fmt.Sprintf("⏰ Reminder set for %s from now.", delay))
	case errors.Is(err, role.ErrPermissionDenied):
		return Text(deniedReply)
	case errors.Is(err, domainreminder.ErrNonPositiveDelay):
		return Text("⚠️ Please specify a valid time.")
	default:
		return Failed(err, "❌ Failed to create reminder. Please try again.")
	}
}

func (h *Handlers) ListReminders(ctx context.Context, inv Invocation) Reply {
	scope, rs, err := h.reminders.ListFor(ctx, inv.Actor, inv.GuildID)
	if err != nil {
		return Failed(err, "❌ Failed to fetch reminders. Please try again.")
	}
	if scope == remindersvc.ScopeGuild {
		if len(rs) == 0 {
			return Text("📭 No pending reminders in this server.")
		}
		return Reply{Embeds: embeds(GuildRemindersEmbed(rs, h.now()))}
	}
	if len(rs) == 0 {
		return Text("📭 You have no pending reminders.")
	}
	return Reply{Embeds: embeds(MyRemindersEmbed(rs, h.now()))}
}

func (h *Handlers) CancelReminder(ctx context.Context, inv Invocation) Reply {
	id, _ := inv.Int("reminder_id")
	_, err := h.reminders.Cancel(ctx, inv.Actor, inv.GuildID, id)
	switch {
	case err == nil:
		return Text(fmt.Sprintf("✅ Cancelled reminder ID %d.", id))
	case errors.Is(err, remindersvc.ErrNotFound):
		return Text(fmt.Sprintf("❌ Reminder ID %d not found.", id))
	case errors.Is(err, role.ErrPermissionDenied):
		return Text("❌ You can only cancel your own reminders.")
	default:
		return Failed(err, "❌ Failed to cancel reminder. Please try again.")
	}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func (h *Handlers) Auth(ctx context.Context, inv Invocation) Reply {
	link, err := h.auth.StartAuth(ctx, inv.Actor, inv.GuildID)
	switch {
	case err != nil:
		return Failed(err, "❌ Failed to create authentication link. Please try again later.")
	case link.DirectMessaged:
		return Text("✅ Authentication link sent to your DMs!")
	default:
		return Text(authsvc.AuthFallback(link.URL))
	}
}

func (h *Handlers) Status(ctx context.Context, inv Invocation) Reply {
	report, err := h.auth.Status(ctx, inv.Actor, inv.GuildID)
	switch {
	case err == nil:
		return Reply{Embeds: embeds(StatusEmbed(report, inv.Actor.Username, h.now()))}
	case errors.Is(err, role.ErrPermissionDenied):
		return Text(deniedReply)
	default:
		return Failed(err, fmt.Sprintf("❌ Error retrieving status: %v", err))
	}
}

func embeds(e ...*discordgo.MessageEmbed) []*discordgo.MessageEmbed { return e }
