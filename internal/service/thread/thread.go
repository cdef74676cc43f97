package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	domainthread "github.com/alanyang/threadkeeper/internal/domain/thread"
	"github.com/alanyang/threadkeeper/internal/observ"
	"github.com/alanyang/threadkeeper/internal/port/gateway"
	"github.com/alanyang/threadkeeper/internal/port/notifier"
)

const (
	// openArchiveScan bounds the archived-thread duplicate check on open.
	openArchiveScan = 100
	// listArchiveScan bounds archived threads fetched per channel by List.
	listArchiveScan = 50
	// reopenArchiveScan bounds the per-channel search on reopen.
	reopenArchiveScan = 100

	// DefaultPace spaces membership mutations inside one operation.
	DefaultPace = 500 * time.Millisecond
)

// Settings tunes a Service. Zero values are usable.
type Settings struct {
	// Pace is the delay between consecutive membership mutations inside one
	// operation. Zero disables pacing.
	Pace        time.Duration
	Kinds       domainthread.Kinds
	AuthSiteURL string
	Metrics     *observ.Metrics
}

// Service orchestrates the private-thread lifecycle: open, close, remove,
// list and reopen. Role and thread state is read fresh from the gateway on
// every call.
type Service struct {
	dir      gateway.Directory
	threads  gateway.Threads
	msg      gateway.Messenger
	gate     role.Gate
	audit    notifier.AuditRecorder
	kinds    domainthread.Kinds
	pace     time.Duration
	authSite string
	metrics  *observ.Metrics
}

func NewService(dir gateway.Directory, threads gateway.Threads, msg gateway.Messenger, gate role.Gate, audit notifier.AuditRecorder, settings Settings) *Service {
	kinds := settings.Kinds
	if kinds == nil {
		kinds = domainthread.DefaultKinds
	}
	return &Service{
		dir:      dir,
		threads:  threads,
		msg:      msg,
		gate:     gate,
		audit:    audit,
		kinds:    kinds,
		pace:     settings.Pace,
		authSite: settings.AuthSiteURL,
		metrics:  settings.Metrics,
	}
}

func (s *Service) Kinds() domainthread.Kinds { return s.kinds }

// newPacer returns a limiter allowing one mutation per pace. Each operation
// gets its own, so unrelated operations never wait on each other.
func (s *Service) newPacer() *rate.Limiter {
	if s.pace <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(s.pace), 1)
}

// OpenThread creates a private thread of kind for actor under parentID,
// pulls in the kind's staff role and posts the welcome message.
func (s *Service) OpenThread(ctx context.Context, kind domainthread.Kind, actor member.Member, guildID, parentID string) (domainthread.Thread, error) {
	spec, ok := s.kinds.Spec(kind)
	if !ok {
		return domainthread.Thread{}, fmt.Errorf("open thread: %w: %q", ErrUnknownKind, kind)
	}
	if err := s.gate.Require(actor.Roles, spec.Open); err != nil {
		return domainthread.Thread{}, err
	}

	name := domainthread.CanonicalName(spec, actor.Username)
	if err := s.checkDuplicate(ctx, guildID, parentID, name); err != nil {
		return domainthread.Thread{}, err
	}

	created, err := s.threads.CreatePrivateThread(ctx, parentID, name)
	if err != nil {
		return domainthread.Thread{}, platformErr("create thread", err)
	}

	pacer := s.newPacer()
	if err := pacer.Wait(ctx); err != nil {
		return created, err
	}
	// The thread exists from here on, so later failures are warnings.
	if err := s.threads.AddThreadMember(ctx, created.ID, actor.ID); err != nil {
		s.audit.Record(ctx, event.Warning(guildID, fmt.Sprintf("Failed to add owner %s to thread %s: %v", actor.Username, created.Name, err)).WithSubject(created.ID))
	}

	staffRoleID := s.gate.RoleID(spec.Staff)
	staff, resolved := s.staffMembers(ctx, guildID, staffRoleID, spec.Staff)
	for _, m := range staff {
		if m.ID == actor.ID {
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return created, err
		}
		if err := s.threads.AddThreadMember(ctx, created.ID, m.ID); err != nil {
			s.audit.Record(ctx, event.Warning(guildID, fmt.Sprintf("Failed to add %s to thread %s: %v", m.Username, created.Name, err)).WithSubject(created.ID))
		}
	}

	roleMention := ""
	if resolved {
		roleMention = "<@&" + staffRoleID + ">"
	}
	if err := s.msg.Send(ctx, created.ID, WelcomeMessage(kind, roleMention, actor.Mention(), s.authSite)); err != nil {
		slog.ErrorContext(ctx, "failed to post welcome message", "thread_id", created.ID, "error", err)
	}

	s.audit.Record(ctx, event.Info(event.TypeThreadOpened, guildID,
		fmt.Sprintf("%s created %s thread %s.", actor.Username, spec.Label, created.Name)).
		WithActor(actor.ID).WithSubject(created.ID))
	s.metrics.ThreadOpened(string(kind))
	return created, nil
}

// checkDuplicate rejects name when an active or recently archived thread
// under parentID already carries it. A refused archive scan is logged and
// treated as no match.
func (s *Service) checkDuplicate(ctx context.Context, guildID, parentID, name string) error {
	active, err := s.threads.ActiveThreads(ctx, guildID)
	if err != nil {
		return platformErr("list active threads", err)
	}
	for _, t := range active {
		if t.ParentID == parentID && domainthread.SameName(t.Name, name) {
			return &domainthread.ConflictError{Name: t.Name}
		}
	}

	archived, err := s.threads.ArchivedThreads(ctx, parentID, openArchiveScan)
	if err != nil {
		if errors.Is(err, gateway.ErrForbidden) {
			s.audit.Record(ctx, event.Warning(guildID, "Cannot check archived threads - missing permissions"))
		} else {
			s.audit.Record(ctx, event.Warning(guildID, fmt.Sprintf("Cannot check archived threads: %v", err)))
		}
		return nil
	}
	for _, t := range archived {
		if domainthread.SameName(t.Name, name) {
			return &domainthread.ConflictError{Name: t.Name, Archived: true}
		}
	}
	return nil
}

// staffMembers lists the members holding roleID. The bool reports whether
// the role resolved at all; an unresolved role is logged and yields nobody.
func (s *Service) staffMembers(ctx context.Context, guildID, roleID string, req role.Requirement) ([]member.Member, bool) {
	label := roleLabel(req)
	if roleID == "" {
		s.audit.Record(ctx, event.Warning(guildID, label+" role not found"))
		return nil, false
	}
	members, err := s.dir.RoleMembers(ctx, guildID, roleID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			s.audit.Record(ctx, event.Warning(guildID, label+" role not found"))
			return nil, false
		}
		s.audit.Record(ctx, event.Warning(guildID, fmt.Sprintf("Failed to list %s role members: %v", label, err)))
		return nil, true
	}
	return members, true
}

// CloseThread removes every non-staff human from threadID, then archives and
// locks it. It returns the number of members removed.
func (s *Service) CloseThread(ctx context.Context, actor member.Member, guildID, threadID string) (int, error) {
	if err := s.gate.Require(actor.Roles, role.Director); err != nil {
		return 0, err
	}
	t, err := s.resolveThread(ctx, threadID)
	if err != nil {
		return 0, err
	}

	members, err := s.threads.ThreadMembers(ctx, guildID, t.ID)
	if err != nil {
		return 0, platformErr("list thread members", err)
	}

	pacer := s.newPacer()
	removed := 0
	for _, m := range members {
		if m.Bot || s.gate.IsStaff(m.Roles) {
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return removed, err
		}
		if err := s.threads.RemoveThreadMember(ctx, t.ID, m.ID); err != nil {
			s.audit.Record(ctx, event.Warning(guildID, fmt.Sprintf("Failed to remove %s from thread %s: %v", m.Username, t.Name, err)).WithSubject(t.ID))
			continue
		}
		removed++
	}
	s.metrics.MembersRemoved(removed)

	if _, err := s.threads.SetThreadState(ctx, t.ID, true, true); err != nil {
		s.audit.Record(ctx, event.Failure(guildID, fmt.Sprintf("Error closing thread %s: %v", t.Name, err)).WithSubject(t.ID))
		return removed, platformErr("archive thread", err)
	}

	s.audit.Record(ctx, event.Info(event.TypeThreadClosed, guildID,
		fmt.Sprintf("%s closed thread %s (removed %d users).", actor.Username, t.Name, removed)).
		WithActor(actor.ID).WithSubject(t.ID))
	s.metrics.ThreadClosed()
	return removed, nil
}

// RemoveMember removes targetID (the actor when empty) from threadID. Staff
// may only ever remove themselves.
func (s *Service) RemoveMember(ctx context.Context, actor member.Member, guildID, threadID, targetID string) (member.Member, error) {
	if err := s.gate.Require(actor.Roles, role.RecruiterOrDirector); err != nil {
		return member.Member{}, err
	}
	t, err := s.resolveThread(ctx, threadID)
	if err != nil {
		return member.Member{}, err
	}

	target := actor
	if targetID != "" && targetID != actor.ID {
		target, err = s.dir.Member(ctx, guildID, targetID)
		if err != nil {
			return member.Member{}, platformErr("resolve member", err)
		}
		if s.gate.IsStaff(target.Roles) {
			return member.Member{}, ErrStaffProtected
		}
	}

	members, err := s.threads.ThreadMembers(ctx, guildID, t.ID)
	if err != nil {
		return member.Member{}, platformErr("list thread members", err)
	}
	if !containsMember(members, target.ID) {
		return member.Member{}, ErrNotInThread
	}

	if err := s.threads.RemoveThreadMember(ctx, t.ID, target.ID); err != nil {
		s.audit.Record(ctx, event.Failure(guildID, fmt.Sprintf("Error removing %s from thread %s: %v", target.Username, t.Name, err)).WithSubject(t.ID))
		return member.Member{}, platformErr("remove thread member", err)
	}

	msg := fmt.Sprintf("%s removed %s from thread %s.", actor.Username, target.Username, t.Name)
	if target.ID == actor.ID {
		msg = fmt.Sprintf("%s removed themselves from thread %s.", actor.Username, t.Name)
	}
	s.audit.Record(ctx, event.Info(event.TypeThreadMemberRemoved, guildID, msg).WithActor(actor.ID).WithSubject(t.ID))
	s.metrics.MembersRemoved(1)
	return target, nil
}

// Listing groups workflow threads by state.
type Listing struct {
	Active   []domainthread.Thread `json:"active"`
	Archived []domainthread.Thread `json:"archived"`
}

// ListWorkflowThreads collects recruitment and officer threads across every
// text channel in the guild.
func (s *Service) ListWorkflowThreads(ctx context.Context, actor member.Member, guildID string) (Listing, error) {
	if err := s.gate.Require(actor.Roles, role.RecruiterOrDirector); err != nil {
		return Listing{}, err
	}

	channels, err := s.dir.TextChannels(ctx, guildID)
	if err != nil {
		return Listing{}, platformErr("list channels", err)
	}
	active, err := s.threads.ActiveThreads(ctx, guildID)
	if err != nil {
		return Listing{}, platformErr("list active threads", err)
	}

	prefixes := s.kinds.Prefixes()
	text := make(map[string]bool, len(channels))
	for _, ch := range channels {
		text[ch.ID] = true
	}

	var out Listing
	for _, t := range active {
		if text[t.ParentID] && domainthread.HasPrefix(t.Name, prefixes) {
			out.Active = append(out.Active, t)
		}
	}
	for _, ch := range channels {
		archived, err := s.threads.ArchivedThreads(ctx, ch.ID, listArchiveScan)
		if err != nil {
			slog.DebugContext(ctx, "skipping archived threads", "channel_id", ch.ID, "error", err)
			continue
		}
		for _, t := range archived {
			if domainthread.HasPrefix(t.Name, prefixes) {
				out.Archived = append(out.Archived, t)
			}
		}
	}
	return out, nil
}

// ReopenThread unarchives and unlocks the first archived thread whose name
// matches, searching text channels in gateway order.
func (s *Service) ReopenThread(ctx context.Context, actor member.Member, guildID, name string) (domainthread.Thread, error) {
	if err := s.gate.Require(actor.Roles, role.Director); err != nil {
		return domainthread.Thread{}, err
	}

	channels, err := s.dir.TextChannels(ctx, guildID)
	if err != nil {
		return domainthread.Thread{}, platformErr("list channels", err)
	}
	for _, ch := range channels {
		archived, err := s.threads.ArchivedThreads(ctx, ch.ID, reopenArchiveScan)
		if err != nil {
			slog.DebugContext(ctx, "skipping archived threads", "channel_id", ch.ID, "error", err)
			continue
		}
		for _, t := range archived {
			if !domainthread.SameName(t.Name, name) {
				continue
			}
			reopened, err := s.threads.SetThreadState(ctx, t.ID, false, false)
			if err != nil {
				s.audit.Record(ctx, event.Failure(guildID, fmt.Sprintf("Error reopening thread %s: %v", t.Name, err)).WithSubject(t.ID))
				return domainthread.Thread{}, platformErr("reopen thread", err)
			}
			s.audit.Record(ctx, event.Info(event.TypeThreadReopened, guildID,
				fmt.Sprintf("%s reopened thread %s.", actor.Username, reopened.Name)).
				WithActor(actor.ID).WithSubject(reopened.ID))
			return reopened, nil
		}
	}
	return domainthread.Thread{}, ErrNotFound
}

func (s *Service) resolveThread(ctx context.Context, threadID string) (domainthread.Thread, error) {
	t, err := s.threads.Thread(ctx, threadID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotAThread) {
			return domainthread.Thread{}, ErrNotAThread
		}
		return domainthread.Thread{}, platformErr("resolve thread", err)
	}
	return t, nil
}

func containsMember(members []member.Member, id string) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}

func roleLabel(req role.Requirement) string {
	switch req {
	case role.Recruiter:
		return "Recruiter"
	case role.Director:
		return "Director"
	default:
		return "Staff"
	}
}
