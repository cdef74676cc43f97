package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/time/rate"

	domainauth "github.com/alanyang/threadkeeper/internal/domain/auth"
	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	"github.com/alanyang/threadkeeper/internal/observ"
	portauth "github.com/alanyang/threadkeeper/internal/port/auth"
	"github.com/alanyang/threadkeeper/internal/port/gateway"
	"github.com/alanyang/threadkeeper/internal/port/notifier"
)

// DefaultPace spaces nickname edits during a refresh.
const DefaultPace = time.Second

type Settings struct {
	Now func() time.Time
	// Pace is the delay between nickname edits. Zero disables pacing.
	Pace          time.Duration
	CommunityName string
	Metrics       *observ.Metrics
}

// Service links members to their EVE characters through the worker's SSO
// flow and keeps guild nicknames in step with the character data.
type Service struct {
	directory portauth.Directory
	dir       gateway.Directory
	msg       gateway.Messenger
	nicks     gateway.Nicknamer
	gate      role.Gate
	audit     notifier.AuditRecorder
	now       func() time.Time
	pace      time.Duration
	community string
	metrics   *observ.Metrics
}

func NewService(directory portauth.Directory, dir gateway.Directory, msg gateway.Messenger, nicks gateway.Nicknamer, gate role.Gate, audit notifier.AuditRecorder, settings Settings) *Service {
	now := settings.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		directory: directory,
		dir:       dir,
		msg:       msg,
		nicks:     nicks,
		gate:      gate,
		audit:     audit,
		now:       now,
		pace:      settings.Pace,
		community: settings.CommunityName,
		metrics:   settings.Metrics,
	}
}

// Link is a freshly minted SSO URL. DirectMessaged is false when the member
// has DMs closed and the URL must be shown in the channel instead.
type Link struct {
	URL            string `json:"url"`
	DirectMessaged bool   `json:"direct_messaged"`
}

// StartAuth asks the worker for a personal SSO URL and DMs it to actor.
func (s *Service) StartAuth(ctx context.Context, actor member.Member, guildID string) (Link, error) {
	url, err := s.directory.Login(ctx, actor.ID, actor.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create auth url", "user_id", actor.ID, "error", err)
		return Link{}, fmt.Errorf("start auth: %w", err)
	}

	if err := s.msg.SendDirect(ctx, actor.ID, AuthDM(url)); err != nil {
		slog.WarnContext(ctx, "auth link DM refused, replying in channel", "user_id", actor.ID, "error", err)
		return Link{URL: url}, nil
	}

	s.audit.Record(ctx, event.Info(event.TypeAuthRequested, guildID,
		fmt.Sprintf("%s requested Eve SSO authentication", actor.Username)).WithActor(actor.ID))
	return Link{URL: url, DirectMessaged: true}, nil
}

// Linked pairs a guild member with their SSO record.
type Linked struct {
	Member member.Member     `json:"member"`
	Record domainauth.Record `json:"record"`
}

// StatusReport partitions the guild's human members by SSO state.
type StatusReport struct {
	Authenticated    []Linked        `json:"authenticated"`
	NeedsReauth      []Linked        `json:"needs_reauth"`
	NotAuthenticated []member.Member `json:"not_authenticated"`
}

// Status reports which members are linked, which tokens expired and who never
// authenticated. Records for members who left the guild are ignored.
func (s *Service) Status(ctx context.Context, actor member.Member, guildID string) (StatusReport, error) {
	if err := s.gate.Require(actor.Roles, role.Director); err != nil {
		return StatusReport{}, err
	}

	records, err := s.directory.Users(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list auth records: %w", err)
	}
	members, err := s.dir.Members(ctx, guildID)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list members: %w", err)
	}

	byID := make(map[string]member.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	var report StatusReport
	linked := make(map[string]bool, len(records))
	now := s.now()
	for _, rec := range records {
		linked[rec.DiscordID] = true
		m, ok := byID[rec.DiscordID]
		if !ok {
			continue
		}
		entry := Linked{Member: m, Record: rec}
		if rec.Expired(now) {
			report.NeedsReauth = append(report.NeedsReauth, entry)
		} else {
			report.Authenticated = append(report.Authenticated, entry)
		}
	}
	for _, m := range members {
		if !m.Bot && !linked[m.ID] {
			report.NotAuthenticated = append(report.NotAuthenticated, m)
		}
	}
	sort.SliceStable(report.NotAuthenticated, func(i, j int) bool {
		return report.NotAuthenticated[i].DisplayName() < report.NotAuthenticated[j].DisplayName()
	})
	return report, nil
}

// RefreshSummary tallies one nickname refresh pass.
type RefreshSummary struct {
	Refreshed int `json:"refreshed"`
	Renamed   int `json:"renamed"`
	Notified  int `json:"notified"`
	Errors    int `json:"errors"`
}

// RefreshNicknames refreshes every stored token, renames members whose
// character identity changed and DMs members whose token could not be
// refreshed. Per-member failures are logged and skipped.
func (s *Service) RefreshNicknames(ctx context.Context, guildID string) (RefreshSummary, error) {
	res, err := s.directory.Refresh(ctx)
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("refresh tokens: %w", err)
	}

	summary := RefreshSummary{Refreshed: len(res.Refreshed)}
	pacer := s.newPacer()

	for _, id := range res.Refreshed {
		renamed, err := s.rename(ctx, pacer, guildID, id)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			slog.ErrorContext(ctx, "failed to update nickname", "user_id", id.DiscordID, "error", err)
			summary.Errors++
			continue
		}
		if renamed {
			summary.Renamed++
		}
	}

	for _, userID := range res.Failed {
		m, err := s.dir.Member(ctx, guildID, userID)
		if err != nil {
			if !errors.Is(err, gateway.ErrNotFound) {
				slog.ErrorContext(ctx, "failed to resolve member for reauth notice", "user_id", userID, "error", err)
				summary.Errors++
			}
			continue
		}
		if err := s.msg.SendDirect(ctx, m.ID, ReauthDM(s.community)); err != nil {
			slog.WarnContext(ctx, "reauth DM refused", "user_id", m.ID, "error", err)
			continue
		}
		summary.Notified++
		s.audit.Record(ctx, event.New(event.TypeReauthRequested, event.LevelWarning, guildID,
			fmt.Sprintf("Sent reauth request to %s", m.Username)).WithSubject(m.ID))
	}
	return summary, nil
}

// Forget drops the SSO record of a member who left the guild. A member who
// never authenticated is not an error.
func (s *Service) Forget(ctx context.Context, guildID string, m member.Member) error {
	if m.Bot {
		return nil
	}
	if err := s.directory.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("forget auth record: %w", err)
	}
	s.audit.Record(ctx, event.Info(event.TypeAuthForgotten, guildID,
		fmt.Sprintf("Removed auth record for %s after leaving", m.Username)).WithSubject(m.ID))
	return nil
}

// rename sets the member's nickname when it differs from the character
// identity. Members who left the guild are skipped.
func (s *Service) rename(ctx context.Context, pacer *rate.Limiter, guildID string, id domainauth.Identity) (bool, error) {
	m, err := s.dir.Member(ctx, guildID, id.DiscordID)
	if errors.Is(err, gateway.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	nick := id.Nickname()
	if m.Nick == nick {
		return false, nil
	}
	if err := pacer.Wait(ctx); err != nil {
		return false, err
	}
	if err := s.nicks.SetNickname(ctx, guildID, m.ID, nick); err != nil {
		return false, fmt.Errorf("set nickname: %w", err)
	}

	s.audit.Record(ctx, event.Info(event.TypeNicknameUpdated, guildID,
		fmt.Sprintf("Updated nickname for %s: %s", m.Username, nick)).WithSubject(m.ID))
	s.metrics.NicknameUpdated()
	return true, nil
}

func (s *Service) newPacer() *rate.Limiter {
	if s.pace <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(s.pace), 1)
}
