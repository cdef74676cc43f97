package wire

import (
	"context"
	"log/slog"

	"github.com/alanyang/threadkeeper/internal/config"
	"github.com/alanyang/threadkeeper/internal/scheduler"
	authsvc "github.com/alanyang/threadkeeper/internal/service/auth"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
)

// Periodic task names, also the path segment of POST /api/tasks/:name/run.
const (
	TaskDuePoll   = "due-poll"
	TaskRetention = "retention"
	TaskNicknames = "nicknames"
)

// claimPurger is a claims ledger whose expired rows must be deleted
// explicitly. Redis and the in-memory ledger expire on their own.
type claimPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// registerTasks adds the three periodic jobs. Retention runs on RETENTION_CRON
// when set and on a fixed interval otherwise. purger may be nil.
func registerTasks(runner *scheduler.Runner, cfg config.Config, reminders *remindersvc.Service, auth *authsvc.Service, purger claimPurger) error {
	retention := scheduler.Task{Name: TaskRetention, Run: retentionSweep(reminders, purger)}
	if cfg.RetentionCron != "" {
		retention.Cron = cfg.RetentionCron
	} else {
		retention.Every = cfg.RetentionEvery
	}

	for _, t := range []scheduler.Task{
		{Name: TaskDuePoll, Every: cfg.DuePollEvery, Run: duePoll(reminders)},
		retention,
		{Name: TaskNicknames, Every: cfg.NicknameRefreshEvery, Run: refreshNicknames(auth, cfg.GuildID)},
	} {
		if err := runner.Add(t); err != nil {
			return err
		}
	}
	return nil
}

// retentionSweep expires old reminders, then drops stale claims. A failed
// purge is logged and does not fail the run.
func retentionSweep(reminders *remindersvc.Service, purger claimPurger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := reminders.RetentionSweep(ctx); err != nil {
			return err
		}
		if purger == nil {
			return nil
		}
		n, err := purger.Purge(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to purge expired claims", "error", err)
			return nil
		}
		if n > 0 {
			slog.InfoContext(ctx, "purged expired claims", "count", n)
		}
		return nil
	}
}

func duePoll(reminders *remindersvc.Service) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res, err := reminders.DuePoll(ctx)
		if err != nil {
			return err
		}
		if res.Due > 0 {
			slog.InfoContext(ctx, "due poll finished",
				"due", res.Due, "channel", res.Channel, "direct", res.Direct,
				"failed", res.Failed, "skipped", res.Skipped, "orphaned", res.Orphaned)
		}
		return nil
	}
}

func refreshNicknames(auth *authsvc.Service, guildID string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sum, err := auth.RefreshNicknames(ctx, guildID)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "nickname refresh finished",
			"refreshed", sum.Refreshed, "renamed", sum.Renamed, "notified", sum.Notified, "errors", sum.Errors)
		return nil
	}
}
