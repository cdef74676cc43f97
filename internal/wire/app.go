package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	discordadapter "github.com/alanyang/threadkeeper/internal/adapter/discord"
	"github.com/alanyang/threadkeeper/internal/adapter/memory"
	pgdb "github.com/alanyang/threadkeeper/internal/adapter/postgres"
	pgaudit "github.com/alanyang/threadkeeper/internal/adapter/postgres/audit"
	pgclaims "github.com/alanyang/threadkeeper/internal/adapter/postgres/claims"
	pgeventbus "github.com/alanyang/threadkeeper/internal/adapter/postgres/eventbus"
	pglocker "github.com/alanyang/threadkeeper/internal/adapter/postgres/locker"
	redisadapter "github.com/alanyang/threadkeeper/internal/adapter/redis"
	"github.com/alanyang/threadkeeper/internal/adapter/workerapi"

	"github.com/alanyang/threadkeeper/internal/config"
	"github.com/alanyang/threadkeeper/internal/domain/role"
	domainthread "github.com/alanyang/threadkeeper/internal/domain/thread"
	"github.com/alanyang/threadkeeper/internal/observ"
	portaudit "github.com/alanyang/threadkeeper/internal/port/audit"
	portclaim "github.com/alanyang/threadkeeper/internal/port/claim"
	porteventbus "github.com/alanyang/threadkeeper/internal/port/eventbus"
	portlocker "github.com/alanyang/threadkeeper/internal/port/locker"
	"github.com/alanyang/threadkeeper/internal/scheduler"

	auditsvc "github.com/alanyang/threadkeeper/internal/service/audit"
	authsvc "github.com/alanyang/threadkeeper/internal/service/auth"
	greetersvc "github.com/alanyang/threadkeeper/internal/service/greeter"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
	threadsvc "github.com/alanyang/threadkeeper/internal/service/thread"

	"github.com/alanyang/threadkeeper/internal/transport"
	discordtransport "github.com/alanyang/threadkeeper/internal/transport/discord"
	mcptransport "github.com/alanyang/threadkeeper/internal/transport/mcp"
)

// Version is stamped at build time.
var Version = "dev"

// App holds the top-level resources needed to run and gracefully stop the bot.
type App struct {
	Config    config.Config
	Session   *discordgo.Session
	Bot       *discordtransport.Bot
	Server    *http.Server
	Runner    *scheduler.Runner
	Reminders *remindersvc.Service
	Auth      *authsvc.Service
	Metrics   *observ.Metrics

	pool    *pgxpool.Pool
	redis   *goredis.Client
	closers []func()
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies. Postgres and Redis are optional; without them the
// in-process adapters take their place.
func Build(ctx context.Context, cfg config.Config) (_ *App, err error) {
	app := &App{Config: cfg, Metrics: observ.NewMetrics()}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// ── Stores ────────────────────────────────────────────────────────────────
	var (
		auditStore portaudit.Store           = memory.NewAuditLog(memory.DefaultAuditCapacity)
		bus        porteventbus.EventBus     = memory.NewEventBus()
		locker     portlocker.AdvisoryLocker = memory.NewLocker()
		ledger     portclaim.Ledger          = memory.NewClaims()
		purger     claimPurger
	)

	if cfg.DatabaseURL != "" {
		pool, err := pgdb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		app.pool = pool
		app.closers = append(app.closers, pool.Close)
		if err := pgdb.Migrate(ctx, pool); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}

		pgBus := pgeventbus.New(pool)
		app.closers = append(app.closers, pgBus.Close)
		auditStore = pgaudit.New(pool)
		bus = pgBus
		locker = pglocker.New(pool)
		pgLedger := pgclaims.New(pool)
		ledger = pgLedger
		purger = pgLedger
		slog.Info("postgres configured", "audit", "postgres", "events", "listen/notify", "locks", "advisory")
	}

	if cfg.RedisURL != "" {
		client, err := redisadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		app.redis = client
		app.closers = append(app.closers, func() { client.Close() })
		ledger = redisadapter.NewClaims(client)
		purger = nil
		slog.Info("redis configured", "claims", "redis")
	}

	// ── Adapters ──────────────────────────────────────────────────────────────
	worker := workerapi.New(cfg.WorkerAPIURL, cfg.WorkerAPIKey, cfg.APITimeout)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	app.Session = session
	gw := discordadapter.NewGateway(session)

	// ── Services ──────────────────────────────────────────────────────────────
	gate := role.NewGate(cfg.RecruiterRoleID, cfg.DirectorRoleID)
	relay := auditsvc.NewRelay(gw, cfg.BotLogsChannelID, auditStore, bus)

	kinds := domainthread.DefaultKinds.WithCooldowns(map[domainthread.Kind]time.Duration{
		domainthread.KindRecruitment: cfg.RecruitCooldown,
		domainthread.KindOfficer:     cfg.OfficerCooldown,
	})
	threads := threadsvc.NewService(gw, gw, gw, gate, relay, threadsvc.Settings{
		Pace:        cfg.MemberPace,
		Kinds:       kinds,
		AuthSiteURL: cfg.AuthSiteURL,
		Metrics:     app.Metrics,
	})
	app.Reminders = remindersvc.NewService(worker.Reminders(), gw, gw, ledger, gate, relay, remindersvc.Settings{
		Metrics: app.Metrics,
	})
	app.Auth = authsvc.NewService(worker.Auth(), gw, gw, gw, gate, relay, authsvc.Settings{
		Pace:          authsvc.DefaultPace,
		CommunityName: cfg.CommunityName,
		Metrics:       app.Metrics,
	})
	greeter := greetersvc.NewService(gw, gw, relay, cfg.WelcomeChannelName, cfg.CommunityName)

	// ── Scheduler ─────────────────────────────────────────────────────────────
	app.Runner = scheduler.NewRunner(locker, app.Metrics)
	if err := registerTasks(app.Runner, cfg, app.Reminders, app.Auth, purger); err != nil {
		return nil, err
	}

	// ── Transport ─────────────────────────────────────────────────────────────
	router := discordtransport.NewRouter(ledger, app.Metrics)
	discordtransport.NewHandlers(threads, app.Reminders, app.Auth).Register(router)
	app.Bot = discordtransport.NewBot(session, cfg.GuildID, router, greeter, app.Auth)

	mcpServer := mcptransport.New(Version, app.Reminders, auditStore, app.Runner)
	ops := transport.NewRouter(ctx, transport.Deps{
		Reminders: app.Reminders,
		Audit:     auditStore,
		Tasks:     app.Runner,
		Bus:       bus,
		Metrics:   app.Metrics,
		MCP:       mcpServer.Handler(),
		Health:    app.health,
		APIKey:    cfg.OpsAPIKey,
	})
	app.Server = &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           ops,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("application wired", "guild_id", cfg.GuildID, "ops_addr", cfg.OpsAddr, "tasks", app.Runner.Names())
	return app, nil
}

// health pings whichever backing stores are configured.
func (a *App) health(ctx context.Context) error {
	var errs []error
	if a.pool != nil {
		if err := a.pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases stores in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
