package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/observ"
	portaudit "github.com/alanyang/threadkeeper/internal/port/audit"
	porteventbus "github.com/alanyang/threadkeeper/internal/port/eventbus"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"

	audithandler "github.com/alanyang/threadkeeper/internal/transport/audit"
	reminderhandler "github.com/alanyang/threadkeeper/internal/transport/reminder"
	taskhandler "github.com/alanyang/threadkeeper/internal/transport/task"
	wshandler "github.com/alanyang/threadkeeper/internal/transport/ws"
)

// Deps is everything the ops surface serves from. MCP and Health may be nil.
type Deps struct {
	Reminders *remindersvc.Service
	Audit     portaudit.Store
	Tasks     taskhandler.Runner
	Bus       porteventbus.EventBus
	Metrics   *observ.Metrics
	MCP       http.Handler
	// Health reports whether backing stores are reachable.
	Health func(ctx context.Context) error
	// APIKey guards /api and /mcp. Empty leaves only /healthz and /metrics.
	APIKey string
}

func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())

	r.GET("/healthz", healthz(d.Health))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	if d.APIKey == "" {
		slog.Warn("OPS_API_KEY not set; ops API and MCP endpoint disabled")
		return r
	}
	guard := APIKey(d.APIKey)

	api := r.Group("/api", guard)
	reminderhandler.Register(api.Group("/reminders"), d.Reminders)
	audithandler.Register(api.Group("/audit"), d.Audit)
	taskhandler.Register(api.Group("/tasks"), d.Tasks)

	hub := wshandler.NewHub()
	hub.Register(api.Group("/ws"))

	// One subscription per domain channel; the event type in the payload lets
	// clients filter.
	if d.Bus != nil {
		for _, ch := range event.Channels {
			if _, err := d.Bus.Subscribe(ctx, ch, func(_ context.Context, e event.Event) {
				hub.Broadcast(e)
			}); err != nil {
				slog.Error("failed to subscribe channel to WS hub", "channel", ch, "error", err)
			}
		}
	}

	if d.MCP != nil {
		r.Any("/mcp", guard, gin.WrapH(d.MCP))
	}
	return r
}

func healthz(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
