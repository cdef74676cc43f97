package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alanyang/threadkeeper/internal/observ"
	portclaim "github.com/alanyang/threadkeeper/internal/port/claim"
)

const unexpectedReply = "⚠️ An unexpected error occurred."

type HandlerFunc func(ctx context.Context, inv Invocation) Reply

// Route binds a command name to its handler. A positive Cooldown limits each
// user to one use per window.
type Route struct {
	Name     string
	Cooldown time.Duration
	Handle   HandlerFunc
}

// Router is the interaction dispatch table.
type Router struct {
	routes  map[string]Route
	ledger  portclaim.Ledger
	metrics *observ.Metrics
}

// NewRouter builds an empty table. Cooldowns are skipped when ledger is nil.
func NewRouter(ledger portclaim.Ledger, metrics *observ.Metrics) *Router {
	return &Router{routes: make(map[string]Route), ledger: ledger, metrics: metrics}
}

func (r *Router) Handle(route Route) {
	r.routes[route.Name] = route
}

// Names lists the routed commands in name order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.routes))
	for n := range r.routes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the route for inv.Command. It never panics and always
// produces a reply.
func (r *Router) Dispatch(ctx context.Context, inv Invocation) (reply Reply) {
	route, ok := r.routes[inv.Command]
	if !ok {
		slog.WarnContext(ctx, "unknown command", "command", inv.Command)
		r.metrics.Command(inv.Command, "unknown")
		return Text(unexpectedReply)
	}

	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "command panicked", "command", inv.Command, "user_id", inv.Actor.ID, "panic", p)
			r.metrics.Command(inv.Command, "panic")
			reply = Text(unexpectedReply)
		}
	}()

	if wait, limited := r.cooldown(ctx, route, inv.Actor.ID); limited {
		r.metrics.Command(inv.Command, "cooldown")
		return Text(CooldownMessage(wait))
	}

	reply = route.Handle(ctx, inv)
	if err := reply.Err(); err != nil {
		slog.ErrorContext(ctx, "command failed", "command", inv.Command, "user_id", inv.Actor.ID, "error", err)
		r.metrics.Command(inv.Command, "error")
		return reply
	}
	r.metrics.Command(inv.Command, "ok")
	return reply
}

// cooldown claims the user's slot for the route. A ledger failure lets the
// command through.
func (r *Router) cooldown(ctx context.Context, route Route, userID string) (time.Duration, bool) {
	if r.ledger == nil || route.Cooldown <= 0 {
		return 0, false
	}
	granted, remaining, err := r.ledger.Claim(ctx, CooldownKey(route.Name, userID), route.Cooldown)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check cooldown", "command", route.Name, "user_id", userID, "error", err)
		return 0, false
	}
	return remaining, !granted
}

func CooldownKey(command, userID string) string {
	return "cooldown:" + command + ":" + userID
}

// CooldownMessage renders the wait in whole minutes and seconds, rounding
// partial seconds down.
func CooldownMessage(wait time.Duration) string {
	secs := int(wait / time.Second)
	return fmt.Sprintf("⏳ You can use this command again in **%dm %ds**.", secs/60, secs%60)
}
