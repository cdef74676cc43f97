package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	portaudit "github.com/alanyang/threadkeeper/internal/port/audit"
	"github.com/alanyang/threadkeeper/internal/scheduler"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
)

const (
	defaultAuditLimit = 20
	maxAuditLimit     = 200
)

// TaskRunner runs a periodic task on demand.
type TaskRunner interface {
	Names() []string
	RunNow(ctx context.Context, name string) error
}

func RegisterTools(s *mcpserver.MCPServer, reminders *remindersvc.Service, audit portaudit.Store, tasks TaskRunner) {
	s.AddTool(mcpmcp.NewTool("list_reminders",
		mcpmcp.WithDescription("List every pending reminder in a guild, oldest due first."),
		mcpmcp.WithString("guild_id", mcpmcp.Required(), mcpmcp.Description("Guild snowflake")),
	), listRemindersHandler(reminders))

	s.AddTool(mcpmcp.NewTool("recent_audit",
		mcpmcp.WithDescription("Return the most recent audit events, newest first."),
		mcpmcp.WithNumber("limit", mcpmcp.Description("Maximum events to return (default 20, max 200)")),
	), recentAuditHandler(audit))

	s.AddTool(mcpmcp.NewTool("run_task",
		mcpmcp.WithDescription("Run one pass of a periodic task now and wait for it: "+strings.Join(tasks.Names(), ", ")+"."),
		mcpmcp.WithString("name", mcpmcp.Required(), mcpmcp.Description("Task name")),
	), runTaskHandler(tasks))
}

// ── Tool handlers ─────────────────────────────────────────────────────────

func listRemindersHandler(reminders *remindersvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		guildID := mcpmcp.ParseString(req, "guild_id", "")
		if guildID == "" {
			return mcpmcp.NewToolResultText("error: guild_id is required"), nil
		}
		rs, err := reminders.ListAll(ctx, guildID)
		if err != nil {
			return mcpmcp.NewToolResultText("error: " + err.Error()), nil
		}
		return jsonResult(rs)
	}
}

func recentAuditHandler(audit portaudit.Store) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		limit := mcpmcp.ParseInt(req, "limit", defaultAuditLimit)
		if limit < 1 {
			return mcpmcp.NewToolResultText("error: limit must be positive"), nil
		}
		events, err := audit.Recent(ctx, min(limit, maxAuditLimit))
		if err != nil {
			return mcpmcp.NewToolResultText("error: " + err.Error()), nil
		}
		return jsonResult(events)
	}
}

func runTaskHandler(tasks TaskRunner) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		name := mcpmcp.ParseString(req, "name", "")
		err := tasks.RunNow(ctx, name)
		switch {
		case err == nil:
			return mcpmcp.NewToolResultText("ok: " + name + " completed"), nil
		case errors.Is(err, scheduler.ErrUnknownTask):
			return mcpmcp.NewToolResultText("error: unknown task " + name + " (one of: " + strings.Join(tasks.Names(), ", ") + ")"), nil
		case errors.Is(err, scheduler.ErrBusy):
			return mcpmcp.NewToolResultText("error: " + name + " is already running"), nil
		default:
			return mcpmcp.NewToolResultText("error: " + err.Error()), nil
		}
	}
}

func jsonResult(v any) (*mcpmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcpmcp.NewToolResultText(string(data)), nil
}
