// Package mcp exposes the reminder list as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/logger"
	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/recurrence"
	"github.com/julianstephens/remindr/internal/reminders"
)

// Server is the MCP server for reminder management.
type Server struct {
	mcpServer *server.MCPServer
	store     *reminders.Store
	now       func() time.Time
}

// reminderView is the JSON shape returned to MCP clients.
type reminderView struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Priority string     `json:"priority"`
	Repeat   string     `json:"repeat"`
	Done     bool       `json:"done"`
	Time     *time.Time `json:"time,omitempty"`
	Next     *time.Time `json:"next,omitempty"`
}

func NewServer(store *reminders.Store, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{store: store, now: now}

	s.mcpServer = server.NewMCPServer(
		constants.AppName,
		constants.Version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving requests on stdin and stdout.
func (s *Server) ServeStdio() error {
	logger.Info("MCP server listening on stdio")
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a reminder. Repeating reminders fire on an interval or at a time of day; others fire once at 'at'."),
			mcp.WithString("title", mcp.Required(), mcp.Description("What to be reminded about")),
			mcp.WithString("priority", mcp.Description("Priority: low, medium, high (default: medium)")),
			mcp.WithString("repeat", mcp.Description("none, every_x_minutes, every_x_hours, daily or weekly (default: none)")),
			mcp.WithString("every", mcp.Description("Whole number interval for every_x_minutes and every_x_hours")),
			mcp.WithString("days", mcp.Description("Weekdays for weekly reminders, e.g. mon,wed,fri")),
			mcp.WithString("at", mcp.Description("HH:MM, 'YYYY-MM-DD HH:MM' or RFC3339. Required when repeat is none")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders, most recent first"),
			mcp.WithString("filter", mcp.Description("all, active or done (default: all)")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("toggle_reminder",
			mcp.WithDescription("Mark a reminder done, or active again if it is already done"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique prefix")),
		),
		s.handleToggleReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique prefix")),
		),
		s.handleDeleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("describe_reminder",
			mcp.WithDescription("Describe a reminder's repeat policy and the notifications it schedules"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique prefix")),
		),
		s.handleDescribeReminder,
	)
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := models.ParseMode(req.GetString("repeat", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := recurrence.Input{
		Title:       req.GetString("title", ""),
		Priority:    req.GetString("priority", ""),
		Mode:        mode,
		IntervalRaw: req.GetString("every", ""),
	}
	if days := req.GetString("days", ""); days != "" {
		if in.SelectedDays, err = cli.ParseWeekdays(days); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if at := req.GetString("at", ""); at != "" {
		if in.Time, err = cli.ParseWhen(at, s.now()); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else if mode != models.ModeNone {
		in.Time = s.now()
	}

	p, err := recurrence.Build(in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.store.Reload(ctx)
	r := s.store.Add(ctx, p)
	return jsonResult(s.view(r))
}

func (s *Server) handleListReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := reminders.ParseFilter(req.GetString("filter", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.store.Reload(ctx)
	list := s.store.List(f)
	if len(list) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}

	views := make([]reminderView, 0, len(list))
	for _, r := range list {
		views = append(views, s.view(r))
	}
	return jsonResult(views)
}

func (s *Server) handleToggleReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, errResult := s.resolve(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	updated, ok := s.store.ToggleDone(ctx, r.ID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("reminder not found: %s", r.ID)), nil
	}
	return jsonResult(s.view(updated))
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, errResult := s.resolve(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	if !s.store.Delete(ctx, r.ID) {
		return mcp.NewToolResultError(fmt.Sprintf("reminder not found: %s", r.ID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", r.ID)), nil
}

func (s *Server) handleDescribeReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, errResult := s.resolve(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s priority): %s\n", r.Title, r.Priority, recurrence.Describe(r))

	plan, err := recurrence.Plan(r, s.now())
	switch {
	case err != nil:
		fmt.Fprintf(&b, "No notifications would be scheduled: %v\n", err)
	default:
		for _, in := range plan {
			fmt.Fprintf(&b, "- %s\n", in.Trigger)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// resolve reloads the list and looks up the requested id.
func (s *Server) resolve(ctx context.Context, req mcp.CallToolRequest) (models.Reminder, *mcp.CallToolResult) {
	s.store.Reload(ctx)
	r, err := cli.ResolveID(s.store.List(reminders.FilterAll), req.GetString("id", ""))
	if err != nil {
		return models.Reminder{}, mcp.NewToolResultError(err.Error())
	}
	return r, nil
}

func (s *Server) view(r models.Reminder) reminderView {
	v := reminderView{
		ID:       r.ID,
		Title:    r.Title,
		Priority: string(r.Priority),
		Repeat:   recurrence.Describe(r),
		Done:     r.Done,
		Time:     r.Time,
	}
	if !r.Done {
		if next, ok := recurrence.NextOccurrence(r, s.now()); ok {
			v.Next = &next
		}
	}
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(output)), nil
}
