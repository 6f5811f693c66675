// Package mcpapi provides a stateless MCP streamable-HTTP adapter exposing
// the task operations to agent clients.
package mcpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Brandtweary/cyberorganism/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// TaskService is the slice of the application service the MCP tools need.
type TaskService interface {
	CreateTask(ctx context.Context, content string, container domain.Container) (domain.Task, error)
	AddSubtask(ctx context.Context, parentID, content string) (domain.Task, error)
	CompleteTask(ctx context.Context, id string) (domain.Task, error)
	MoveTask(ctx context.Context, id string, container domain.Container) (domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter over the task service.
func NewHandler(cfg Config, tasks TaskService) (*Handler, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerTaskTools(mcpSrv, tasks)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// taskRow is the wire form of one task in tool results.
type taskRow struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Container string   `json:"container"`
	Status    string   `json:"status"`
	ParentID  string   `json:"parent_id,omitempty"`
	ChildIDs  []string `json:"child_ids,omitempty"`
}

func toTaskRow(t domain.Task) taskRow {
	return taskRow{
		ID:        t.ID,
		Content:   t.Content,
		Container: string(t.Container),
		Status:    string(t.Status),
		ParentID:  t.ParentID,
		ChildIDs:  t.ChildIDs,
	}
}

// registerTaskTools registers the list/create/complete/subtask/move tools.
func registerTaskTools(srv *mcpserver.MCPServer, tasks TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"cyberorganism.list_tasks",
			mcp.WithDescription("List tasks, optionally filtered to one container."),
			mcp.WithString("container", mcp.Description("taskpad|backburner|shelved|archived"),
				mcp.Enum("taskpad", "backburner", "shelved", "archived")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			all, err := tasks.ListTasks(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			filter := req.GetString("container", "")
			rows := make([]taskRow, 0, len(all))
			for _, t := range all {
				if filter != "" && string(t.Container) != filter {
					continue
				}
				rows = append(rows, toTaskRow(t))
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"tasks": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"cyberorganism.create_task",
			mcp.WithDescription("Create one top-level task."),
			mcp.WithString("content", mcp.Required(), mcp.Description("Task content")),
			mcp.WithString("container", mcp.Description("Target container, defaults to taskpad"),
				mcp.Enum("taskpad", "backburner", "shelved")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			content, err := req.RequireString("content")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			container := domain.Container(req.GetString("container", ""))
			task, err := tasks.CreateTask(ctx, content, container)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := mcp.NewToolResultJSON(toTaskRow(task))
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"cyberorganism.complete_task",
			mcp.WithDescription("Mark one task done and archive it."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.CompleteTask(ctx, taskID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := mcp.NewToolResultJSON(toTaskRow(task))
			if err != nil {
				return nil, fmt.Errorf("encode complete_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"cyberorganism.add_subtask",
			mcp.WithDescription("Create one task as a child of an existing task."),
			mcp.WithString("parent_id", mcp.Required(), mcp.Description("Parent task identifier")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Subtask content")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			parentID, err := req.RequireString("parent_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			content, err := req.RequireString("content")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.AddSubtask(ctx, parentID, content)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := mcp.NewToolResultJSON(toTaskRow(task))
			if err != nil {
				return nil, fmt.Errorf("encode add_subtask result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"cyberorganism.move_task",
			mcp.WithDescription("Move one task to another container."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("container", mcp.Required(), mcp.Description("Target container"),
				mcp.Enum("taskpad", "backburner", "shelved", "archived")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			containerRaw, err := req.RequireString("container")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			container, ok := domain.ParseContainer(containerRaw)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("invalid container %q", containerRaw)), nil
			}
			task, err := tasks.MoveTask(ctx, taskID, container)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := mcp.NewToolResultJSON(toTaskRow(task))
			if err != nil {
				return nil, fmt.Errorf("encode move_task result: %w", err)
			}
			return result, nil
		},
	)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "cyberorganism"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	return cfg
}
