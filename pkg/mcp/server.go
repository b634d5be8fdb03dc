// Package mcp exposes the course catalog, learner progress and the export job
// runner as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/tradecourse/course-content/pkg/catalog"
	"github.com/tradecourse/course-content/pkg/config"
	"github.com/tradecourse/course-content/pkg/models"
)

const (
	serverName    = "course-content"
	serverVersion = "1.0.0"
)

// ContentSource hands out the current content snapshot
type ContentSource interface {
	Snapshot() (*catalog.Snapshot, error)
}

// ProgressReader is the read side of the progress store used by the tools
type ProgressReader interface {
	ListProgress(ctx context.Context, userID string) ([]models.ProgressEntry, error)
}

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig *config.AppConfig
	Content   ContentSource
	Progress  ProgressReader // Optional; get_progress is not registered without it
	Transport string         // "stdio" or "sse"
	Port      int
	Logger    *logrus.Entry
}

// Server wraps the MCP server with course-specific tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Content == nil {
		return nil, errors.New("content source is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	count := 0
	add := func(tool mcp.Tool, handler server.ToolHandlerFunc) {
		s.mcpServer.AddTool(tool, handler)
		count++
	}

	add(mcp.NewTool("list_modules",
		mcp.WithDescription("List course modules with their lessons in display order"),
	), s.handleListModules)

	add(mcp.NewTool("get_lesson",
		mcp.WithDescription("Get a lesson's front matter, headings, navigation and raw content"),
		mcp.WithString("module", mcp.Required(), mcp.Description("Module slug")),
		mcp.WithString("lesson", mcp.Required(), mcp.Description("Lesson slug")),
		mcp.WithBoolean("include_content", mcp.Description("Include the raw lesson body (default: true)")),
	), s.handleGetLesson)

	add(mcp.NewTool("search_lessons",
		mcp.WithDescription("Search lesson titles, headings and text (case-insensitive substring match)"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithString("module", mcp.Description("Limit search to one module (optional)")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results to return (default: 10, max: 100)")),
	), s.handleSearchLessons)

	if s.cfg.Progress != nil {
		add(mcp.NewTool("get_progress",
			mcp.WithDescription("Get a learner's lesson progress and per-module completion"),
			mcp.WithString("user", mcp.Required(), mcp.Description("User ID")),
			mcp.WithString("module", mcp.Description("Limit to one module (optional)")),
		), s.handleGetProgress)
	}

	add(mcp.NewTool("export_course",
		mcp.WithDescription("Start a background export of all lessons to JSONL. Returns immediately with a job ID."),
	), s.handleExportCourse)

	add(mcp.NewTool("get_export_status",
		mcp.WithDescription("Get the status of an export job"),
		mcp.WithString("job_id", mcp.Required(), mcp.Description("The job ID returned by export_course")),
	), s.handleGetExportStatus)

	s.log.Infof("Registered %d MCP tools", count)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown cancels running export jobs
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
