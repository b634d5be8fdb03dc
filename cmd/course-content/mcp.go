package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tradecourse/course-content/pkg/mcp"
	"github.com/tradecourse/course-content/pkg/storage"
)

// runMcpServer handles the mcp-server subcommand
func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	transport := fs.String("transport", "", "Transport type (stdio, sse); defaults to mcp.transport")
	port := fs.Int("port", 0, "HTTP port for sse transport; defaults to mcp.port")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: course-content mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport
  course-content mcp-server -config config.yaml

  # Start with SSE transport on port 8081
  course-content mcp-server -config config.yaml -transport sse -port 8081

Available MCP Tools:
  list_modules       List modules and lessons in display order
  get_lesson         Get a lesson's front matter, headings and content
  search_lessons     Search lesson titles, headings and text
  get_progress       Get a learner's progress (needs the progress DB)
  export_course      Start a background JSONL export
  get_export_status  Check an export job
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doMcpServer(*configFile, *transport, *port, *logLevel, os.Stderr))
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath, transport string, port int, logLevel string, stderr io.Writer) int {
	// MCP protocol uses stdout, logs go to stderr
	log := setupLogger(logLevel, stderr)

	appCfg, err := loadAndValidateConfig(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if transport == "" {
		transport = appCfg.MCP.Transport
	}
	if port <= 0 {
		port = appCfg.MCP.Port
	}

	cat, _, err := openCatalog(context.Background(), appCfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading content: %v\n", err)
		return 1
	}

	serverCfg := &mcp.ServerConfig{
		AppConfig: appCfg,
		Content:   cat,
		Transport: transport,
		Port:      port,
		Logger:    log.WithField("component", "mcp"),
	}

	// The progress DB is single-writer; when serve holds it the progress tool is left out
	store, err := storage.NewBadgerStore(appCfg.StateDir, appCfg.StoreName, log.WithField("component", "storage"))
	if err != nil {
		log.Warnf("Progress DB unavailable, get_progress disabled: %v", err)
	} else {
		defer store.Close()
		serverCfg.Progress = store
	}

	server, err := mcp.NewServer(serverCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}
	defer server.Shutdown(context.Background())

	log.Infof("Starting MCP server (transport: %s)", transport)
	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}
