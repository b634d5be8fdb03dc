package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecourse/course-content/pkg/utils"
)

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAppConfig_Validate_RequiresContentDir(t *testing.T) {
	cfg := AppConfig{}
	_, err := cfg.Validate()

	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfigValidation))
	assert.Contains(t, err.Error(), "content_dir")
}

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{ContentDir: "./content"}
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	assert.Equal(t, []string{".mdx", ".md"}, cfg.ContentExtensions)
	assert.Equal(t, "./course_state", cfg.StateDir)
	assert.Equal(t, "progress_db", cfg.StoreName)
	assert.Equal(t, 10*time.Minute, cfg.GCInterval)
	assert.Equal(t, time.Duration(0), cfg.WatchInterval)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "stdio", cfg.MCP.Transport)
	assert.Equal(t, 8081, cfg.MCP.Port)

	assert.Equal(t, 512, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 0, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, "cl100k_base", cfg.Chunking.TokenizerEncoding)

	assert.Equal(t, "./course_export", cfg.Export.OutputDir)

	assert.True(t, containsWarning(warnings, "state_dir is empty"))
}

func TestAppConfig_Validate_PreservesValues(t *testing.T) {
	cfg := AppConfig{
		ContentDir:    "/srv/content",
		StateDir:      "/srv/state",
		StoreName:     "progress",
		GCInterval:    time.Hour,
		WatchInterval: 30 * time.Second,
		Server:        ServerConfig{Addr: "127.0.0.1:9000", APIKey: "secret"},
		MCP:           MCPConfig{Transport: "sse", Port: 9100},
		Chunking:      ChunkingConfig{MaxChunkSize: 256, ChunkOverlap: 32, TokenizerEncoding: "o200k_base"},
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "/srv/state", cfg.StateDir)
	assert.Equal(t, "progress", cfg.StoreName)
	assert.Equal(t, time.Hour, cfg.GCInterval)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, "sse", cfg.MCP.Transport)
	assert.Equal(t, 9100, cfg.MCP.Port)
	assert.Equal(t, 256, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 32, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, "o200k_base", cfg.Chunking.TokenizerEncoding)
}

func TestAppConfig_Validate_NormalizesExtensions(t *testing.T) {
	cfg := AppConfig{ContentDir: "c", StateDir: "s", ContentExtensions: []string{"MDX", " .md ", ""}}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, []string{".mdx", ".md"}, cfg.ContentExtensions)
	assert.True(t, containsWarning(warnings, "empty entry"))
	assert.True(t, cfg.IsContentExtension(".MDX"))
	assert.False(t, cfg.IsContentExtension(".txt"))
}

func TestAppConfig_Validate_InvalidExcludePattern(t *testing.T) {
	cfg := AppConfig{ContentDir: "c", ExcludePatterns: []string{"[broken"}}

	_, err := cfg.Validate()

	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfigValidation))
}

func TestAppConfig_Validate_NegativeDurations(t *testing.T) {
	cfg := AppConfig{ContentDir: "c", StateDir: "s", GCInterval: -time.Second, WatchInterval: -time.Minute}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.GCInterval)
	assert.Equal(t, time.Duration(0), cfg.WatchInterval)
	assert.True(t, containsWarning(warnings, "gc_interval cannot be negative"))
	assert.True(t, containsWarning(warnings, "watch_interval cannot be negative"))
}

func TestAppConfig_Validate_TinyWatchInterval(t *testing.T) {
	cfg := AppConfig{ContentDir: "c", StateDir: "s", WatchInterval: 10 * time.Millisecond}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.WatchInterval)
	assert.True(t, containsWarning(warnings, "below 1s"))
}

func TestAppConfig_Validate_UnsafeStoreName(t *testing.T) {
	cfg := AppConfig{ContentDir: "c", StateDir: "s", StoreName: "../escape"}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.NotContains(t, cfg.StoreName, "/")
	assert.True(t, containsWarning(warnings, "not a safe directory name"))
}

func TestAppConfig_Validate_MCPTransport(t *testing.T) {
	cfg := AppConfig{ContentDir: "c", StateDir: "s", MCP: MCPConfig{Transport: "websocket", Port: 70000}}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
	assert.Equal(t, 8081, cfg.MCP.Port)
	assert.True(t, containsWarning(warnings, "mcp.transport"))
}

func TestAppConfig_Validate_ChunkOverlapTooLarge(t *testing.T) {
	cfg := AppConfig{ContentDir: "c", StateDir: "s", Chunking: ChunkingConfig{MaxChunkSize: 100, ChunkOverlap: 150}}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Chunking.ChunkOverlap)
	assert.True(t, containsWarning(warnings, "chunk_overlap"))
}
