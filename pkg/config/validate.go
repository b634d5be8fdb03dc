package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tradecourse/course-content/pkg/utils"
)

// DefaultContentExtensions are the file extensions treated as lessons when none are configured.
var DefaultContentExtensions = []string{".mdx", ".md"}

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Required: ContentDir
	if strings.TrimSpace(c.ContentDir) == "" {
		return nil, fmt.Errorf("%w: content_dir is required", utils.ErrConfigValidation)
	}

	// ContentExtensions normalization
	if len(c.ContentExtensions) == 0 {
		c.ContentExtensions = append([]string(nil), DefaultContentExtensions...)
	} else {
		normalized := make([]string, 0, len(c.ContentExtensions))
		for _, ext := range c.ContentExtensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				warnings = append(warnings, "content_extensions contains an empty entry, ignoring it")
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			normalized = append(normalized, ext)
		}
		if len(normalized) == 0 {
			warnings = append(warnings, "content_extensions has no usable entries, defaulting to [.mdx .md]")
			normalized = append(normalized, DefaultContentExtensions...)
		}
		c.ContentExtensions = normalized
	}

	// ExcludePatterns must compile
	if _, errCompile := utils.CompileRegexPatterns(c.ExcludePatterns); errCompile != nil {
		return nil, errCompile
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './course_state'")
		c.StateDir = "./course_state"
	}

	// StoreName
	if c.StoreName == "" {
		c.StoreName = "progress_db"
	} else if sanitized := utils.SanitizeFilename(c.StoreName); sanitized != c.StoreName {
		warnings = append(warnings, fmt.Sprintf("store_name %q is not a safe directory name, using %q", c.StoreName, sanitized))
		c.StoreName = sanitized
	}

	// GCInterval
	if c.GCInterval < 0 {
		warnings = append(warnings, "gc_interval cannot be negative, defaulting to 10m")
		c.GCInterval = 0
	}
	if c.GCInterval == 0 {
		c.GCInterval = 10 * time.Minute
	}

	// WatchInterval (0 = no watching)
	if c.WatchInterval < 0 {
		warnings = append(warnings, "watch_interval cannot be negative, disabling content watching")
		c.WatchInterval = 0
	}
	if c.WatchInterval > 0 && c.WatchInterval < time.Second {
		warnings = append(warnings, fmt.Sprintf("watch_interval (%v) is below 1s, using 1s", c.WatchInterval))
		c.WatchInterval = time.Second
	}

	c.validateServerSettings()
	warnings = append(warnings, c.validateMCPSettings()...)
	warnings = append(warnings, c.validateChunkingSettings()...)
	c.validateExportSettings()

	return warnings, nil
}

// validateServerSettings applies defaults to HTTP server settings.
func (c *AppConfig) validateServerSettings() {
	s := &c.Server
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = 15 * time.Second
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = 30 * time.Second
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = 60 * time.Second
	}
	if s.ShutdownTimeout <= 0 {
		s.ShutdownTimeout = 10 * time.Second
	}
}

// validateMCPSettings applies defaults to MCP settings.
func (c *AppConfig) validateMCPSettings() (warnings []string) {
	m := &c.MCP
	switch m.Transport {
	case "":
		m.Transport = "stdio"
	case "stdio", "sse":
	default:
		warnings = append(warnings, fmt.Sprintf("mcp.transport %q is not supported, defaulting to 'stdio'", m.Transport))
		m.Transport = "stdio"
	}
	if m.Port <= 0 || m.Port > 65535 {
		m.Port = 8081
	}
	return warnings
}

// validateChunkingSettings applies defaults to chunking settings.
func (c *AppConfig) validateChunkingSettings() (warnings []string) {
	ch := &c.Chunking
	if ch.MaxChunkSize <= 0 {
		ch.MaxChunkSize = 512
	}
	if ch.ChunkOverlap < 0 {
		warnings = append(warnings, "chunking.chunk_overlap cannot be negative, setting to 0")
		ch.ChunkOverlap = 0
	}
	if ch.ChunkOverlap >= ch.MaxChunkSize {
		warnings = append(warnings, fmt.Sprintf(
			"chunking.chunk_overlap (%d) >= max_chunk_size (%d), using %d",
			ch.ChunkOverlap, ch.MaxChunkSize, ch.MaxChunkSize/10))
		ch.ChunkOverlap = ch.MaxChunkSize / 10
	}
	if ch.TokenizerEncoding == "" {
		ch.TokenizerEncoding = "cl100k_base"
	}
	return warnings
}

// validateExportSettings applies defaults to export settings.
func (c *AppConfig) validateExportSettings() {
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "./course_export"
	}
}

// IsContentExtension reports whether ext (with leading dot) is configured as a lesson file extension.
func (c *AppConfig) IsContentExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range c.ContentExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
