package config

import "time"

// AppConfig holds the global application configuration
type AppConfig struct {
	ContentDir        string         `yaml:"content_dir"`
	ContentExtensions []string       `yaml:"content_extensions,omitempty"` // e.g. [".mdx", ".md"]
	ExcludePatterns   []string       `yaml:"exclude_patterns,omitempty"`   // Regexes matched against <module>/<file> paths
	IncludeDrafts     bool           `yaml:"include_drafts,omitempty"`
	StateDir          string         `yaml:"state_dir"`
	StoreName         string         `yaml:"store_name,omitempty"` // Sub-directory for the progress/notes DB
	GCInterval        time.Duration  `yaml:"gc_interval,omitempty"`
	WatchInterval     time.Duration  `yaml:"watch_interval,omitempty"`
	Server            ServerConfig   `yaml:"server,omitempty"`
	MCP               MCPConfig      `yaml:"mcp,omitempty"`
	Chunking          ChunkingConfig `yaml:"chunking,omitempty"`
	Export            ExportConfig   `yaml:"export,omitempty"`
}

// ServerConfig holds settings for the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr,omitempty"`
	APIKey          string        `yaml:"api_key,omitempty"` // Empty disables bearer auth
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	IdleTimeout     time.Duration `yaml:"idle_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// MCPConfig holds settings for the MCP server
type MCPConfig struct {
	Transport string `yaml:"transport,omitempty"` // "stdio" or "sse"
	Port      int    `yaml:"port,omitempty"`
}

// ChunkingConfig holds settings for heading-aware chunking used by the export
type ChunkingConfig struct {
	MaxChunkSize      int    `yaml:"max_chunk_size,omitempty"` // Tokens
	ChunkOverlap      int    `yaml:"chunk_overlap,omitempty"`  // Tokens
	TokenizerEncoding string `yaml:"tokenizer_encoding,omitempty"`
}

// ExportConfig holds settings for the JSONL/YAML export
type ExportConfig struct {
	OutputDir        string `yaml:"output_dir,omitempty"`
	LessonsFilename  string `yaml:"lessons_filename,omitempty"`
	ChunksFilename   string `yaml:"chunks_filename,omitempty"`
	MetadataFilename string `yaml:"metadata_filename,omitempty"`
	EnableChunks     *bool  `yaml:"enable_chunks,omitempty"` // nil = enabled
}

// GetEffectiveEnableChunks determines whether the chunks file is written
func GetEffectiveEnableChunks(exportCfg ExportConfig) bool {
	if exportCfg.EnableChunks != nil {
		return *exportCfg.EnableChunks
	}
	return true
}

// GetEffectiveLessonsFilename determines the filename for the lessons JSONL export
func GetEffectiveLessonsFilename(exportCfg ExportConfig) string {
	if exportCfg.LessonsFilename != "" {
		return exportCfg.LessonsFilename
	}
	return "lessons.jsonl"
}

// GetEffectiveChunksFilename determines the filename for the chunks JSONL export
func GetEffectiveChunksFilename(exportCfg ExportConfig) string {
	if exportCfg.ChunksFilename != "" {
		return exportCfg.ChunksFilename
	}
	return "chunks.jsonl"
}

// GetEffectiveMetadataFilename determines the filename for the YAML export metadata
func GetEffectiveMetadataFilename(exportCfg ExportConfig) string {
	if exportCfg.MetadataFilename != "" {
		return exportCfg.MetadataFilename
	}
	return "metadata.yaml"
}
