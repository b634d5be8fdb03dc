package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tradecourse/course-content/pkg/catalog"
	"github.com/tradecourse/course-content/pkg/content"
	"github.com/tradecourse/course-content/pkg/export"
	"github.com/tradecourse/course-content/pkg/index"
	"github.com/tradecourse/course-content/pkg/storage"
)

const snippetLength = 150

// handleListModules handles the list_modules tool
func (s *Server) handleListModules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.cfg.Content.Snapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	modules := make([]map[string]any, 0, len(snap.Modules))
	for _, m := range snap.Modules {
		lessons := make([]map[string]any, 0, len(m.Lessons))
		for _, l := range m.Lessons {
			entry := map[string]any{"slug": l.Slug, "title": l.Title, "depth": l.Depth}
			if l.Orphan {
				entry["orphan"] = true
			}
			lessons = append(lessons, entry)
		}
		modules = append(modules, map[string]any{
			"slug":    m.Slug,
			"title":   m.Title,
			"badge":   m.Badge,
			"lessons": lessons,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]any{
		"modules":       modules,
		"total_modules": len(modules),
		"loaded_at":     snap.LoadedAt.Format(time.RFC3339),
	})), nil
}

// handleGetLesson handles the get_lesson tool
func (s *Server) handleGetLesson(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	moduleSlug := request.GetString("module", "")
	lessonSlug := request.GetString("lesson", "")
	if moduleSlug == "" || lessonSlug == "" {
		return mcp.NewToolResultError("module and lesson parameters are required"), nil
	}
	includeContent := request.GetBool("include_content", true)

	snap, err := s.cfg.Content.Snapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	lc, err := snap.Loader.LoadLessonContent(moduleSlug, lessonSlug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load lesson: %v", err)), nil
	}
	if lc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("lesson '%s/%s' not found", moduleSlug, lessonSlug)), nil
	}

	result := map[string]any{
		"module":      lc.Module,
		"lesson":      lc.Lesson,
		"frontmatter": lc.FrontMatter,
		"headings":    lc.Headings,
	}
	if nav, ok := snap.Loader.Navigation(moduleSlug, lessonSlug); ok {
		result["navigation"] = nav
	}
	if includeContent {
		result["content"] = lc.Content
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchLessons handles the search_lessons tool
func (s *Server) handleSearchLessons(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	moduleFilter := request.GetString("module", "")
	maxResults := request.GetInt("max_results", 10)
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	snap, err := s.cfg.Content.Snapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if moduleFilter != "" {
		if _, ok := index.FindModule(snap.Modules, moduleFilter); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("module '%s' not found", moduleFilter)), nil
		}
	}

	results := s.searchLessons(ctx, snap, query, moduleFilter, maxResults)

	response := map[string]any{
		"query":         query,
		"results":       results,
		"total_matches": len(results),
	}
	if moduleFilter != "" {
		response["module"] = moduleFilter
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// searchLessons walks lessons in display order and matches title, then headings, then text
func (s *Server) searchLessons(ctx context.Context, snap *catalog.Snapshot, query, moduleFilter string, maxResults int) []map[string]any {
	results := make([]map[string]any, 0)
	queryLower := strings.ToLower(query)

	for _, m := range snap.Modules {
		if moduleFilter != "" && m.Slug != moduleFilter {
			continue
		}
		for _, l := range m.Lessons {
			if len(results) >= maxResults || ctx.Err() != nil {
				return results
			}

			text := ""
			if comp, ok := snap.Loader.Component(m.Slug, l.Slug); ok {
				var errText error
				if text, errText = content.PlainText(comp); errText != nil {
					s.log.WithError(errText).Debugf("Skipping text of %s/%s in search", m.Slug, l.Slug)
				}
			}

			matchLocation := ""
			if strings.Contains(strings.ToLower(l.Title), queryLower) {
				matchLocation = "title"
			} else if lc, errLoad := snap.Loader.LoadLessonContent(m.Slug, l.Slug); errLoad == nil && lc != nil {
				for _, h := range lc.Headings {
					if strings.Contains(strings.ToLower(h.Text), queryLower) {
						matchLocation = "headings"
						break
					}
				}
			}
			if matchLocation == "" && strings.Contains(strings.ToLower(text), queryLower) {
				matchLocation = "content"
			}
			if matchLocation == "" {
				continue
			}

			results = append(results, map[string]any{
				"module":         m.Slug,
				"lesson":         l.Slug,
				"title":          l.Title,
				"snippet":        extractSnippet(text, query, snippetLength),
				"match_location": matchLocation,
			})
		}
	}
	return results
}

// handleGetProgress handles the get_progress tool
func (s *Server) handleGetProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user", "")
	if userID == "" {
		return mcp.NewToolResultError("user parameter is required"), nil
	}
	moduleFilter := request.GetString("module", "")

	entries, err := s.cfg.Progress.ListProgress(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read progress: %v", err)), nil
	}

	summary := make([]map[string]any, 0)
	if snap, errSnap := s.cfg.Content.Snapshot(); errSnap == nil {
		for _, m := range snap.Modules {
			if moduleFilter != "" && m.Slug != moduleFilter {
				continue
			}
			completed, total := storage.ModuleCompletion(entries, m.Slug, m.LessonSlugs())
			summary = append(summary, map[string]any{
				"module":    m.Slug,
				"completed": completed,
				"total":     total,
			})
		}
	}

	lessons := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		if moduleFilter != "" && e.Module != moduleFilter {
			continue
		}
		entry := map[string]any{
			"module":     e.Module,
			"lesson":     e.Lesson,
			"status":     e.Status.String(),
			"updated_at": e.UpdatedAt.Format(time.RFC3339),
		}
		if !e.CompletedAt.IsZero() {
			entry["completed_at"] = e.CompletedAt.Format(time.RFC3339)
		}
		lessons = append(lessons, entry)
	}

	return mcp.NewToolResultText(formatJSON(map[string]any{
		"user":    userID,
		"lessons": lessons,
		"modules": summary,
	})), nil
}

// handleExportCourse handles the export_course tool
func (s *Server) handleExportCourse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.cfg.Content.Snapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exporter, err := export.NewExporter(s.cfg.AppConfig, s.log)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create exporter: %v", err)), nil
	}

	outputDir := s.cfg.AppConfig.Export.OutputDir
	job, created := s.jobManager.CreateJob(outputDir)
	if !created {
		return mcp.NewToolResultText(formatJSON(map[string]any{
			"status":     "already_running",
			"message":    "An export is already in progress for this output directory",
			"job_id":     job.ID,
			"output_dir": outputDir,
		})), nil
	}

	go s.runExportJob(job.ID, exporter, snap)

	return mcp.NewToolResultText(formatJSON(map[string]any{
		"status":     "started",
		"message":    "Export started successfully",
		"job_id":     job.ID,
		"output_dir": outputDir,
	})), nil
}

// runExportJob runs an export job in the background
func (s *Server) runExportJob(jobID string, exporter *export.Exporter, snap *catalog.Snapshot) {
	s.jobManager.MarkRunning(jobID)
	log := s.log.WithField("job_id", jobID)

	meta, err := exporter.Export(s.jobManager.Context(jobID), snap)
	if err != nil {
		log.WithError(err).Error("Export job failed")
		s.jobManager.Finish(jobID, 0, 0, nil, err)
		return
	}
	log.Infof("Export job finished: %d lessons, %d chunks", meta.TotalLessons, meta.TotalChunks)
	s.jobManager.Finish(jobID, meta.TotalLessons, meta.TotalChunks, meta.FailedLessons, nil)
}

// handleGetExportStatus handles the get_export_status tool
func (s *Server) handleGetExportStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]any{
		"job_id":           job.ID,
		"output_dir":       job.OutputDir,
		"status":           job.Status,
		"started_at":       job.StartedAt.Format(time.RFC3339),
		"lessons_exported": job.LessonsExported,
		"chunks_exported":  job.ChunksExported,
	}
	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if len(job.FailedLessons) > 0 {
		result["failed_lessons"] = job.FailedLessons
	}
	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// extractSnippet extracts a snippet around the query match, slicing on rune
// boundaries so multi-byte UTF-8 characters are never split.
func extractSnippet(text, query string, maxLen int) string {
	runes := []rune(text)
	queryRunes := []rune(strings.ToLower(query))
	lowerRunes := []rune(strings.ToLower(text))

	idx := -1
	if len(lowerRunes) == len(runes) {
		for i := 0; i <= len(lowerRunes)-len(queryRunes); i++ {
			if string(lowerRunes[i:i+len(queryRunes)]) == string(queryRunes) {
				idx = i
				break
			}
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return text
	}

	start := max(idx-maxLen/2, 0)
	end := min(idx+len(queryRunes)+maxLen/2, len(runes))

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
