// Package export writes the course content as JSONL files for search indexes and AI tutors.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tradecourse/course-content/pkg/catalog"
	"github.com/tradecourse/course-content/pkg/config"
	"github.com/tradecourse/course-content/pkg/content"
	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/process"
	"github.com/tradecourse/course-content/pkg/utils"
)

// Exporter writes lessons.jsonl, chunks.jsonl and metadata.yaml for one content snapshot.
type Exporter struct {
	appCfg  *config.AppConfig
	counter *process.TokenCounter
	chunker *process.Chunker
	log     *logrus.Entry
}

// NewExporter creates an Exporter using the chunking settings from appCfg.
func NewExporter(appCfg *config.AppConfig, log *logrus.Entry) (*Exporter, error) {
	counter, err := process.NewTokenCounter(appCfg.Chunking.TokenizerEncoding)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %q: %w", appCfg.Chunking.TokenizerEncoding, err)
	}
	chunkCfg := process.ChunkerConfig{
		MaxChunkSize: appCfg.Chunking.MaxChunkSize,
		ChunkOverlap: appCfg.Chunking.ChunkOverlap,
	}
	return &Exporter{
		appCfg:  appCfg,
		counter: counter,
		chunker: process.NewChunker(chunkCfg, counter),
		log:     log,
	}, nil
}

// jsonlWriter appends one JSON document per line to a buffered file.
type jsonlWriter struct {
	path string
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder

	closed bool
}

func createJSONL(path string) (*jsonlWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, path, err)
	}
	buf := bufio.NewWriter(file)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &jsonlWriter{path: path, file: file, buf: buf, enc: enc}, nil
}

func (w *jsonlWriter) write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("%w: writing %s: %w", utils.ErrFilesystem, w.path, err)
	}
	return nil
}

// close flushes, syncs and closes the file, returning the first failure.
func (w *jsonlWriter) close() error {
	w.closed = true
	errFlush := w.buf.Flush()
	errSync := w.file.Sync()
	errClose := w.file.Close()
	for _, err := range []error{errFlush, errSync, errClose} {
		if err != nil {
			return fmt.Errorf("%w: closing %s: %w", utils.ErrFilesystem, w.path, err)
		}
	}
	return nil
}

// release closes the file if close has not run. Buffered data is discarded.
func (w *jsonlWriter) release() {
	if !w.closed {
		w.closed = true
		w.file.Close()
	}
}

// Export writes every lesson of snap in module and display order.
// Lessons whose body fails to parse are skipped and listed in the metadata.
func (e *Exporter) Export(ctx context.Context, snap *catalog.Snapshot) (*models.ExportMetadata, error) {
	outDir := e.appCfg.Export.OutputDir
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory %s: %w", utils.ErrFilesystem, outDir, err)
	}

	meta := &models.ExportMetadata{
		ContentDir:      e.appCfg.ContentDir,
		ExportStartTime: time.Now(),
		Fingerprint:     snap.Repository.Fingerprint(),
		TotalModules:    len(snap.Modules),
		Modules:         make([]models.ModuleMetadata, 0, len(snap.Modules)),
	}

	lessonsOut, err := createJSONL(filepath.Join(outDir, config.GetEffectiveLessonsFilename(e.appCfg.Export)))
	if err != nil {
		return nil, err
	}
	defer lessonsOut.release()

	var chunksOut *jsonlWriter
	if config.GetEffectiveEnableChunks(e.appCfg.Export) {
		chunksOut, err = createJSONL(filepath.Join(outDir, config.GetEffectiveChunksFilename(e.appCfg.Export)))
		if err != nil {
			return nil, err
		}
		defer chunksOut.release()
	} else {
		e.log.Info("Chunk export is disabled.")
	}

	for _, module := range snap.Modules {
		moduleMeta := models.ModuleMetadata{Slug: module.Slug, Title: module.Title}
		for position, l := range module.Lessons {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if l.Orphan {
				moduleMeta.Orphans = append(moduleMeta.Orphans, l.Slug)
			}

			lessonLog := e.log.WithField("lesson", module.Slug+"/"+l.Slug)
			record, chunks, err := e.exportLesson(snap, module.Slug, l, position+1, chunksOut != nil)
			if err != nil {
				lessonLog.Warnf("Skipping lesson: %v", err)
				meta.FailedLessons = append(meta.FailedLessons, module.Slug+"/"+l.Slug)
				continue
			}
			if err := lessonsOut.write(record); err != nil {
				return nil, err
			}
			moduleMeta.LessonCount++
			meta.TotalLessons++

			if chunksOut == nil {
				continue
			}
			for _, chunk := range chunks {
				if err := chunksOut.write(chunk); err != nil {
					return nil, err
				}
			}
			meta.TotalChunks += len(chunks)
			lessonLog.Debugf("Wrote %d chunks", len(chunks))
		}
		meta.Modules = append(meta.Modules, moduleMeta)
	}

	if err := lessonsOut.close(); err != nil {
		return nil, err
	}
	if chunksOut != nil {
		if err := chunksOut.close(); err != nil {
			return nil, err
		}
	}

	meta.ExportEndTime = time.Now()
	if err := e.writeMetadataYAML(meta); err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"lessons": meta.TotalLessons,
		"chunks":  meta.TotalChunks,
		"failed":  len(meta.FailedLessons),
	}).Infof("Export written to %s", outDir)
	return meta, nil
}

// exportLesson builds the lesson record and, when withChunks is set, its chunks.
func (e *Exporter) exportLesson(snap *catalog.Snapshot, moduleSlug string, l models.Lesson, position int, withChunks bool) (models.LessonJSONL, []models.ChunkJSONL, error) {
	lc, err := snap.Loader.LoadLessonContent(moduleSlug, l.Slug)
	if err != nil {
		return models.LessonJSONL{}, nil, err
	}
	if lc == nil {
		return models.LessonJSONL{}, nil, fmt.Errorf("%w: lesson %s/%s missing from repository", utils.ErrNotFound, moduleSlug, l.Slug)
	}

	comp, ok := snap.Loader.Component(moduleSlug, l.Slug)
	if !ok {
		return models.LessonJSONL{}, nil, fmt.Errorf("%w: no renderable for %s/%s", utils.ErrNotFound, moduleSlug, l.Slug)
	}
	text, err := content.PlainText(comp)
	if err != nil {
		return models.LessonJSONL{}, nil, err
	}

	headings := make([]string, len(lc.Headings))
	for i, h := range lc.Headings {
		headings[i] = h.Text
	}

	record := models.LessonJSONL{
		Module:      moduleSlug,
		Lesson:      l.Slug,
		Title:       lc.FrontMatter.Title,
		Description: lc.FrontMatter.Description,
		Position:    position,
		Headings:    headings,
		Content:     text,
		ContentHash: utils.CalculateStringSHA256(lc.Content),
		TokenCount:  e.counter.Count(text),
		ExportedAt:  time.Now(),
	}

	if !withChunks {
		return record, nil, nil
	}
	parts, err := e.chunker.Chunk(lc.Content)
	if err != nil {
		return models.LessonJSONL{}, nil, fmt.Errorf("chunking %s/%s: %w", moduleSlug, l.Slug, err)
	}
	chunks := make([]models.ChunkJSONL, len(parts))
	for i, part := range parts {
		chunks[i] = models.ChunkJSONL{
			Module:           moduleSlug,
			Lesson:           l.Slug,
			Title:            lc.FrontMatter.Title,
			ChunkIndex:       i,
			Content:          part.Content,
			HeadingHierarchy: part.HeadingHierarchy,
			TokenCount:       part.TokenCount,
		}
	}
	return record, chunks, nil
}

// writeMetadataYAML writes the export summary next to the JSONL files.
func (e *Exporter) writeMetadataYAML(meta *models.ExportMetadata) error {
	path := filepath.Join(e.appCfg.Export.OutputDir, config.GetEffectiveMetadataFilename(e.appCfg.Export))

	yamlData, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal export metadata to YAML: %w", utils.ErrParsing, err)
	}
	if err := os.WriteFile(path, yamlData, 0644); err != nil {
		return fmt.Errorf("%w: failed to write metadata file '%s': %w", utils.ErrFilesystem, path, err)
	}
	e.log.Infof("Wrote export metadata to %s", path)
	return nil
}
