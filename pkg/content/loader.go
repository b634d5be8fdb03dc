package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tradecourse/course-content/pkg/config"
	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/utils"
)

// LoadOptions controls which files LoadDir treats as lessons.
type LoadOptions struct {
	Extensions    []string         // Lowercase, with leading dot; empty means config.DefaultContentExtensions
	Exclude       []*regexp.Regexp // Matched against "<module>/<file>"
	IncludeDrafts bool
}

// OptionsFromConfig builds LoadOptions from a validated AppConfig.
func OptionsFromConfig(cfg *config.AppConfig) (LoadOptions, error) {
	exclude, err := utils.CompileRegexPatterns(cfg.ExcludePatterns)
	if err != nil {
		return LoadOptions{}, err
	}
	return LoadOptions{
		Extensions:    cfg.ContentExtensions,
		Exclude:       exclude,
		IncludeDrafts: cfg.IncludeDrafts,
	}, nil
}

// lessonFile is one candidate lesson found while scanning the content root.
type lessonFile struct {
	module  string
	lesson  string
	relPath string // slash-separated, relative to the content root
	info    os.FileInfo
}

// scanDir enumerates <dir>/<module>/<lesson><ext> in module-then-file name order.
// Hidden or underscore-prefixed entries, top-level files and deeper directories are ignored.
func scanDir(ctx context.Context, dir string, opts LoadOptions) ([]lessonFile, error) {
	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = config.DefaultContentExtensions
	}

	modules, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading content root %s: %w", utils.ErrFilesystem, dir, err)
	}

	var files []lessonFile
	for _, moduleEntry := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !moduleEntry.IsDir() || skipName(moduleEntry.Name()) {
			continue
		}
		moduleSlug := moduleEntry.Name()

		entries, err := os.ReadDir(filepath.Join(dir, moduleSlug))
		if err != nil {
			return nil, fmt.Errorf("%w: reading module %s: %w", utils.ErrFilesystem, moduleSlug, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || skipName(name) {
				continue
			}
			ext := strings.ToLower(filepath.Ext(name))
			if !slices.Contains(extensions, ext) {
				continue
			}
			relPath := path.Join(moduleSlug, name)
			if utils.MatchesAny(opts.Exclude, relPath) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("%w: stat %s: %w", utils.ErrFilesystem, relPath, err)
			}
			files = append(files, lessonFile{
				module:  moduleSlug,
				lesson:  strings.TrimSuffix(name, filepath.Ext(name)),
				relPath: relPath,
				info:    info,
			})
		}
	}
	return files, nil
}

func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// LoadDir reads every lesson file under dir into a Document.
// Files that fail to parse are skipped and reported together in the returned error, so callers
// can list every broken file at once. Drafts are dropped unless opts.IncludeDrafts is set.
func LoadDir(ctx context.Context, dir string, opts LoadOptions, log *logrus.Entry) ([]models.Document, error) {
	files, err := scanDir(ctx, dir, opts)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(files))
	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.relPath)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: reading %s: %w", utils.ErrFilesystem, f.relPath, err))
			continue
		}
		doc, err := ParseDocument(f.module, f.lesson, raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if doc.FrontMatter.Draft && !opts.IncludeDrafts {
			log.Debugf("Skipping draft lesson %s", f.relPath)
			continue
		}
		doc.SourcePath = f.relPath
		docs = append(docs, doc)
	}

	log.WithFields(logrus.Fields{"documents": len(docs), "failed": len(errs)}).Debug("Content directory loaded")
	return docs, errors.Join(errs...)
}

// ScanFingerprint summarises the lesson files under dir (path, size, modification time)
// without reading them. Any added, removed or rewritten lesson changes the result.
func ScanFingerprint(ctx context.Context, dir string, opts LoadOptions) (fingerprint string, count int, err error) {
	files, err := scanDir(ctx, dir, opts)
	if err != nil {
		return "", 0, err
	}
	parts := make([]string, 0, len(files)*3)
	for _, f := range files {
		parts = append(parts,
			f.relPath,
			strconv.FormatInt(f.info.Size(), 10),
			strconv.FormatInt(f.info.ModTime().UnixNano(), 10),
		)
	}
	return utils.CalculateFingerprint(parts...), len(files), nil
}
