package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tradecourse/course-content/pkg/catalog"
	"github.com/tradecourse/course-content/pkg/config"
	"github.com/tradecourse/course-content/pkg/content"
	"github.com/tradecourse/course-content/pkg/export"
	"github.com/tradecourse/course-content/pkg/utils"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "index":
		runIndex(os.Args[2:])
	case "lesson":
		runLesson(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "export":
		runExport(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("course-content %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `course-content - Course content resolution and learner progress service

Usage:
  course-content <command> [options]

Commands:
  index       Print the module and lesson outline
  lesson      Print one lesson's front matter, headings and body as JSON
  validate    Validate the configuration and every lesson file
  export      Export lessons and chunks to JSONL
  serve       Serve the HTTP API and watch the content directory
  mcp-server  Start MCP server for AI tool integration
  version     Show version info

Run 'course-content <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// setupLogger creates a configured logrus.Logger writing to out.
func setupLogger(logLevelStr string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
	}
	return log
}

// loadAndValidateConfig loads the config file, validates it, and logs warnings.
func loadAndValidateConfig(configFile string, log *logrus.Logger) (*config.AppConfig, error) {
	log.Debugf("Loading configuration from %s", configFile)
	appCfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	return appCfg, nil
}

// openCatalog builds a catalog for the configured content directory and loads it.
func openCatalog(ctx context.Context, appCfg *config.AppConfig, log *logrus.Logger) (*catalog.Catalog, *catalog.Snapshot, error) {
	opts, err := content.OptionsFromConfig(appCfg)
	if err != nil {
		return nil, nil, err
	}
	cat := catalog.New(appCfg.ContentDir, opts, log.WithField("component", "catalog"))
	snap, err := cat.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cat, snap, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal %v, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// commonFlags registers the flags shared by every content command.
func commonFlags(fs *flag.FlagSet) (configFile, logLevel *string) {
	configFile = fs.String("config", "config.yaml", "Path to config file")
	logLevel = fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	return configFile, logLevel
}

// runIndex handles the index subcommand
func runIndex(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: course-content index [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	os.Exit(doIndex(*configFile, *logLevel, os.Stdout, os.Stderr))
}

// doIndex prints the module outline. Returns exit code (0 = success, 1 = error).
func doIndex(configPath, logLevel string, stdout, stderr io.Writer) int {
	log := setupLogger(logLevel, stderr)
	appCfg, err := loadAndValidateConfig(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, snap, err := openCatalog(context.Background(), appCfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := utils.WriteModuleOutline(stdout, appCfg.ContentDir, snap.Modules, log.WithField("component", "outline")); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runLesson handles the lesson subcommand
func runLesson(args []string) {
	fs := flag.NewFlagSet("lesson", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	moduleSlug := fs.String("module", "", "Module slug (required)")
	lessonSlug := fs.String("lesson", "", "Lesson slug (required)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: course-content lesson -module <slug> -lesson <slug> [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *moduleSlug == "" || *lessonSlug == "" {
		fmt.Fprintln(os.Stderr, "Error: -module and -lesson are required")
		fs.Usage()
		os.Exit(1)
	}
	os.Exit(doLesson(*configFile, *logLevel, *moduleSlug, *lessonSlug, os.Stdout, os.Stderr))
}

// doLesson prints one lesson as JSON. Returns exit code (0 = success, 1 = error, 2 = not found).
func doLesson(configPath, logLevel, moduleSlug, lessonSlug string, stdout, stderr io.Writer) int {
	log := setupLogger(logLevel, stderr)
	appCfg, err := loadAndValidateConfig(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, snap, err := openCatalog(context.Background(), appCfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	lc, err := snap.Loader.LoadLessonContent(moduleSlug, lessonSlug)
	if err != nil {
		fmt.Fprintf(stderr, "Error: [%s] %v\n", utils.CategorizeError(err), err)
		return 1
	}
	if lc == nil {
		fmt.Fprintf(stderr, "Lesson %s/%s not found\n", moduleSlug, lessonSlug)
		return 2
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(lc); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: course-content validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	os.Exit(doValidate(*configFile, *logLevel, os.Stdout, os.Stderr))
}

// doValidate checks the config, parses every lesson file and extracts every lesson's headings.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath, logLevel string, stdout, stderr io.Writer) int {
	log := setupLogger(logLevel, stderr)
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: [config] %v\n", err)
		return 1
	}
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}

	opts, err := content.OptionsFromConfig(appCfg)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: [config] %v\n", err)
		return 1
	}

	hasError := false
	docs, err := content.LoadDir(context.Background(), appCfg.ContentDir, opts, log.WithField("component", "validate"))
	if err != nil {
		hasError = true
		for _, e := range unwrapJoined(err) {
			fmt.Fprintf(stderr, "ERROR: [%s] %v\n", utils.CategorizeError(e), e)
		}
	}

	snap, err := catalog.NewSnapshot(docs, log.WithField("component", "validate"))
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: [%s] %v\n", utils.CategorizeError(err), err)
		return 1
	}
	for _, m := range snap.Modules {
		for _, l := range m.Lessons {
			if _, errLesson := snap.Loader.LoadLessonContent(m.Slug, l.Slug); errLesson != nil {
				hasError = true
				fmt.Fprintf(stderr, "ERROR: [%s] %v\n", utils.CategorizeError(errLesson), errLesson)
				continue
			}
			if l.Orphan {
				fmt.Fprintf(stdout, "WARN: [%s/%s] parent %q is not reachable, listed as orphan\n", m.Slug, l.Slug, l.Parent)
			}
		}
		fmt.Fprintf(stdout, "OK: [%s] %d lessons\n", m.Slug, len(m.Lessons))
	}

	if hasError {
		return 1
	}
	fmt.Fprintln(stdout, "\nContent valid.")
	return 0
}

// unwrapJoined flattens an errors.Join result into its parts.
func unwrapJoined(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}

// runExport handles the export subcommand
func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	outputDir := fs.String("output", "", "Output directory (overrides export.output_dir)")
	noChunks := fs.Bool("no-chunks", false, "Skip writing the chunks file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: course-content export [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	os.Exit(doExport(*configFile, *logLevel, *outputDir, *noChunks, os.Stdout, os.Stderr))
}

// doExport writes the JSONL export. Returns exit code (0 = success, 1 = error).
func doExport(configPath, logLevel, outputDir string, noChunks bool, stdout, stderr io.Writer) int {
	log := setupLogger(logLevel, stderr)
	appCfg, err := loadAndValidateConfig(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if outputDir != "" {
		appCfg.Export.OutputDir = outputDir
	}
	if noChunks {
		disabled := false
		appCfg.Export.EnableChunks = &disabled
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	_, snap, err := openCatalog(ctx, appCfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	exporter, err := export.NewExporter(appCfg, log.WithField("component", "export"))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	meta, err := exporter.Export(ctx, snap)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Exported %d lessons (%d chunks) from %d modules to %s\n",
		meta.TotalLessons, meta.TotalChunks, meta.TotalModules, appCfg.Export.OutputDir)
	for _, key := range meta.FailedLessons {
		fmt.Fprintf(stdout, "SKIPPED: %s\n", key)
	}
	return 0
}
