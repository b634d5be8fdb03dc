package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/tradecourse/course-content/pkg/api"
	"github.com/tradecourse/course-content/pkg/storage"
	"github.com/tradecourse/course-content/pkg/watch"
)

// runServe handles the serve subcommand
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	addr := fs.String("addr", "", "Listen address (overrides server.addr)")
	interval := fs.String("watch", "", "Content watch interval, e.g. 30s, 5m (overrides watch_interval; 0 disables)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: course-content serve [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  course-content serve -config config.yaml\n")
		fmt.Fprintf(os.Stderr, "  course-content serve -addr :9090 -watch 1m\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	os.Exit(doServe(*configFile, *logLevel, *addr, *interval, os.Stderr))
}

// doServe runs the HTTP API, the badger GC loop and, when enabled, the content watcher
// until a signal arrives or one of them fails. Returns exit code (0 = success, 1 = error).
func doServe(configPath, logLevel, addr, intervalStr string, stderr io.Writer) int {
	log := setupLogger(logLevel, stderr)
	appCfg, err := loadAndValidateConfig(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if addr != "" {
		appCfg.Server.Addr = addr
	}
	if intervalStr != "" {
		if intervalStr == "0" {
			appCfg.WatchInterval = 0
		} else if appCfg.WatchInterval, err = watch.ParseInterval(intervalStr); err != nil {
			fmt.Fprintf(stderr, "Error: invalid watch interval: %v\n", err)
			return 1
		}
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	cat, _, err := openCatalog(ctx, appCfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	store, err := storage.NewBadgerStore(appCfg.StateDir, appCfg.StoreName, log.WithField("component", "storage"))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	server := api.NewServer(cat, store, appCfg.Server, log.WithField("component", "api"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	g.Go(func() error {
		store.RunGC(gctx, appCfg.GCInterval)
		return nil
	})
	if appCfg.WatchInterval > 0 {
		scheduler := watch.NewScheduler(cat, appCfg.StateDir, appCfg.WatchInterval, log.WithField("component", "watch"))
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	} else {
		log.Info("Content watching disabled")
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	log.Info("Server stopped")
	return 0
}

