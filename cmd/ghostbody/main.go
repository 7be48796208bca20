// Package main is the entry point for the ghostbody demo.
//
// ghostbody opens a repository according to a YAML config file, writes a few
// bodies through zero-copy views in a write transaction, commits them, then
// reloads every committed body in a read transaction and logs its fields.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/config"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/persist"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/pinned"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "ghostbody: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	printSchema := flag.Bool("print-config-schema", false, "Print the JSON schema of the config file and exit")
	cfgPath := flag.String("config", "ghostbody.yaml", "Config file, created with defaults if missing")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	count := flag.Int("n", 3, "Number of bodies to create")
	compact := flag.Bool("compact", false, "Compact the jsonl store before exiting")
	watch := flag.Bool("watch", false, "Keep running and apply config log level changes until interrupted")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}
	if *printSchema {
		data, err := config.JSONSchema()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case int64:
				skip = t == 0
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ll.Set(cfg.Log.SlogLevel())
	if *logLevel != "" {
		l := config.Log{Level: *logLevel}
		if err := l.Validate(); err != nil {
			return err
		}
		ll.Set(l.SlogLevel())
	}

	arena := pinned.NewArena(cfg.Arena.ChunkSize)
	opts := txn.Options{Allocator: arena, Logger: logger}
	var jsonl *persist.Store
	if cfg.Storage.Mode == config.ModeJSONL {
		if jsonl, err = persist.Open(cfg.StoragePath(*cfgPath), logger); err != nil {
			return err
		}
		opts.Store = jsonl
	}
	repo := txn.NewRepository(opts)
	defer func() {
		if err := repo.Close(); err != nil {
			slog.ErrorContext(ctx, "Failed to close repository", "err", err)
		}
	}()
	slog.InfoContext(ctx, "Repository open", "mode", cfg.Storage.Mode, "path", cfg.StoragePath(*cfgPath))

	if err := runDemo(ctx, repo, *count); err != nil {
		return err
	}
	m := arena.Metrics()
	slog.InfoContext(ctx, "Arena", "chunks", m.Chunks, "capacity", m.Capacity, "in_use", m.InUse, "free_regions", m.FreeRegions)

	if *compact && jsonl != nil {
		if err := jsonl.Compact(); err != nil {
			return err
		}
	}

	if *watch {
		if err := config.Watch(ctx, *cfgPath, func(c *config.Config) {
			if *logLevel == "" {
				ll.Set(c.Log.SlogLevel())
			}
		}); err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		slog.InfoContext(ctx, "Watching config; press Ctrl-C to exit", "path", *cfgPath)
		<-ctx.Done()
	}
	return nil
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("ghostbody %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
