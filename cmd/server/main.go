package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/me/kernsim/internal/config"
	"github.com/me/kernsim/internal/logging"
	"github.com/me/kernsim/internal/reaper"
	"github.com/me/kernsim/internal/server"
	"github.com/me/kernsim/internal/store"
	"github.com/me/kernsim/pkg/model"
)

func main() {
	def := config.DefaultServerConfig()

	configFile := flag.String("config", "", "Path to a YAML server config file")
	addr := flag.String("addr", def.Addr, "Listen address")
	logLevel := flag.String("log-level", def.LogLevel, "Log level (trace, debug, info, warn, error)")
	logFormat := flag.String("log-format", def.LogFormat, "Log format (text, json)")
	dbPath := flag.String("db", def.DBPath, "Run journal path (default ~/.kernsim/kernsim.db)")
	discipline := flag.String("discipline", def.Discipline.String(), "Default discipline for new sessions (FCFS, Priority, RR, Multilevel)")
	idleTTL := flag.Duration("session-idle-ttl", def.SessionIdleTTL, "Expire sessions idle for this long (0 disables)")
	maxSessions := flag.Int("max-sessions", server.DefaultMaxSessions, "Maximum number of live sessions")
	noJournal := flag.Bool("no-journal", false, "Replay runs without persisting them")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flags given on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "db":
			cfg.DBPath = *dbPath
		case "discipline":
			cfg.Discipline = model.Discipline(*discipline)
		case "session-idle-ttl":
			cfg.SessionIdleTTL = *idleTTL
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	var st store.Store
	if !*noJournal {
		path, err := resolveDBPath(cfg.DBPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		sqlite, err := store.NewSQLiteStore(path, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			os.Exit(1)
		}
		defer sqlite.Close()

		if err := sqlite.Migrate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
			os.Exit(1)
		}
		logger.Info("database ready", "path", path)
		st = sqlite
	} else {
		logger.Info("run journal disabled")
	}

	opts := []server.Option{server.WithMaxSessions(*maxSessions)}
	if cfg.SessionIdleTTL > 0 {
		rc := reaper.DefaultConfig()
		rc.IdleTTL = cfg.SessionIdleTTL
		if rc.IdleTTL < rc.Interval {
			rc.Interval = rc.IdleTTL
		}
		opts = append(opts, server.WithReaper(rc))
	}
	srv := server.New(cfg, st, logger, opts...)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.StartReaper(ctx)

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "discipline", cfg.Discipline)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// resolveDBPath returns path, or ~/.kernsim/kernsim.db when it is empty.
func resolveDBPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".kernsim")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return filepath.Join(dir, "kernsim.db"), nil
}
