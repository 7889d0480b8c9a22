// Package main is the command-line entry point of the feedback helper.
//
// Every command except create works on an existing snapshot file given with
// --file. The command loads it, applies one change, waits for the background
// save and exits.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alem-hub/feedback-helper/config"
	"github.com/alem-hub/feedback-helper/internal/application/session"
	"github.com/alem-hub/feedback-helper/internal/infrastructure/export"
	"github.com/alem-hub/feedback-helper/internal/infrastructure/messaging"
	"github.com/alem-hub/feedback-helper/internal/infrastructure/persistence/snapshot"
	"github.com/alem-hub/feedback-helper/internal/infrastructure/roster"
	"github.com/alem-hub/feedback-helper/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	bus     *messaging.InMemoryEventBus
	session *session.Session
}

// newApp loads the configuration and wires the session.
func newApp(opts *rootOptions, out io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.verbose {
		cfg.App.Debug = true
	}

	log := logger.New(cfg.LoggerOptions())
	slog.SetDefault(log)

	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	bus := messaging.NewInMemoryEventBus(busCfg)

	storeCfg := snapshot.DefaultStoreConfig()
	storeCfg.MaxAttempts = cfg.Save.MaxAttempts
	storeCfg.InitialDelay = cfg.Save.InitialDelay
	storeCfg.MaxDelay = cfg.Save.MaxDelay
	storeCfg.Logger = log

	s := session.NewSession(
		bus,
		snapshot.NewStore(storeCfg),
		export.New(export.Config{Concurrency: cfg.Export.Concurrency, Logger: log}),
		roster.NewResolver(log),
		log,
	)

	if opts.events {
		var mu sync.Mutex
		_, err := s.Subscribe(messaging.JSONLinesHandler(func(line []byte) error {
			mu.Lock()
			defer mu.Unlock()
			_, err := out.Write(line)
			return err
		}))
		if err != nil {
			return nil, err
		}
	}

	log.Debug("feedback helper ready",
		"app", cfg.App.Name,
		"env", cfg.App.Environment,
	)
	return &app{cfg: cfg, log: log, bus: bus, session: s}, nil
}

// close flushes pending saves and releases the bus.
func (a *app) close(ctx context.Context) error {
	err := a.session.Flush(ctx)
	if cerr := a.bus.Close(); err == nil {
		err = cerr
	}
	return err
}
