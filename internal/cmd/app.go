package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Iron-Ham/maintenance/internal/command"
	"github.com/Iron-Ham/maintenance/internal/config"
	"github.com/Iron-Ham/maintenance/internal/event"
	"github.com/Iron-Ham/maintenance/internal/logging"
	"github.com/Iron-Ham/maintenance/internal/store"
	"github.com/Iron-Ham/maintenance/internal/tracker"
)

// app is the wiring shared by every command that touches the task set.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   *store.Store
	bus     *event.Bus
	tracker *tracker.Tracker
	svc     *command.Service
}

// openApp loads configuration, opens the configured backend and loads the
// task set. Commands other than serve only log warnings to stderr unless a
// log directory is configured.
func openApp(ctx context.Context, verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg, verbose)
	if err != nil {
		return nil, err
	}

	backend, err := store.OpenBackend(ctx, cfg)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	s := store.New(backend, store.WithLogger(logger))
	if _, err := s.Load(ctx); err != nil {
		_ = s.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	bus := event.NewBus()
	tr := tracker.New(s, bus, tracker.WithLogger(logger))

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   s,
		bus:     bus,
		tracker: tr,
		svc:     command.NewService(tr, cfg),
	}, nil
}

func newLogger(cfg *config.Config, verbose bool) (*logging.Logger, error) {
	dir := cfg.Logging.ResolveDir()
	if dir == "" {
		level := cfg.Logging.Level
		if !verbose {
			level = "warn"
		}
		return logging.NewWriterLogger(os.Stderr, level), nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return logging.NewLoggerWithRotation(dir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
}

func (a *app) Close() error {
	err := a.store.Close()
	if cerr := a.logger.Close(); err == nil {
		err = cerr
	}
	return err
}
