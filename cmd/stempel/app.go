package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/config"
	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/remote"
	"github.com/christopherklint97/stempel/internal/store"
	"github.com/christopherklint97/stempel/internal/tracker"
)

// app bundles what most commands need: config, logger, the record store
// (remote with local fallback) and a tracker over it.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	local   *store.DB
	records store.Records
	tracker *tracker.Tracker
	closers []io.Closer
}

// openApp wires the stores. TUI commands log to a file so output does not
// tear the screen.
func openApp(tuiMode bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &app{cfg: cfg}
	if tuiMode {
		logger, f, err := newFileLogger(cfg)
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.closers = append(a.closers, f)
	} else {
		a.logger = newCLILogger(cfg)
	}

	path, err := cfg.LocalDBPath()
	if err != nil {
		a.Close()
		return nil, err
	}
	local, err := store.Open(path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening local database: %w", err)
	}
	a.local = local
	a.closers = append(a.closers, local)

	a.records = local
	if cfg.Remote.BaseURL != "" {
		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey, cfg.Remote.CacheTTL(), a.logger)
		a.records = tracker.NewFallbackStore(client, local, a.logger)
	}
	a.tracker = tracker.New(a.records, local, a.logger)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

// offlineNotice warns once per command when the remote could not be reached.
func (a *app) offlineNotice() {
	if a.cfg.Remote.BaseURL != "" && a.tracker.Offline() {
		fmt.Fprintln(os.Stderr, "warning: remote store unreachable, used local database")
	}
}

func (a *app) activeProjects(ctx context.Context) ([]domain.Project, error) {
	projects, err := a.records.ListProjects(ctx, domain.ProjectFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	return projects, nil
}

func (a *app) allProjects(ctx context.Context) ([]domain.Project, error) {
	projects, err := a.records.ListProjects(ctx, domain.ProjectFilter{IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	return projects, nil
}

// resolveProject looks a project up by id, name or unique name prefix.
func (a *app) resolveProject(ctx context.Context, query string, includeArchived bool) (*domain.Project, error) {
	projects, err := a.records.ListProjects(ctx, domain.ProjectFilter{IncludeArchived: includeArchived})
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	return tracker.ResolveProject(projects, query)
}

func newCLILogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = cfg.Log.SlogLevel()
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newFileLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	path, err := config.DataPath("stempel.log")
	if err != nil {
		return nil, nil, err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	return logger, f, nil
}

// signalContext is cmd's context, canceled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
