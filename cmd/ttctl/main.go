package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"
	configloader "github.com/utyara3/TimeTracker/external/config"
	repositoryimpl "github.com/utyara3/TimeTracker/external/repository"
	"github.com/utyara3/TimeTracker/internal/cli"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/repository"
	"github.com/utyara3/TimeTracker/internal/tracker"
)

func main() {
	if err := cli.NewRootCommand(openStore).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(_ context.Context) (*cli.Env, error) {
	cfg, err := configloader.Load()
	if err != nil {
		return nil, err
	}
	initLogger(cfg)

	injector := do.New()
	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	tracker.RegisterDI(injector)

	repo, err := do.Invoke[repository.Repository](injector)
	if err != nil {
		return nil, err
	}
	svc, err := do.Invoke[*tracker.Service](injector)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	backend, _ := cfg.DatabaseScheme()
	return &cli.Env{Backend: backend, Tracker: svc, Close: repo.Close}, nil
}

// initLogger keeps stdout for command output.
func initLogger(cfg *config.Config) {
	logLevel := slog.LevelWarn
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}
