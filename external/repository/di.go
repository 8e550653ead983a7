package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/repository"
)

const databaseInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()
		return Open(ctx, cfg)
	})
}

// Open builds the store selected by DATABASE_URL and makes sure its schema exists.
func Open(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	scheme, err := cfg.DatabaseScheme()
	if err != nil {
		return nil, err
	}
	retry := DefaultRetryPolicy(cfg.StoreMaxRetries)
	slog.Info("opening session store", "backend", scheme)

	switch scheme {
	case config.DatabaseSchemeMemory:
		return NewMemoryRepository(), nil
	case config.DatabaseSchemeSQLite:
		return NewSQLiteRepository(ctx, cfg.SQLitePath(), retry)
	default:
		p, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := RunMigration(ctx, p); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
		return NewPostgresRepository(p, retry), nil
	}
}
