package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/paystream/internal/config"
	"github.com/baharkarakas/paystream/internal/db"
	"github.com/baharkarakas/paystream/internal/logger"
	repo "github.com/baharkarakas/paystream/internal/repository"
	"github.com/baharkarakas/paystream/internal/repository/memory"
	"github.com/baharkarakas/paystream/internal/repository/postgres"
)

func loadEnv() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)
	return cfg, log, nil
}

func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// openStore builds the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Migrate {
		applied, err := db.RunMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied", "files", applied)
	}
	return postgres.NewStore(pool), pool.Close, nil
}
