package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/config"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage/sqlite"
)

// OpenDB connects to the configured backend and brings its schema up to date.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*storage.DB, error) {
	var (
		db  *storage.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err = sqlite.Open(ctx, cfg.Path)
	case config.DriverPostgres:
		db, err = postgres.NewConnection(ctx, &cfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if err := storage.RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("database ready", zap.String("driver", cfg.Driver))
	return db, nil
}
