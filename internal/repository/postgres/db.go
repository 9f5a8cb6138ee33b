package postgres

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"spotter/internal/config"
)

// NewDB opens the product and run store. It fails fast on a disabled config
// so callers cannot end up with a pool pointing at the defaults.
func NewDB(ctx context.Context, cfg *config.DBConfig) (*sqlx.DB, error) {
	if !cfg.Enabled {
		return nil, &config.ConfigurationError{Key: "SPOTTER_DB_ENABLED", Reason: "database is disabled"}
	}
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres at %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	zap.L().Info("postgres connected",
		zap.String("host", cfg.Host), zap.String("database", cfg.Name), zap.Int("max_open", cfg.MaxOpen))
	return db, nil
}
