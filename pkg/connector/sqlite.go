// pkg/connector/sqlite.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/liav-dl/rehosp-prep/pkg/config"
)

// sqliteDialect uses one connection so in-memory databases are shared by every statement
func sqliteDialect() dialect {
	return dialect{
		name:             "sqlite",
		driverName:       "sqlite",
		pingTimeout:      5 * time.Second,
		singleConnection: true,
		describe: func(cfg *config.WarehouseConfig) []zap.Field {
			return []zap.Field{zap.String("dsn", cfg.DSN), zap.String("table", cfg.Table)}
		},
		initSession: func(ctx context.Context, db *sqlx.DB, _ *config.WarehouseConfig, logger *zap.Logger) error {
			var version string
			if err := db.GetContext(ctx, &version, "SELECT sqlite_version()"); err != nil {
				return fmt.Errorf("failed to query SQLite version: %w", err)
			}
			logger.Info("Connected to SQLite", zap.String("version", version))
			return nil
		},
	}
}
