// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/config"
)

// postgresDialect opens PostgreSQL through either the pgx stdlib driver or lib/pq
func postgresDialect(driverName string) dialect {
	return dialect{
		name:        "postgres",
		driverName:  driverName,
		pingTimeout: 5 * time.Second,
		describe: func(cfg *config.WarehouseConfig) []zap.Field {
			fields := []zap.Field{zap.String("driver", driverName), zap.String("table", cfg.Table)}
			if pg := cfg.Postgres; pg != nil {
				fields = append(fields,
					zap.String("host", pg.Host),
					zap.Int("port", pg.Port),
					zap.String("database", pg.Database),
					zap.String("user", pg.User))
			}
			return fields
		},
		initSession: validatePostgres,
	}
}

// validatePostgres logs the server version; the statement timeout travels in the DSN
func validatePostgres(ctx context.Context, db *sqlx.DB, _ *config.WarehouseConfig, logger *zap.Logger) error {
	var version string
	if err := db.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	logger.Info("Connected to PostgreSQL", zap.String("version", version))
	return nil
}
