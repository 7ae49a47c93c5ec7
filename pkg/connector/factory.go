// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/config"
)

// dialect describes how to open and prepare one kind of warehouse
type dialect struct {
	name             string
	driverName       string // database/sql driver registration name
	pingTimeout      time.Duration
	singleConnection bool
	describe         func(cfg *config.WarehouseConfig) []zap.Field
	initSession      func(ctx context.Context, db *sqlx.DB, cfg *config.WarehouseConfig, logger *zap.Logger) error
}

// dialectFor returns the dialect registered for a configured driver
func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverPgx:
		return postgresDialect("pgx"), nil
	case config.DriverPostgres:
		return postgresDialect("postgres"), nil
	case config.DriverSnowflake:
		return snowflakeDialect(), nil
	case config.DriverSQLite:
		return sqliteDialect(), nil
	default:
		return dialect{}, fmt.Errorf("unsupported warehouse driver %q", driver)
	}
}
