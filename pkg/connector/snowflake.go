// pkg/connector/snowflake.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/config"
)

func snowflakeDialect() dialect {
	return dialect{
		name:        "snowflake",
		driverName:  "snowflake",
		pingTimeout: 10 * time.Second,
		describe: func(cfg *config.WarehouseConfig) []zap.Field {
			fields := []zap.Field{zap.String("table", cfg.Table)}
			if sf := cfg.Snowflake; sf != nil {
				fields = append(fields,
					zap.String("account", sf.Account),
					zap.String("user", sf.User),
					zap.String("database", sf.Database),
					zap.String("schema", sf.Schema),
					zap.String("warehouse", sf.Warehouse),
					zap.String("role", sf.Role))
			}
			return fields
		},
		initSession: initSnowflakeSession,
	}
}

// initSnowflakeSession sets the statement timeout and verifies the session context
func initSnowflakeSession(ctx context.Context, db *sqlx.DB, cfg *config.WarehouseConfig, logger *zap.Logger) error {
	if cfg.QueryTimeout > 0 {
		_, err := db.ExecContext(ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d", int(cfg.QueryTimeout.Seconds())))
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	var role, database, warehouse string
	err := db.QueryRowxContext(ctx, "SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").
		Scan(&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	logger.Info("Connected to Snowflake",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("warehouse", warehouse))

	// Verify we're connected to the correct database
	if sf := cfg.Snowflake; sf != nil && sf.Database != "" && database != sf.Database {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)", database, sf.Database)
	}
	return nil
}
