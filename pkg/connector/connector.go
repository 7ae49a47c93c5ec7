// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/config"
)

// Open connects to the configured warehouse, applies pool settings and verifies the connection
func Open(ctx context.Context, cfg *config.WarehouseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	if !cfg.Enabled() {
		return nil, errors.New("warehouse driver is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	logger = logger.Named(d.name + "-connector")

	dsn, err := cfg.ConnectionString()
	if err != nil {
		return nil, err
	}

	// Log connection attempt (without credentials)
	logger.Info("Connecting to warehouse", d.describe(cfg)...)

	db, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s connection: %w", d.name, err)
	}

	configurePool(db.DB, cfg, d.singleConnection)

	// Verify connection
	if err := PingWithTimeout(ctx, db.DB, d.pingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", d.name, err)
	}

	if d.initSession != nil {
		if err := d.initSession(ctx, db, cfg, logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize %s session: %w", d.name, err)
		}
	}

	logPoolStats(logger, db.DB)
	return db, nil
}

// logPoolStats logs connection pool statistics at debug level
func logPoolStats(logger *zap.Logger, db *sql.DB) {
	stats := db.Stats()
	logger.Debug("Connection pool stats",
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConnections))
}

// PingWithTimeout pings the warehouse, giving up after timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("ping timed out after %v: %w", timeout, err)
		}
		return err
	}
	return nil
}

// configurePool applies the warehouse pool limits. Zero values keep the driver defaults.
// Single-connection dialects are capped at one open connection.
func configurePool(db *sql.DB, cfg *config.WarehouseConfig, single bool) {
	switch {
	case single:
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
