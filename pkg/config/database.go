// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

// Supported warehouse drivers
const (
	DriverPgx       = "pgx"
	DriverPostgres  = "postgres"
	DriverSnowflake = "snowflake"
	DriverSQLite    = "sqlite"
)

// WarehouseConfig describes where cleaned tables and the cleaning audit are published.
// An empty Driver disables publishing.
type WarehouseConfig struct {
	Driver    string
	DSN       string // explicit DSN; built from Postgres/Snowflake settings when empty
	Table     string
	BatchSize int

	Postgres  *PostgresConfig
	Snowflake *SnowflakeConfig

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Timeout for ping and statements
	QueryTimeout time.Duration
}

// SnowflakeConfig holds Snowflake connection parameters
type SnowflakeConfig struct {
	User          string
	Password      string
	Account       string
	Warehouse     string
	Database      string
	Schema        string
	Role          string
	Authenticator gosnowflake.AuthType
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Statement timeout
	StatementTimeout time.Duration
}

// LoadWarehouseConfig loads warehouse settings; the default table name derives from the sheet
func LoadWarehouseConfig(sheet string) (*WarehouseConfig, error) {
	cfg := &WarehouseConfig{
		Driver:    strings.ToLower(getEnv("WAREHOUSE_DRIVER", "")),
		DSN:       getEnv("WAREHOUSE_DSN", ""),
		Table:     getEnv("WAREHOUSE_TABLE", "cleaned_"+sheet),
		BatchSize: getEnvAsInt("WAREHOUSE_BATCH_SIZE", 1000),

		MaxOpenConns:    getEnvAsInt("WAREHOUSE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("WAREHOUSE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(getEnvAsInt("WAREHOUSE_CONN_MAX_LIFETIME_SECONDS", 600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("WAREHOUSE_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		QueryTimeout:    time.Duration(getEnvAsInt("WAREHOUSE_QUERY_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	if cfg.DSN != "" {
		return cfg, nil
	}

	var err error
	switch cfg.Driver {
	case "":
	case DriverPgx, DriverPostgres:
		cfg.Postgres, err = LoadPostgresConfig()
	case DriverSnowflake:
		cfg.Snowflake, err = LoadSnowflakeConfig()
	case DriverSQLite:
		cfg.DSN = "data/warehouse.db"
	default:
		err = fmt.Errorf("unsupported warehouse driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Enabled reports whether a warehouse driver is configured
func (c *WarehouseConfig) Enabled() bool {
	return c != nil && c.Driver != ""
}

// Validate checks the warehouse settings when publishing is enabled
func (c *WarehouseConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}

	switch c.Driver {
	case DriverPgx, DriverPostgres:
		if c.DSN == "" && c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
	case DriverSnowflake:
		if c.DSN == "" && c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	case DriverSQLite:
		if c.DSN == "" {
			return errors.New("sqlite DSN is required")
		}
	default:
		return fmt.Errorf("unsupported warehouse driver %q", c.Driver)
	}

	if c.Table == "" {
		return errors.New("warehouse table is required")
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	return nil
}

// ConnectionString returns the DSN for the configured driver
func (c *WarehouseConfig) ConnectionString() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	switch c.Driver {
	case DriverPgx, DriverPostgres:
		if c.Postgres == nil {
			return "", errors.New("postgreSQL configuration is required")
		}
		return c.Postgres.ConnectionString(), nil
	case DriverSnowflake:
		if c.Snowflake == nil {
			return "", errors.New("snowflake configuration is required")
		}
		return c.Snowflake.ConnectionString()
	default:
		return "", fmt.Errorf("no DSN for warehouse driver %q", c.Driver)
	}
}

// LoadSnowflakeConfig loads Snowflake configuration from environment variables
func LoadSnowflakeConfig() (*SnowflakeConfig, error) {
	user := os.Getenv("SNOWFLAKE_USER")
	if user == "" {
		return nil, errors.New("SNOWFLAKE_USER environment variable is required")
	}

	password := os.Getenv("SNOWFLAKE_PASSWORD")
	if password == "" {
		return nil, errors.New("SNOWFLAKE_PASSWORD environment variable is required")
	}

	account := os.Getenv("SNOWFLAKE_ACCOUNT")
	if account == "" {
		return nil, errors.New("SNOWFLAKE_ACCOUNT environment variable is required")
	}

	warehouse := os.Getenv("SNOWFLAKE_WAREHOUSE")
	if warehouse == "" {
		return nil, errors.New("SNOWFLAKE_WAREHOUSE environment variable is required")
	}

	return &SnowflakeConfig{
		User:          user,
		Password:      password,
		Account:       account,
		Warehouse:     warehouse,
		Database:      getEnv("SNOWFLAKE_DATABASE", "REHOSPITALIZATION"),
		Schema:        getEnv("SNOWFLAKE_SCHEMA", "PUBLIC"),
		Role:          getEnv("SNOWFLAKE_ROLE", ""),
		Authenticator: parseAuthenticator(getEnv("SNOWFLAKE_AUTHENTICATOR", "snowflake")),
	}, nil
}

// parseAuthenticator converts an authenticator name to the driver type
func parseAuthenticator(name string) gosnowflake.AuthType {
	switch strings.ToLower(name) {
	case "oauth":
		return gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		return gosnowflake.AuthTypeJwt
	case "token":
		return gosnowflake.AuthTypeTokenAccessor
	case "okta":
		return gosnowflake.AuthTypeOkta
	default:
		return gosnowflake.AuthTypeSnowflake
	}
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables
func LoadPostgresConfig() (*PostgresConfig, error) {
	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return nil, errors.New("POSTGRES_USER environment variable is required")
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		return nil, errors.New("POSTGRES_PASSWORD environment variable is required")
	}

	database := os.Getenv("POSTGRES_DB")
	if database == "" {
		return nil, errors.New("POSTGRES_DB environment variable is required")
	}

	return &PostgresConfig{
		Host:             getEnv("POSTGRES_HOST", "localhost"),
		Port:             getEnvAsInt("POSTGRES_PORT", 5432),
		User:             user,
		Password:         password,
		Database:         database,
		SSLMode:          getEnv("POSTGRES_SSLMODE", "disable"),
		StatementTimeout: time.Duration(getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_SECONDS", 300)) * time.Second,
	}, nil
}

// ConnectionString returns a Snowflake DSN built by the driver
func (c *SnowflakeConfig) ConnectionString() (string, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:       c.Account,
		User:          c.User,
		Password:      c.Password,
		Database:      c.Database,
		Schema:        c.Schema,
		Warehouse:     c.Warehouse,
		Role:          c.Role,
		Authenticator: c.Authenticator,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake DSN: %w", err)
	}
	return dsn, nil
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
	if c.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", c.StatementTimeout.Milliseconds())
	}
	return dsn
}
