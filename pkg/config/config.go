// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the configuration of one command run
type Config struct {
	// Input
	WorkbookPath string
	SheetName    string

	// Outputs
	OutputDir      string
	CleanedCSVPath string

	// Optional warehouse publishing
	Warehouse *WarehouseConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads variables from a .env file without overriding the environment.
// A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables.
// defaultSheet is the sheet the calling command reads when REHOSP_SHEET is unset.
func LoadConfig(defaultSheet string) (*Config, error) {
	sheet := getEnv("REHOSP_SHEET", defaultSheet)
	cfg := &Config{
		WorkbookPath:   getEnv("REHOSP_WORKBOOK", "data/rehospitalization.xlsx"),
		SheetName:      sheet,
		OutputDir:      getEnv("EDA_OUTPUT_DIR", "eda"),
		CleanedCSVPath: getEnv("CLEANED_CSV_PATH", fmt.Sprintf("data/cleaned_%s.csv", sheet)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}

	warehouse, err := LoadWarehouseConfig(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouse configuration: %w", err)
	}
	cfg.Warehouse = warehouse

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.WorkbookPath == "" {
		return errors.New("workbook path is required")
	}

	if c.SheetName == "" {
		return errors.New("sheet name is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	if c.Warehouse != nil {
		if err := c.Warehouse.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
