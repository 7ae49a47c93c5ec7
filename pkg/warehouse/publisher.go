// Package warehouse publishes cleaned tables and their cleaning audit trail to a SQL database.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/converter"
	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// maxBindParams keeps every batch under the smallest placeholder limit of the supported drivers
const maxBindParams = 30000

// Publisher replaces the contents of a warehouse table with a cleaned table
type Publisher struct {
	db        *sqlx.DB
	converter *converter.TypeConverter
	logger    *zap.Logger
	batchSize int
	timeout   time.Duration
}

// NewPublisher creates a publisher writing batchSize rows per INSERT
func NewPublisher(db *sqlx.DB, conv *converter.TypeConverter, logger *zap.Logger, batchSize int) (*Publisher, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if conv == nil {
		conv = converter.NewTypeConverter(logger)
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Publisher{
		db:        db,
		converter: conv,
		logger:    logger.Named("publisher"),
		batchSize: batchSize,
		timeout:   5 * time.Minute,
	}, nil
}

// WithTimeout sets a custom timeout for one publish
func (p *Publisher) WithTimeout(timeout time.Duration) *Publisher {
	p.timeout = timeout
	return p
}

// Publish creates the target table if needed and replaces its rows in one transaction.
// Returns the number of rows inserted.
func (p *Publisher) Publish(ctx context.Context, t *model.Table, tableName string) (int64, error) {
	if t == nil {
		return 0, errors.New("table cannot be nil")
	}
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("table %s has no columns", t.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	quoted := converter.QuoteIdentifier(tableName)

	if err := p.createTableIfNotExists(ctx, t, quoted); err != nil {
		return 0, err
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				p.logger.Warn("Failed to roll back publish", zap.Error(rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+quoted); err != nil {
		return 0, fmt.Errorf("failed to clear table %s: %w", tableName, err)
	}

	var inserted int64
	inserted, err = p.insertBatches(ctx, tx, t, quoted)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit publish of %s: %w", tableName, err)
	}

	p.logger.Info("Published table",
		zap.String("sheet", t.Name),
		zap.String("table", tableName),
		zap.Int64("rows", inserted),
		zap.Duration("duration", time.Since(start)))
	return inserted, nil
}

// createTableIfNotExists creates the target table from the column types
func (p *Publisher) createTableIfNotExists(ctx context.Context, t *model.Table, quoted string) error {
	createSQL := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		quoted,
		strings.Join(p.converter.GenerateColumnDefinitions(t), ",\n\t"),
	)
	if _, err := p.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", quoted, err)
	}
	p.logger.Debug("Ensured table exists", zap.String("table", quoted))
	return nil
}

// insertBatches performs multi-row INSERTs of at most batchSize rows
func (p *Publisher) insertBatches(ctx context.Context, tx *sqlx.Tx, t *model.Table, quoted string) (int64, error) {
	columns := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		columns[i] = converter.QuoteIdentifier(col.Name)
	}
	columnStr := strings.Join(columns, ", ")
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	batchSize := p.batchSize
	if limit := maxBindParams / len(columns); batchSize > limit {
		batchSize = limit
	}
	if batchSize < 1 {
		batchSize = 1
	}

	var total int64
	for i := 0; i < len(t.Rows); i += batchSize {
		end := i + batchSize
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		batch := t.Rows[i:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*len(columns))
		for j, row := range batch {
			placeholders[j] = rowPlaceholder
			for _, v := range row {
				args = append(args, p.converter.ConvertValueForSQL(v))
			}
		}

		query := tx.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			quoted, columnStr, strings.Join(placeholders, ", ")))
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			p.logger.Warn("Couldn't get rows affected", zap.Error(err))
			rowsAffected = int64(len(batch))
		}
		total += rowsAffected
	}
	return total, nil
}
