package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// AuditTableName is the table holding one row per dropped spreadsheet row
const AuditTableName = "cleaning_audit"

// AuditEntry is a stored cleaning operation
type AuditEntry struct {
	RunID             string         `db:"run_id"`
	SheetName         string         `db:"sheet_name"`
	RowIndex          int            `db:"row_index"`
	ColumnName        string         `db:"column_name"`
	OriginalValue     sql.NullString `db:"original_value"`
	CleaningOperation string         `db:"cleaning_operation"`
	CleaningReason    string         `db:"cleaning_reason"`
}

type auditRow struct {
	AuditEntry
	CleanedAt time.Time `db:"cleaned_at"`
}

// AuditRecorder stores cleaning operations in the warehouse
type AuditRecorder struct {
	db      *sqlx.DB
	logger  *zap.Logger
	timeout time.Duration
}

// NewAuditRecorder creates a recorder and ensures the audit table exists
func NewAuditRecorder(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*AuditRecorder, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	r := &AuditRecorder{
		db:      db,
		logger:  logger.Named("audit"),
		timeout: 30 * time.Second,
	}
	if err := r.setupAuditTable(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// setupAuditTable ensures the cleaning_audit tracking table exists
func (r *AuditRecorder) setupAuditTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS cleaning_audit (
			run_id TEXT NOT NULL,
			sheet_name TEXT NOT NULL,
			row_index BIGINT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured cleaning_audit table exists")
	return nil
}

// RecordCleaningOperations inserts the operations in one transaction
func (r *AuditRecorder) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) error {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO cleaning_audit
		(run_id, sheet_name, row_index, column_name, original_value,
		 cleaning_operation, cleaning_reason, cleaned_at)
		VALUES (:run_id, :sheet_name, :row_index, :column_name, :original_value,
		 :cleaning_operation, :cleaning_reason, :cleaned_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		if _, err = stmt.ExecContext(ctx, toAuditRow(op)); err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded cleaning operations",
		zap.Int("count", len(operations)),
		zap.String("run_id", operations[0].RunID))
	return nil
}

// Operations returns the stored operations of a run in row order
func (r *AuditRecorder) Operations(ctx context.Context, runID string) ([]AuditEntry, error) {
	var entries []AuditEntry
	query := r.db.Rebind(`
		SELECT run_id, sheet_name, row_index, column_name, original_value,
		       cleaning_operation, cleaning_reason
		FROM cleaning_audit
		WHERE run_id = ?
		ORDER BY row_index
	`)
	if err := r.db.SelectContext(ctx, &entries, query, runID); err != nil {
		return nil, fmt.Errorf("failed to query cleaning operations: %w", err)
	}
	return entries, nil
}

func toAuditRow(op model.CleaningOperation) auditRow {
	row := auditRow{
		AuditEntry: AuditEntry{
			RunID:             op.RunID,
			SheetName:         op.SheetName,
			RowIndex:          op.RowIndex,
			ColumnName:        op.ColumnName,
			CleaningOperation: op.CleaningOperation,
			CleaningReason:    op.CleaningReason,
		},
		CleanedAt: op.CleanedAt.UTC(),
	}
	if !model.IsMissing(op.OriginalValue) {
		row.OriginalValue = sql.NullString{String: model.FormatCell(op.OriginalValue), Valid: true}
	}
	return row
}
