package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/converter"
	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// VerificationReport contains the results of a published table verification
type VerificationReport struct {
	Table            string
	VerificationTime time.Time
	RowCountMatches  bool
	ExpectedRowCount int64
	TargetRowCount   int64
	Duration         time.Duration
}

// Verifier checks published tables against the cleaned data
type Verifier struct {
	db      *sqlx.DB
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(db *sqlx.DB, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		db:      db,
		logger:  logger.Named("verifier"),
		timeout: time.Minute * 5, // Default 5-minute timeout
	}
}

// WithTimeout sets a custom timeout for verification operations
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyRowCount compares the warehouse row count with the cleaned table
func (v *Verifier) VerifyRowCount(ctx context.Context, t *model.Table, tableName string) (*VerificationReport, error) {
	start := time.Now()
	v.logger.Info("Verifying row count", zap.String("table", tableName))

	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var targetCount int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", converter.QuoteIdentifier(tableName))
	if err := v.db.GetContext(ctx, &targetCount, countQuery); err != nil {
		return nil, fmt.Errorf("failed to count rows in %s: %w", tableName, err)
	}

	report := &VerificationReport{
		Table:            tableName,
		VerificationTime: start,
		ExpectedRowCount: int64(t.NumRows()),
		TargetRowCount:   targetCount,
		Duration:         time.Since(start),
	}
	report.RowCountMatches = report.ExpectedRowCount == report.TargetRowCount

	// Log the result
	if report.RowCountMatches {
		v.logger.Info("Row count verification successful",
			zap.String("table", tableName),
			zap.Int64("count", targetCount))
	} else {
		v.logger.Warn("Row count mismatch",
			zap.String("table", tableName),
			zap.Int64("expectedCount", report.ExpectedRowCount),
			zap.Int64("targetCount", targetCount),
			zap.Int64("difference", report.ExpectedRowCount-targetCount))
	}

	return report, nil
}
