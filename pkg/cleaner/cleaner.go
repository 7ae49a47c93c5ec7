// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// OperationRecorder persists the operations performed during a cleaning run
type OperationRecorder interface {
	RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) error
}

// DataCleaner runs the shared cleaning routine with logging and optional audit recording
type DataCleaner struct {
	recorder OperationRecorder
	logger   *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance. The recorder may be nil.
func NewDataCleaner(logger *zap.Logger, recorder OperationRecorder) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &DataCleaner{
		recorder: recorder,
		logger:   logger.Named("cleaner"),
	}, nil
}

// CleanTable cleans a table, logs the before/after shapes and records the dropped rows
func (c *DataCleaner) CleanTable(
	ctx context.Context,
	runID string,
	table *model.Table,
) (*model.Table, *model.CleaningReport, error) {
	if table == nil {
		return nil, nil, errors.New("table cannot be nil")
	}

	cleaned, report := Clean(table)
	for i := range report.Operations {
		report.Operations[i].RunID = runID
	}

	c.logger.Info(fmt.Sprintf("Initial data shape: %s, Cleaned data shape: %s",
		report.InitialShape, report.CleanedShape),
		zap.String("sheet", table.Name),
		zap.Int("duplicates_removed", report.DuplicatesRemoved),
		zap.Int("missing_removed", report.MissingRemoved),
		zap.Int("negatives_removed", report.NegativesRemoved))

	if cleaned.NumRows() == 0 && table.NumRows() > 0 {
		c.logger.Warn("Cleaning removed every row", zap.String("sheet", table.Name))
	}

	// If operations were performed, record them
	if c.recorder != nil && len(report.Operations) > 0 {
		if err := c.recorder.RecordCleaningOperations(ctx, report.Operations); err != nil {
			return cleaned, report, fmt.Errorf("failed to record cleaning operations: %w", err)
		}
	}

	return cleaned, report, nil
}
