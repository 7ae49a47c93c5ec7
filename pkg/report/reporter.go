// Package report produces data-quality figures and exploratory statistics for a table.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Stage labels a data-quality snapshot
type Stage string

const (
	StageBeforeCleaning Stage = "before_cleaning"
	StageAfterCleaning  Stage = "after_cleaning"
)

// ErrInvalidStage is returned for stage labels other than before_cleaning and after_cleaning
var ErrInvalidStage = errors.New("invalid stage")

// Validate checks the stage label
func (s Stage) Validate() error {
	switch s {
	case StageBeforeCleaning, StageAfterCleaning:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStage, string(s))
	}
}

// Artifact file names written under the output directory
const (
	StatisticsFileName  = "basic_statistics.csv"
	CorrelationFileName = "correlation_matrix.png"
)

// QualityFileName returns the file name of the data-quality figure for a stage
func QualityFileName(stage Stage) string {
	return fmt.Sprintf("data_quality_%s.png", stage)
}

// DistributionFileName returns the file name of the distribution figure for a column
func DistributionFileName(column string) string {
	return fmt.Sprintf("distribution_%s.png", safeFileComponent(column))
}

// Reporter writes every artifact into one output directory
type Reporter struct {
	outputDir string
	logger    *zap.Logger
}

// NewReporter creates a reporter and makes sure the output directory exists
func NewReporter(outputDir string, logger *zap.Logger) (*Reporter, error) {
	if outputDir == "" {
		return nil, errors.New("output directory cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return &Reporter{
		outputDir: outputDir,
		logger:    logger.Named("report"),
	}, nil
}

// OutputDir returns the directory artifacts are written to
func (r *Reporter) OutputDir() string {
	return r.outputDir
}

func (r *Reporter) path(name string) string {
	return filepath.Join(r.outputDir, name)
}
