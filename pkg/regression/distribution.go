package regression

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// LengthOfStayColumn is the regression target of the optimal-distribution model
const LengthOfStayColumn = "Number of Days"

// OptimalDistribution scales the cleaned hospitalization table, checks that it
// has features besides the target, describes the network, and trains it.
func OptimalDistribution(ctx context.Context, t *model.Table, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("regression")

	scaled, err := MinMaxScale(t)
	if err != nil {
		return fmt.Errorf("failed to scale features: %w", err)
	}

	ds, err := SplitFeaturesTarget(scaled, LengthOfStayColumn)
	if err != nil {
		return err
	}

	rows, _ := ds.X.Dims()
	network := DefaultNetwork(len(ds.FeatureNames))
	cfg := DefaultTrainConfig()
	logger.Info("Prepared regression dataset",
		zap.Int("rows", rows),
		zap.Strings("features", ds.FeatureNames),
		zap.String("target", ds.TargetName),
		zap.Int("parameters", network.ParameterCount()),
		zap.Int("epochs", cfg.Epochs),
		zap.Int("batch_size", cfg.BatchSize))

	return Train(ctx, network, cfg, ds)
}

// PreprocessDiagnoses prepares the ICD9 diagnosis table for the diagnosis-effect model
func PreprocessDiagnoses(_ *model.Table) (*Dataset, error) {
	return nil, fmt.Errorf("preprocessing diagnoses: %w", ErrNotImplemented)
}

// BuildAndTrainDiagnosisModel analyzes the effect of diagnoses on rehospitalization
func BuildAndTrainDiagnosisModel(_ context.Context, _ *Dataset) error {
	return fmt.Errorf("diagnosis model: %w", ErrNotImplemented)
}

// DiagnosisAnalysis runs preprocessing and model training for the diagnosis table
func DiagnosisAnalysis(ctx context.Context, t *model.Table) error {
	ds, err := PreprocessDiagnoses(t)
	if err != nil {
		return err
	}
	return BuildAndTrainDiagnosisModel(ctx, ds)
}
