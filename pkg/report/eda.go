package report

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// PerformEDA writes the statistics table, one distribution per numeric column and the correlation heatmap.
// Returns the paths of the written artifacts in creation order.
func (r *Reporter) PerformEDA(t *model.Table) ([]string, error) {
	r.logInfo(t)

	for _, s := range Describe(t) {
		r.logger.Info("Basic statistics",
			zap.String("column", s.Column),
			zap.Int("count", s.Count),
			zap.Float64("mean", s.Mean),
			zap.Float64("std", s.Std),
			zap.Float64("min", s.Min),
			zap.Float64("25%", s.Q25),
			zap.Float64("50%", s.Median),
			zap.Float64("75%", s.Q75),
			zap.Float64("max", s.Max))
	}

	var artifacts []string

	statsPath, err := r.WriteStatistics(t)
	if err != nil {
		return artifacts, fmt.Errorf("failed to write statistics: %w", err)
	}
	if statsPath != "" {
		artifacts = append(artifacts, statsPath)
	}

	for _, c := range t.NumericColumns() {
		path, err := r.plotDistributionAt(t, c)
		if err != nil {
			return artifacts, fmt.Errorf("failed to plot distribution: %w", err)
		}
		if path != "" {
			artifacts = append(artifacts, path)
		}
	}

	corrPath, err := r.PlotCorrelation(t)
	if err != nil {
		return artifacts, fmt.Errorf("failed to plot correlations: %w", err)
	}
	if corrPath != "" {
		artifacts = append(artifacts, corrPath)
	}

	r.logger.Info("EDA complete",
		zap.String("output_dir", r.outputDir),
		zap.Int("artifacts", len(artifacts)))
	return artifacts, nil
}

// logInfo logs the column layout of the table: type and non-missing count per column
func (r *Reporter) logInfo(t *model.Table) {
	r.logger.Info("Data info",
		zap.String("sheet", t.Name),
		zap.Stringer("shape", t.Shape()))
	for c, col := range t.Columns {
		nonMissing := 0
		for _, row := range t.Rows {
			if !model.IsMissing(row[c]) {
				nonMissing++
			}
		}
		r.logger.Info("Column",
			zap.Int("position", c),
			zap.String("name", col.Name),
			zap.Int("non_null", nonMissing),
			zap.String("type", col.Type.String()))
	}
}
