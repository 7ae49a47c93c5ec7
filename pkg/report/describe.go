package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// StatisticNames are the row labels of a description, in output order
var StatisticNames = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// ColumnSummary holds the descriptive statistics of one numeric column.
// Statistics that are undefined for the available values are NaN.
type ColumnSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Values returns the statistics in StatisticNames order
func (s ColumnSummary) Values() []float64 {
	return []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max}
}

// Describe summarizes every numeric column, ignoring missing cells
func Describe(t *model.Table) []ColumnSummary {
	numeric := t.NumericColumns()
	summaries := make([]ColumnSummary, 0, len(numeric))
	for _, c := range numeric {
		summaries = append(summaries, summarize(t.Columns[c].Name, t.ColumnValues(c)))
	}
	return summaries
}

func summarize(name string, values []float64) ColumnSummary {
	nan := math.NaN()
	s := ColumnSummary{
		Column: name,
		Count:  len(values),
		Mean:   nan,
		Std:    nan,
		Min:    nan,
		Q25:    nan,
		Median: nan,
		Q75:    nan,
		Max:    nan,
	}
	if len(values) == 0 {
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q25 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// quantile linearly interpolates between the closest ranks of sorted values,
// position (n-1)*p, matching the usual dataframe describe output.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := float64(n-1) * p
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// WriteStatistics writes the description as CSV: one row per statistic, one column per numeric column.
// Tables without numeric columns are skipped and return an empty path.
func (r *Reporter) WriteStatistics(t *model.Table) (string, error) {
	summaries := Describe(t)
	if len(summaries) == 0 {
		r.logger.Info("No numeric data available to describe.")
		return "", nil
	}

	path := r.path(StatisticsFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeStatistics(f, summaries); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	r.logger.Info("Saved basic statistics",
		zap.String("path", path),
		zap.Int("columns", len(summaries)))
	return path, nil
}

func writeStatistics(out io.Writer, summaries []ColumnSummary) error {
	w := csv.NewWriter(out)
	header := make([]string, 0, len(summaries)+1)
	header = append(header, "")
	for _, s := range summaries {
		header = append(header, s.Column)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write statistics header: %w", err)
	}

	columns := make([][]float64, len(summaries))
	for i, s := range summaries {
		columns[i] = s.Values()
	}
	for i, name := range StatisticNames {
		record := make([]string, 0, len(summaries)+1)
		record = append(record, name)
		for _, values := range columns {
			record = append(record, formatStatistic(values[i]))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write statistic %s: %w", name, err)
		}
	}

	w.Flush()
	return w.Error()
}

// formatStatistic prints floats in shortest form, keeping a ".0" on whole numbers. NaN prints empty.
func formatStatistic(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 0):
		return strconv.FormatFloat(v, 'g', -1, 64)
	case v == math.Trunc(v) && math.Abs(v) < 1e16:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
