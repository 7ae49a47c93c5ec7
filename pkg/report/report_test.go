package report

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

func newTestReporter(t *testing.T) *Reporter {
	t.Helper()
	r, err := NewReporter(filepath.Join(t.TempDir(), "eda"), zaptest.NewLogger(t))
	require.NoError(t, err)
	return r
}

func numericTable() *model.Table {
	t := model.NewTable("erBeforeHospitalization2", []model.Column{
		{Name: "Patient", Type: model.ColumnText},
		{Name: "Days", Type: model.ColumnInteger},
		{Name: "Score", Type: model.ColumnReal},
	})
	t.AppendRow("p1", int64(1), 2.0)
	t.AppendRow("p2", int64(2), 4.0)
	t.AppendRow("p3", int64(3), 6.0)
	t.AppendRow("p4", int64(4), 8.5)
	return t
}

func textOnlyTable() *model.Table {
	t := model.NewTable("ICD9", []model.Column{
		{Name: "Code", Type: model.ColumnText},
		{Name: "Description", Type: model.ColumnText},
	})
	t.AppendRow("428.0", "heart failure")
	t.AppendRow("250.01", "diabetes")
	return t
}

func TestNewReporter_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "eda")

	r, err := NewReporter(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, dir, r.OutputDir())
	assert.DirExists(t, dir)

	_, err = NewReporter("", zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestStage_Validate(t *testing.T) {
	assert.NoError(t, StageBeforeCleaning.Validate())
	assert.NoError(t, StageAfterCleaning.Validate())
	assert.ErrorIs(t, Stage("during_cleaning").Validate(), ErrInvalidStage)
}

func TestComputeQualityStats(t *testing.T) {
	tbl := model.NewTable("q", []model.Column{
		{Name: "Num", Type: model.ColumnInteger},
		{Name: "Tag", Type: model.ColumnText},
	})
	tbl.AppendRow(int64(1), "a")
	tbl.AppendRow(int64(1), "a")
	tbl.AppendRow(int64(-1), "b")
	tbl.AppendRow(nil, nil)

	stats := ComputeQualityStats(tbl)

	assert.Equal(t, []ColumnPercent{{Column: "Num", Percent: 25}, {Column: "Tag", Percent: 25}}, stats.Missing)
	assert.Equal(t, []ColumnPercent{{Column: "Num", Percent: 25}}, stats.Negative)
	assert.Equal(t, 25.0, stats.Duplicated)
}

func TestComputeQualityStats_EmptyTable(t *testing.T) {
	tbl := model.NewTable("empty", []model.Column{{Name: "Num", Type: model.ColumnReal}})

	stats := ComputeQualityStats(tbl)

	assert.Equal(t, []ColumnPercent{{Column: "Num", Percent: 0}}, stats.Missing)
	assert.Equal(t, 0.0, stats.Duplicated)
}

func TestVisualizeDataQuality(t *testing.T) {
	r := newTestReporter(t)

	path, err := r.VisualizeDataQuality(numericTable(), StageBeforeCleaning)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.OutputDir(), "data_quality_before_cleaning.png"), path)
	assert.FileExists(t, path)

	path, err = r.VisualizeDataQuality(textOnlyTable(), StageAfterCleaning)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = r.VisualizeDataQuality(numericTable(), Stage("final"))
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestDescribe(t *testing.T) {
	summaries := Describe(numericTable())
	require.Len(t, summaries, 2)

	days := summaries[0]
	assert.Equal(t, "Days", days.Column)
	assert.Equal(t, 4, days.Count)
	assert.InDelta(t, 2.5, days.Mean, 1e-12)
	assert.InDelta(t, 1.2909944487358056, days.Std, 1e-12)
	assert.Equal(t, 1.0, days.Min)
	assert.InDelta(t, 1.75, days.Q25, 1e-12)
	assert.InDelta(t, 2.5, days.Median, 1e-12)
	assert.InDelta(t, 3.25, days.Q75, 1e-12)
	assert.Equal(t, 4.0, days.Max)
}

func TestDescribe_SmallColumns(t *testing.T) {
	tbl := model.NewTable("s", []model.Column{
		{Name: "One", Type: model.ColumnReal},
		{Name: "None", Type: model.ColumnReal},
	})
	tbl.AppendRow(5.0, nil)

	summaries := Describe(tbl)
	require.Len(t, summaries, 2)

	assert.Equal(t, 1, summaries[0].Count)
	assert.Equal(t, 5.0, summaries[0].Mean)
	assert.True(t, math.IsNaN(summaries[0].Std))
	assert.Equal(t, 5.0, summaries[0].Median)

	assert.Equal(t, 0, summaries[1].Count)
	assert.True(t, math.IsNaN(summaries[1].Mean))
	assert.True(t, math.IsNaN(summaries[1].Max))
}

func TestWriteStatistics(t *testing.T) {
	r := newTestReporter(t)

	path, err := r.WriteStatistics(numericTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.OutputDir(), "basic_statistics.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 9)
	assert.Equal(t, []string{"", "Days", "Score"}, records[0])
	assert.Equal(t, []string{"count", "4.0", "4.0"}, records[1])
	assert.Equal(t, []string{"mean", "2.5", "5.125"}, records[2])
	assert.Equal(t, []string{"min", "1.0", "2.0"}, records[4])
	assert.Equal(t, []string{"max", "4.0", "8.5"}, records[8])
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 10}
	assert.Equal(t, 2.0, quantile(sorted, 0.25))
	assert.Equal(t, 3.0, quantile(sorted, 0.5))
	assert.Equal(t, 4.0, quantile(sorted, 0.75))
	assert.Equal(t, 10.0, quantile(sorted, 1))
	assert.InDelta(t, 1.4, quantile(sorted, 0.1), 1e-12)
}

func TestSturgesAndScott(t *testing.T) {
	assert.Equal(t, 1, SturgesBins(1))
	assert.Equal(t, 2, SturgesBins(2))
	assert.Equal(t, 5, SturgesBins(10))
	assert.Equal(t, 11, SturgesBins(1000))

	assert.Equal(t, 0.0, ScottBandwidth([]float64{3}))
	assert.Equal(t, 0.0, ScottBandwidth([]float64{3, 3, 3}))
	assert.Greater(t, ScottBandwidth([]float64{1, 2, 3}), 0.0)
}

func TestKernelDensityIntegratesToOne(t *testing.T) {
	values := []float64{1, 2, 2.5, 4}
	density := KernelDensity(values, ScottBandwidth(values))

	total := 0.0
	step := 0.01
	for x := -10.0; x < 15; x += step {
		total += density(x) * step
	}
	assert.InDelta(t, 1.0, total, 1e-3)
}

func TestPlotDistribution(t *testing.T) {
	r := newTestReporter(t)

	path, err := r.PlotDistribution(numericTable(), "Score")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.OutputDir(), "distribution_Score.png"), path)
	assert.FileExists(t, path)

	_, err = r.PlotDistribution(numericTable(), "Patient")
	assert.Error(t, err)

	_, err = r.PlotDistribution(numericTable(), "Missing")
	assert.Error(t, err)
}

func TestPlotDistribution_SkipsEmptyColumn(t *testing.T) {
	r := newTestReporter(t)
	tbl := model.NewTable("s", []model.Column{{Name: "Days", Type: model.ColumnInteger}})
	tbl.AppendRow(nil)

	path, err := r.PlotDistribution(tbl, "Days")

	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestCorrelate(t *testing.T) {
	cm := Correlate(numericTable())

	assert.Equal(t, []string{"Days", "Score"}, cm.Columns)
	assert.InDelta(t, 1.0, cm.Values[0][0], 1e-12)
	assert.InDelta(t, 1.0, cm.Values[1][1], 1e-12)
	assert.Greater(t, cm.Values[0][1], 0.99)
	assert.InDelta(t, cm.Values[0][1], cm.Values[1][0], 1e-12)
}

func TestCorrelate_ConstantColumnIsUndefined(t *testing.T) {
	tbl := model.NewTable("c", []model.Column{
		{Name: "A", Type: model.ColumnReal},
		{Name: "B", Type: model.ColumnReal},
	})
	tbl.AppendRow(1.0, 5.0)
	tbl.AppendRow(2.0, 5.0)
	tbl.AppendRow(3.0, 5.0)

	cm := Correlate(tbl)

	assert.True(t, math.IsNaN(cm.Values[0][1]))
}

func TestPlotCorrelation(t *testing.T) {
	r := newTestReporter(t)

	path, err := r.PlotCorrelation(numericTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.OutputDir(), "correlation_matrix.png"), path)
	assert.FileExists(t, path)
}

func TestPlotCorrelation_NoNumericColumns(t *testing.T) {
	r := newTestReporter(t)

	path, err := r.PlotCorrelation(textOnlyTable())

	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoFileExists(t, filepath.Join(r.OutputDir(), "correlation_matrix.png"))
}

func TestPerformEDA(t *testing.T) {
	r := newTestReporter(t)

	artifacts, err := r.PerformEDA(numericTable())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(r.OutputDir(), "basic_statistics.csv"),
		filepath.Join(r.OutputDir(), "distribution_Days.png"),
		filepath.Join(r.OutputDir(), "distribution_Score.png"),
		filepath.Join(r.OutputDir(), "correlation_matrix.png"),
	}, artifacts)
	for _, path := range artifacts {
		assert.FileExists(t, path)
	}
}

func TestPerformEDA_TextOnly(t *testing.T) {
	r := newTestReporter(t)

	artifacts, err := r.PerformEDA(textOnlyTable())
	require.NoError(t, err)

	assert.Empty(t, artifacts)
	assert.NoFileExists(t, filepath.Join(r.OutputDir(), "basic_statistics.csv"))
}

func TestWriteStatistics_NoNumericColumns(t *testing.T) {
	r := newTestReporter(t)

	path, err := r.WriteStatistics(textOnlyTable())

	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoFileExists(t, filepath.Join(r.OutputDir(), "basic_statistics.csv"))
}

func TestWriteStatistics_ReportsWriteFailure(t *testing.T) {
	r := newTestReporter(t)
	// a directory in place of the file makes the create fail
	require.NoError(t, os.Mkdir(filepath.Join(r.OutputDir(), "basic_statistics.csv"), 0o755))

	_, err := r.WriteStatistics(numericTable())
	assert.Error(t, err)
}

func TestVisualizeDataQuality_ReportsWriteFailure(t *testing.T) {
	r := newTestReporter(t)
	require.NoError(t, os.Mkdir(filepath.Join(r.OutputDir(), QualityFileName(StageBeforeCleaning)), 0o755))

	_, err := r.VisualizeDataQuality(numericTable(), StageBeforeCleaning)
	assert.Error(t, err)
}

func TestPerformEDA_CaseDistinctColumns(t *testing.T) {
	r := newTestReporter(t)
	tbl := model.NewTable("s", []model.Column{
		{Name: "days", Type: model.ColumnText},
		{Name: "Days", Type: model.ColumnInteger},
	})
	tbl.AppendRow("short", int64(1))
	tbl.AppendRow("long", int64(9))
	tbl.AppendRow("mid", int64(4))

	artifacts, err := r.PerformEDA(tbl)
	require.NoError(t, err)
	assert.Contains(t, artifacts, filepath.Join(r.OutputDir(), "distribution_Days.png"))

	path, err := r.PlotDistribution(tbl, "Days")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.OutputDir(), "distribution_Days.png"), path)

	_, err = r.PlotDistribution(tbl, "days")
	assert.Error(t, err)
}

func TestDistributionFileName(t *testing.T) {
	assert.Equal(t, "distribution_Days.png", DistributionFileName("Days"))
	assert.Equal(t, "distribution_a_b.png", DistributionFileName("a/b"))
	assert.Equal(t, "data_quality_after_cleaning.png", QualityFileName(StageAfterCleaning))
}
