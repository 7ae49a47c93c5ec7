package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"

	"github.com/liav-dl/rehosp-prep/pkg/cleaner"
	"github.com/liav-dl/rehosp-prep/pkg/model"
	"github.com/liav-dl/rehosp-prep/pkg/report"
	"github.com/liav-dl/rehosp-prep/pkg/warehouse"
)

type stubLoader struct {
	table *model.Table
	err   error
	calls int
}

func (s *stubLoader) Load(_, _ string) (*model.Table, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.table.Clone(), nil
}

func sheet() *model.Table {
	t := model.NewTable("hospitalization1", []model.Column{
		{Name: "Num", Type: model.ColumnInteger},
		{Name: "Tag", Type: model.ColumnText},
	})
	t.AppendRow(int64(1), "a")
	t.AppendRow(int64(1), "a")
	t.AppendRow(int64(-1), "b")
	t.AppendRow(int64(2), nil)
	t.AppendRow(int64(5), "c")
	return t
}

func newTestRunner(t *testing.T, loader SheetLoader, opts ...RunnerOption) *Runner {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dc, err := cleaner.NewDataCleaner(logger, nil)
	require.NoError(t, err)
	r, err := NewRunner(loader, dc, logger, opts...)
	require.NoError(t, err)
	return r
}

func TestRunner_CleanAndExport(t *testing.T) {
	r := newTestRunner(t, &stubLoader{table: sheet()})
	out := filepath.Join(t.TempDir(), "data", "cleaned_hospitalization1.csv")

	job := NewJob("data/rehospitalization.xlsx", "hospitalization1").WithExport(out)
	result, err := r.Run(context.Background(), job)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, job.ID, result.JobID)
	assert.Equal(t, 5, result.RowsRead)
	assert.Equal(t, 2, result.RowsCleaned)
	assert.Equal(t, 3, result.RowsRemoved())
	require.NotNil(t, result.Cleaning)
	assert.Len(t, result.Cleaning.Operations, 3)
	for _, op := range result.Cleaning.Operations {
		assert.Equal(t, job.ID, op.RunID)
	}
	assert.Equal(t, []string{out}, result.Artifacts)
	assert.FileExists(t, out)
}

func TestRunner_ReportsAndEDA(t *testing.T) {
	reporter, err := report.NewReporter(filepath.Join(t.TempDir(), "eda"), zaptest.NewLogger(t))
	require.NoError(t, err)
	r := newTestRunner(t, &stubLoader{table: sheet()}, WithReporter(reporter))

	job := NewJob("wb.xlsx", "erBeforeHospitalization2").WithQualityReport().WithEDA()
	result, err := r.Run(context.Background(), job)
	require.NoError(t, err)

	dir := reporter.OutputDir()
	assert.Contains(t, result.Artifacts, filepath.Join(dir, "data_quality_before_cleaning.png"))
	assert.Contains(t, result.Artifacts, filepath.Join(dir, "data_quality_after_cleaning.png"))
	assert.Contains(t, result.Artifacts, filepath.Join(dir, "basic_statistics.csv"))
	assert.Contains(t, result.Artifacts, filepath.Join(dir, "distribution_Num.png"))
	assert.Contains(t, result.Artifacts, filepath.Join(dir, "correlation_matrix.png"))
	for _, a := range result.Artifacts {
		assert.FileExists(t, a)
	}
}

func TestRunner_LoadFailure(t *testing.T) {
	cause := errors.New("workbook not found")
	r := newTestRunner(t, &stubLoader{err: cause})

	result, err := r.Run(context.Background(), NewJob("missing.xlsx", "hospitalization1"))

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	stage, ok := FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, StageLoad, stage)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, StageLoad, result.FailedStage)
}

func TestRunner_ModelErrorIsReturned(t *testing.T) {
	notImplemented := errors.New("not implemented")
	r := newTestRunner(t, &stubLoader{table: sheet()})

	var seen *model.Table
	job := NewJob("wb.xlsx", "ICD9").WithModel("diagnosis", func(_ context.Context, t *model.Table) error {
		seen = t
		return notImplemented
	})

	result, err := r.Run(context.Background(), job)

	require.Error(t, err)
	assert.ErrorIs(t, err, notImplemented)
	assert.Equal(t, StageModel, result.FailedStage)
	require.NotNil(t, seen)
	assert.Equal(t, 2, seen.NumRows())
}

func TestRunner_CancelledContext(t *testing.T) {
	loader := &stubLoader{table: sheet()}
	r := newTestRunner(t, loader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, NewJob("wb.xlsx", "hospitalization1"))

	require.Error(t, err)
	assert.True(t, IsCancellation(err))
	assert.Equal(t, 0, loader.calls)
}

func TestRunner_RejectsJobsWithoutComponents(t *testing.T) {
	r := newTestRunner(t, &stubLoader{table: sheet()})

	_, err := r.Run(context.Background(), NewJob("wb.xlsx", "s").WithEDA())
	assert.Error(t, err)

	_, err = r.Run(context.Background(), NewJob("wb.xlsx", "s").WithPublish("cleaned_s"))
	assert.Error(t, err)

	_, err = r.Run(context.Background(), NewJob("", "s"))
	assert.Error(t, err)
}

func TestRunner_Publish(t *testing.T) {
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	logger := zaptest.NewLogger(t)
	publisher, err := warehouse.NewPublisher(db, nil, logger, 100)
	require.NoError(t, err)
	r := newTestRunner(t, &stubLoader{table: sheet()},
		WithPublisher(publisher, warehouse.NewVerifier(db, logger)))

	result, err := r.Run(context.Background(), NewJob("wb.xlsx", "hospitalization1").WithPublish("cleaned_hospitalization1"))
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.PublishedRows)
	assert.Empty(t, result.Warnings)
}

func TestRunner_WarnsWhenEverythingIsDropped(t *testing.T) {
	negatives := model.NewTable("neg", []model.Column{{Name: "Days", Type: model.ColumnInteger}})
	negatives.AppendRow(int64(-1))
	r := newTestRunner(t, &stubLoader{table: negatives})

	result, err := r.Run(context.Background(), NewJob("wb.xlsx", "neg"))
	require.NoError(t, err)

	assert.Equal(t, 0, result.RowsCleaned)
	assert.Len(t, result.Warnings, 1)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(zaptest.NewLogger(t))

	done := m.StartStage(StageLoad)
	done(true)
	m.RecordRows(10, 7)
	m.Complete()

	_, ok := m.StageDuration(StageLoad)
	assert.True(t, ok)
	_, ok = m.StageDuration(StageEDA)
	assert.False(t, ok)
	assert.Equal(t, 10, m.RowsRead)
	assert.Equal(t, 7, m.RowsKept)
	assert.GreaterOrEqual(t, m.Duration().Nanoseconds(), int64(0))
	m.LogSummary("job")
}

func TestNewJob(t *testing.T) {
	a := NewJob("wb.xlsx", "ICD9")
	b := NewJob("wb.xlsx", "ICD9")

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "wb.xlsx:ICD9", a.Source())
	assert.False(t, a.CreatedAt.IsZero())

	c := a.WithExport("out.csv").WithPublish("t")
	assert.Equal(t, "out.csv", c.Options.ExportPath)
	assert.Equal(t, "t", c.Options.WarehouseTable)
	assert.Empty(t, a.Options.ExportPath)
}
