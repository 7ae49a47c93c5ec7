package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/liav-dl/rehosp-prep/pkg/config"
	"github.com/liav-dl/rehosp-prep/pkg/model"
	"github.com/liav-dl/rehosp-prep/pkg/pipeline"
	"github.com/liav-dl/rehosp-prep/pkg/regression"
)

func writeSheet(t *testing.T, dir, sheet string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	rows := [][]interface{}{
		{"Patient", "Age", "Number of Days"},
		{"p1", 30, 2},
		{"p1", 30, 2},
		{"p2", -1, 3},
		{"p3", 45, nil},
		{"p4", 60, 7},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}

	path := filepath.Join(dir, "rehospitalization.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func testConfig(t *testing.T, sheet string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		WorkbookPath:   writeSheet(t, dir, sheet),
		SheetName:      sheet,
		OutputDir:      filepath.Join(dir, "eda"),
		CleanedCSVPath: filepath.Join(dir, "data", "cleaned_"+sheet+".csv"),
		LogLevel:       "debug",
		LogFormat:      "console",
	}
}

func cleanData() Command {
	return Command{
		Name:         "cleandata",
		DefaultSheet: "hospitalization1",
		Publish:      true,
		Job: func(cfg *config.Config, _ *zap.Logger, job pipeline.Job) pipeline.Job {
			return job.WithExport(cfg.CleanedCSVPath)
		},
	}
}

func TestRun_CleanDataExportsCSV(t *testing.T) {
	cfg := testConfig(t, "hospitalization1")

	err := Run(context.Background(), cleanData(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.FileExists(t, cfg.CleanedCSVPath)
}

func TestRun_PublishesToWarehouse(t *testing.T) {
	cfg := testConfig(t, "hospitalization1")
	cfg.Warehouse = &config.WarehouseConfig{
		Driver:    config.DriverSQLite,
		DSN:       filepath.Join(t.TempDir(), "warehouse.db"),
		Table:     "cleaned_hospitalization1",
		BatchSize: 100,
	}

	err := Run(context.Background(), cleanData(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	db, err := sqlx.Open("sqlite", cfg.Warehouse.DSN)
	require.NoError(t, err)
	defer db.Close()

	var published int
	require.NoError(t, db.Get(&published, "SELECT COUNT(*) FROM cleaned_hospitalization1"))
	assert.Equal(t, 2, published)

	var audited int
	require.NoError(t, db.Get(&audited, "SELECT COUNT(*) FROM cleaning_audit"))
	assert.Equal(t, 3, audited)
}

func TestRun_EDAWritesReports(t *testing.T) {
	cfg := testConfig(t, "erBeforeHospitalization2")
	cmd := Command{
		Name:         "eda",
		DefaultSheet: "erBeforeHospitalization2",
		Reports:      true,
		Job: func(_ *config.Config, _ *zap.Logger, job pipeline.Job) pipeline.Job {
			return job.WithQualityReport().WithEDA()
		},
	}

	err := Run(context.Background(), cmd, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "data_quality_before_cleaning.png"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "basic_statistics.csv"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "correlation_matrix.png"))
}

func TestRun_ModelStubsFail(t *testing.T) {
	cfg := testConfig(t, "hospitalization2")
	cmd := Command{
		Name:         "distribution",
		DefaultSheet: "hospitalization2",
		Job: func(_ *config.Config, logger *zap.Logger, job pipeline.Job) pipeline.Job {
			return job.WithModel("optimal_distribution", func(ctx context.Context, tbl *model.Table) error {
				return regression.OptimalDistribution(ctx, tbl, logger)
			})
		},
	}

	err := Run(context.Background(), cmd, cfg, zaptest.NewLogger(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, regression.ErrNotImplemented)
	stage, ok := pipeline.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, pipeline.StageModel, stage)
}

func TestRun_MissingWorkbook(t *testing.T) {
	cfg := testConfig(t, "ICD9")
	cfg.WorkbookPath = filepath.Join(t.TempDir(), "missing.xlsx")

	err := Run(context.Background(), Command{Name: "diagnoses", DefaultSheet: "ICD9"}, cfg, zaptest.NewLogger(t))

	require.Error(t, err)
	stage, ok := pipeline.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, pipeline.StageLoad, stage)
}
