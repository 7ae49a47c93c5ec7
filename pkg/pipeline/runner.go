// Package pipeline runs the load, clean, report, export and publish stages for one sheet.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/cleaner"
	"github.com/liav-dl/rehosp-prep/pkg/export"
	"github.com/liav-dl/rehosp-prep/pkg/model"
	"github.com/liav-dl/rehosp-prep/pkg/report"
	"github.com/liav-dl/rehosp-prep/pkg/warehouse"
)

// SheetLoader reads one sheet of a workbook
type SheetLoader interface {
	Load(path, sheet string) (*model.Table, error)
}

// Runner executes jobs stage by stage. Optional components may be nil
// as long as no job asks for their stage.
type Runner struct {
	loader    SheetLoader
	cleaner   *cleaner.DataCleaner
	reporter  *report.Reporter
	publisher *warehouse.Publisher
	verifier  *warehouse.Verifier
	logger    *zap.Logger
}

// RunnerOption configures optional runner components
type RunnerOption func(*Runner)

// WithReporter enables the data-quality and EDA stages
func WithReporter(r *report.Reporter) RunnerOption {
	return func(rn *Runner) { rn.reporter = r }
}

// WithPublisher enables the publish and verify stages
func WithPublisher(p *warehouse.Publisher, v *warehouse.Verifier) RunnerOption {
	return func(rn *Runner) {
		rn.publisher = p
		rn.verifier = v
	}
}

// NewRunner creates a runner around the required loader and cleaner
func NewRunner(loader SheetLoader, dc *cleaner.DataCleaner, logger *zap.Logger, opts ...RunnerOption) (*Runner, error) {
	if loader == nil {
		return nil, errors.New("loader cannot be nil")
	}
	if dc == nil {
		return nil, errors.New("cleaner cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	r := &Runner{
		loader:  loader,
		cleaner: dc,
		logger:  logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes every stage the job selects. The first failing stage ends the run
// and its error is returned as a *StageError alongside the partial result.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	if err := r.validate(job); err != nil {
		return nil, err
	}

	logger := r.logger.With(zap.String("job_id", job.ID), zap.String("source", job.Source()))
	metrics := NewMetrics(logger)
	result := NewResult(job)

	fail := func(stage Stage, err error) (*Result, error) {
		result.FailedStage = stage
		result.Complete(false)
		metrics.Complete()
		metrics.LogSummary(job.ID)
		logger.Error("Run failed", zap.String("stage", string(stage)), zap.Error(err))
		return result, NewStageError(job.ID, stage, err)
	}

	logger.Info("Starting run")

	var raw *model.Table
	if err := r.stage(ctx, metrics, StageLoad, func() error {
		var err error
		raw, err = r.loader.Load(job.WorkbookPath, job.SheetName)
		return err
	}); err != nil {
		return fail(StageLoad, err)
	}
	result.RowsRead = raw.NumRows()

	if job.Options.QualityReport {
		if err := r.stage(ctx, metrics, StageQualityBefore, func() error {
			path, err := r.reporter.VisualizeDataQuality(raw, report.StageBeforeCleaning)
			result.AddArtifact(path)
			return err
		}); err != nil {
			return fail(StageQualityBefore, err)
		}
	}

	var cleaned *model.Table
	if err := r.stage(ctx, metrics, StageClean, func() error {
		var err error
		cleaned, result.Cleaning, err = r.cleaner.CleanTable(ctx, job.ID, raw)
		return err
	}); err != nil {
		return fail(StageClean, err)
	}
	result.RowsCleaned = cleaned.NumRows()
	metrics.RecordRows(result.RowsRead, result.RowsCleaned)
	if result.RowsCleaned == 0 && result.RowsRead > 0 {
		result.AddWarning("cleaning removed every row")
	}

	if job.Options.QualityReport {
		if err := r.stage(ctx, metrics, StageQualityAfter, func() error {
			path, err := r.reporter.VisualizeDataQuality(cleaned, report.StageAfterCleaning)
			result.AddArtifact(path)
			return err
		}); err != nil {
			return fail(StageQualityAfter, err)
		}
	}

	if job.Options.EDA {
		if err := r.stage(ctx, metrics, StageEDA, func() error {
			artifacts, err := r.reporter.PerformEDA(cleaned)
			for _, a := range artifacts {
				result.AddArtifact(a)
			}
			return err
		}); err != nil {
			return fail(StageEDA, err)
		}
	}

	if path := job.Options.ExportPath; path != "" {
		if err := r.stage(ctx, metrics, StageExport, func() error {
			if err := export.WriteCSV(cleaned, path); err != nil {
				return err
			}
			result.AddArtifact(path)
			logger.Info("Exported cleaned table", zap.String("path", path), zap.Int("rows", cleaned.NumRows()))
			return nil
		}); err != nil {
			return fail(StageExport, err)
		}
	}

	if table := job.Options.WarehouseTable; table != "" {
		if err := r.stage(ctx, metrics, StagePublish, func() error {
			n, err := r.publisher.Publish(ctx, cleaned, table)
			result.PublishedRows = n
			return err
		}); err != nil {
			return fail(StagePublish, err)
		}

		if r.verifier != nil {
			if err := r.stage(ctx, metrics, StageVerify, func() error {
				vr, err := r.verifier.VerifyRowCount(ctx, cleaned, table)
				if err != nil {
					return err
				}
				if !vr.RowCountMatches {
					result.AddWarning(fmt.Sprintf("warehouse table %s holds %d rows, expected %d",
						table, vr.TargetRowCount, vr.ExpectedRowCount))
				}
				return nil
			}); err != nil {
				return fail(StageVerify, err)
			}
		}
	}

	if job.Options.Model != nil {
		if err := r.stage(ctx, metrics, StageModel, func() error {
			logger.Info("Running model", zap.String("model", job.Options.ModelName))
			return job.Options.Model(ctx, cleaned)
		}); err != nil {
			return fail(StageModel, err)
		}
	}

	result.Complete(true)
	metrics.Complete()
	metrics.LogSummary(job.ID)
	for _, w := range result.Warnings {
		logger.Warn("Run warning", zap.String("warning", w))
	}
	return result, nil
}

// stage runs fn unless the context is already done, timing it either way
func (r *Runner) stage(ctx context.Context, metrics *Metrics, stage Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := metrics.StartStage(stage)
	err := fn()
	done(err == nil)
	return err
}

// validate rejects jobs that need a component the runner was built without
func (r *Runner) validate(job Job) error {
	if job.WorkbookPath == "" || job.SheetName == "" {
		return errors.New("job needs a workbook path and a sheet name")
	}
	if (job.Options.QualityReport || job.Options.EDA) && r.reporter == nil {
		return errors.New("job requests reports but no reporter is configured")
	}
	if job.Options.WarehouseTable != "" && r.publisher == nil {
		return errors.New("job requests publishing but no publisher is configured")
	}
	return nil
}
