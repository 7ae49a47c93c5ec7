// Package app wires configuration, logging and the pipeline components for the commands.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/cleaner"
	"github.com/liav-dl/rehosp-prep/pkg/config"
	"github.com/liav-dl/rehosp-prep/pkg/connector"
	"github.com/liav-dl/rehosp-prep/pkg/converter"
	"github.com/liav-dl/rehosp-prep/pkg/loader"
	"github.com/liav-dl/rehosp-prep/pkg/logging"
	"github.com/liav-dl/rehosp-prep/pkg/pipeline"
	"github.com/liav-dl/rehosp-prep/pkg/report"
	"github.com/liav-dl/rehosp-prep/pkg/warehouse"
)

// Command describes one entry point
type Command struct {
	Name         string
	DefaultSheet string

	// Reports builds a reporter over Config.OutputDir
	Reports bool
	// Publish sends the cleaned table to the warehouse when one is configured
	Publish bool

	// Job selects the stages of the run
	Job func(cfg *config.Config, logger *zap.Logger, job pipeline.Job) pipeline.Job
}

// Main runs the command and returns the process exit code
func Main(cmd Command) int {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.Name, err)
		return 1
	}

	cfg, err := config.LoadConfig(cmd.DefaultSheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: failed to load configuration: %v\n", cmd.Name, err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: failed to create logger: %v\n", cmd.Name, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named(cmd.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cmd, cfg, logger); err != nil {
		logger.Error("Command failed", zap.Error(err))
		return 1
	}

	logger.Info("END " + cmd.Name)
	return 0
}

// Run builds the runner from cfg and executes a single job
func Run(ctx context.Context, cmd Command, cfg *config.Config, logger *zap.Logger) error {
	conv := converter.NewTypeConverter(logger)
	sheets := loader.NewSheetLoader(conv, logger)

	var (
		recorder cleaner.OperationRecorder
		opts     []pipeline.RunnerOption
	)

	if cfg.Warehouse.Enabled() {
		db, err := connector.Open(ctx, cfg.Warehouse, logger)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		audit, err := warehouse.NewAuditRecorder(ctx, db, logger)
		if err != nil {
			return err
		}
		recorder = audit

		if cmd.Publish {
			publisher, err := warehouse.NewPublisher(db, conv, logger, cfg.Warehouse.BatchSize)
			if err != nil {
				return err
			}
			verifier := warehouse.NewVerifier(db, logger)
			if cfg.Warehouse.QueryTimeout > 0 {
				publisher = publisher.WithTimeout(cfg.Warehouse.QueryTimeout)
				verifier = verifier.WithTimeout(cfg.Warehouse.QueryTimeout)
			}
			opts = append(opts, pipeline.WithPublisher(publisher, verifier))
		}
	}

	if cmd.Reports {
		reporter, err := report.NewReporter(cfg.OutputDir, logger)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithReporter(reporter))
	}

	dc, err := cleaner.NewDataCleaner(logger, recorder)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(sheets, dc, logger, opts...)
	if err != nil {
		return err
	}

	job := pipeline.NewJob(cfg.WorkbookPath, cfg.SheetName)
	if cmd.Job != nil {
		job = cmd.Job(cfg, logger, job)
	}
	if cmd.Publish && cfg.Warehouse.Enabled() {
		job = job.WithPublish(cfg.Warehouse.Table)
	}

	result, err := runner.Run(ctx, job)
	if result != nil {
		logResult(logger, result)
	}
	return err
}

func logResult(logger *zap.Logger, result *pipeline.Result) {
	logger.Info("Run result",
		zap.String("job_id", result.JobID),
		zap.String("sheet", result.SheetName),
		zap.Bool("success", result.Success),
		zap.Int("rows_read", result.RowsRead),
		zap.Int("rows_cleaned", result.RowsCleaned),
		zap.Int("rows_removed", result.RowsRemoved()),
		zap.Int64("published_rows", result.PublishedRows),
		zap.Strings("artifacts", result.Artifacts),
		zap.Duration("duration", result.Duration))
}

func closeDB(db *sqlx.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("Failed to close warehouse connection", zap.Error(err))
	}
}
