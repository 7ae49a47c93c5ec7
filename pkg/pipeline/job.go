package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// ModelFunc consumes the cleaned table in the final stage of a run
type ModelFunc func(ctx context.Context, t *model.Table) error

// Options selects the optional stages of a job
type Options struct {
	QualityReport  bool   // data-quality figures before and after cleaning
	EDA            bool   // statistics, distributions and correlation heatmap
	ExportPath     string // cleaned CSV destination; empty skips the export
	WarehouseTable string // publish target; empty skips publishing
	ModelName      string
	Model          ModelFunc
}

// Job represents one workbook sheet to process
type Job struct {
	ID           string    // Unique job identifier
	WorkbookPath string    // Source workbook
	SheetName    string    // Sheet to load
	CreatedAt    time.Time // Job creation timestamp
	Options      Options
}

// NewJob creates a new job with defaults
func NewJob(workbookPath, sheetName string) Job {
	return Job{
		ID:           uuid.New().String(),
		WorkbookPath: workbookPath,
		SheetName:    sheetName,
		CreatedAt:    time.Now(),
	}
}

// WithQualityReport enables the before/after data-quality figures and returns the modified job
func (j Job) WithQualityReport() Job {
	j.Options.QualityReport = true
	return j
}

// WithEDA enables exploratory analysis of the cleaned table and returns the modified job
func (j Job) WithEDA() Job {
	j.Options.EDA = true
	return j
}

// WithExport sets the cleaned CSV destination and returns the modified job
func (j Job) WithExport(path string) Job {
	j.Options.ExportPath = path
	return j
}

// WithPublish sets the warehouse table and returns the modified job
func (j Job) WithPublish(table string) Job {
	j.Options.WarehouseTable = table
	return j
}

// WithModel sets the model stage and returns the modified job
func (j Job) WithModel(name string, fn ModelFunc) Job {
	j.Options.ModelName = name
	j.Options.Model = fn
	return j
}

// Source returns "<workbook>:<sheet>" for logs
func (j Job) Source() string {
	return fmt.Sprintf("%s:%s", j.WorkbookPath, j.SheetName)
}

// Result represents the outcome of a job
type Result struct {
	JobID         string
	SheetName     string
	Success       bool
	RowsRead      int
	RowsCleaned   int
	Cleaning      *model.CleaningReport
	PublishedRows int64
	Artifacts     []string
	Warnings      []string
	FailedStage   Stage
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

// NewResult initializes a result for a job
func NewResult(job Job) *Result {
	return &Result{
		JobID:     job.ID,
		SheetName: job.SheetName,
		StartTime: time.Now(),
		Artifacts: make([]string, 0),
		Warnings:  make([]string, 0),
	}
}

// Complete marks the run as complete and calculates duration
func (r *Result) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// AddArtifact records a written file
func (r *Result) AddArtifact(path string) {
	if path != "" {
		r.Artifacts = append(r.Artifacts, path)
	}
}

// AddWarning adds a warning to the result
func (r *Result) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// RowsRemoved returns the number of rows the cleaner dropped
func (r *Result) RowsRemoved() int {
	return r.RowsRead - r.RowsCleaned
}
