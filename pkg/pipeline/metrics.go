package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageTiming is the wall time spent in one stage
type StageTiming struct {
	Stage    Stage
	Duration time.Duration
	Success  bool
}

// Metrics tracks per-stage timings of a run
type Metrics struct {
	mu        sync.Mutex
	logger    *zap.Logger
	StartTime time.Time
	EndTime   time.Time
	Stages    []StageTiming
	RowsRead  int
	RowsKept  int
}

// NewMetrics creates a new Metrics instance
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		logger:    logger,
		StartTime: time.Now(),
		Stages:    make([]StageTiming, 0),
	}
}

// StartStage begins timing a stage; the returned func records it with its outcome
func (m *Metrics) StartStage(stage Stage) func(success bool) {
	start := time.Now()
	m.logger.Debug("Started stage", zap.String("stage", string(stage)))

	return func(success bool) {
		timing := StageTiming{Stage: stage, Duration: time.Since(start), Success: success}

		m.mu.Lock()
		m.Stages = append(m.Stages, timing)
		m.mu.Unlock()

		m.logger.Debug("Completed stage",
			zap.String("stage", string(stage)),
			zap.Duration("duration", timing.Duration),
			zap.Bool("success", success))
	}
}

// RecordRows stores the row counts before and after cleaning
func (m *Metrics) RecordRows(read, kept int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RowsRead = read
	m.RowsKept = kept
}

// Complete marks the end of the run
func (m *Metrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// Duration returns the total duration of the run
func (m *Metrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// StageDuration returns the recorded duration of a stage
func (m *Metrics) StageDuration(stage Stage) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Stages {
		if s.Stage == stage {
			return s.Duration, true
		}
	}
	return 0, false
}

// LogSummary logs the run summary with one field per stage
func (m *Metrics) LogSummary(jobID string) {
	duration := m.Duration()

	m.mu.Lock()
	fields := []zap.Field{
		zap.String("job_id", jobID),
		zap.Duration("duration", duration),
		zap.Int("rows_read", m.RowsRead),
		zap.Int("rows_kept", m.RowsKept),
	}
	for _, s := range m.Stages {
		fields = append(fields, zap.Duration("stage_"+string(s.Stage), s.Duration))
	}
	m.mu.Unlock()

	m.logger.Info("Run summary", fields...)
}
