package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Stage names one step of a pipeline run
type Stage string

const (
	StageLoad          Stage = "load"
	StageQualityBefore Stage = "quality_before"
	StageClean         Stage = "clean"
	StageQualityAfter  Stage = "quality_after"
	StageEDA           Stage = "eda"
	StageExport        Stage = "export"
	StagePublish       Stage = "publish"
	StageVerify        Stage = "verify"
	StageModel         Stage = "model"
)

// StageError records the stage a run failed in. It unwraps to the cause.
type StageError struct {
	JobID     string
	Stage     Stage
	Err       error
	Timestamp time.Time
}

// NewStageError creates a stage error stamped with the current time
func NewStageError(jobID string, stage Stage, err error) *StageError {
	return &StageError{
		JobID:     jobID,
		Stage:     stage,
		Err:       err,
		Timestamp: time.Now(),
	}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage a run error came from, if any
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// IsCancellation reports whether a run stopped because its context ended
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
