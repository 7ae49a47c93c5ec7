// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning operation names recorded for every dropped row
const (
	OperationDropDuplicate = "drop_duplicate"
	OperationDropMissing   = "drop_missing"
	OperationDropNegative  = "drop_negative"
)

// CleaningOperation represents a single row removed by the cleaner
type CleaningOperation struct {
	RunID             string      `db:"run_id"`             // Pipeline run that performed the cleaning
	SheetName         string      `db:"sheet_name"`         // Source sheet
	RowIndex          int         `db:"row_index"`          // Source row index of the dropped row
	ColumnName        string      `db:"column_name"`        // Column that triggered the drop (empty for duplicates)
	OriginalValue     interface{} `db:"-"`                  // Offending value (may be nil)
	CleaningOperation string      `db:"cleaning_operation"` // Type of cleaning performed (e.g., "drop_missing")
	CleaningReason    string      `db:"cleaning_reason"`    // Reason for cleaning (e.g., "duplicate_of_row_3")
	CleanedAt         time.Time   `db:"cleaned_at"`         // When the cleaning occurred
}

// CleaningReport summarises one cleaner invocation
type CleaningReport struct {
	InitialShape      Shape
	CleanedShape      Shape
	DuplicatesRemoved int
	MissingRemoved    int
	NegativesRemoved  int
	Operations        []CleaningOperation
}

// RowsRemoved returns the total number of dropped rows
func (r *CleaningReport) RowsRemoved() int {
	return r.InitialShape.Rows - r.CleanedShape.Rows
}
