// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"time"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// Clean applies the fixed cleaning sequence and returns a new table:
//  1. drop rows that duplicate an earlier row (first occurrence kept)
//  2. drop rows with a missing value in any column
//  3. for every numeric column, drop rows whose value is negative
//
// The input table is not modified. Filtering every row away yields a valid empty table.
func Clean(t *model.Table) (*model.Table, *model.CleaningReport) {
	report := &model.CleaningReport{
		InitialShape: t.Shape(),
	}
	now := time.Now().UTC()

	deduped, ops := dropDuplicates(t, now)
	report.DuplicatesRemoved = len(ops)
	report.Operations = append(report.Operations, ops...)

	complete, ops := dropMissing(deduped, now)
	report.MissingRemoved = len(ops)
	report.Operations = append(report.Operations, ops...)

	cleaned, ops := dropNegative(complete, now)
	report.NegativesRemoved = len(ops)
	report.Operations = append(report.Operations, ops...)

	report.CleanedShape = cleaned.Shape()
	return cleaned, report
}

// dropDuplicates keeps the first occurrence of every distinct row
func dropDuplicates(t *model.Table, now time.Time) (*model.Table, []model.CleaningOperation) {
	var ops []model.CleaningOperation
	firstSeen := make(map[string]int, t.NumRows())

	out := t.Filter(func(i int, row []interface{}) bool {
		key := model.RowKey(row)
		if first, dup := firstSeen[key]; dup {
			ops = append(ops, model.CleaningOperation{
				SheetName:         t.Name,
				RowIndex:          t.Index[i],
				CleaningOperation: model.OperationDropDuplicate,
				CleaningReason:    fmt.Sprintf("duplicate_of_row_%d", first),
				CleanedAt:         now,
			})
			return false
		}
		firstSeen[key] = t.Index[i]
		return true
	})
	return out, ops
}

// dropMissing removes rows holding a missing value in any column
func dropMissing(t *model.Table, now time.Time) (*model.Table, []model.CleaningOperation) {
	var ops []model.CleaningOperation

	out := t.Filter(func(i int, row []interface{}) bool {
		for c, v := range row {
			if model.IsMissing(v) {
				ops = append(ops, model.CleaningOperation{
					SheetName:         t.Name,
					RowIndex:          t.Index[i],
					ColumnName:        t.Columns[c].Name,
					OriginalValue:     nil,
					CleaningOperation: model.OperationDropMissing,
					CleaningReason:    "missing_value",
					CleanedAt:         now,
				})
				return false
			}
		}
		return true
	})
	return out, ops
}

// dropNegative removes rows with a negative value in any numeric column.
// Missing numeric cells are left to dropMissing.
func dropNegative(t *model.Table, now time.Time) (*model.Table, []model.CleaningOperation) {
	var ops []model.CleaningOperation
	numeric := t.NumericColumns()

	out := t.Filter(func(i int, row []interface{}) bool {
		for _, c := range numeric {
			if f, ok := model.ToFloat(row[c]); ok && f < 0 {
				ops = append(ops, model.CleaningOperation{
					SheetName:         t.Name,
					RowIndex:          t.Index[i],
					ColumnName:        t.Columns[c].Name,
					OriginalValue:     row[c],
					CleaningOperation: model.OperationDropNegative,
					CleaningReason:    "negative_value",
					CleanedAt:         now,
				})
				return false
			}
		}
		return true
	})
	return out, ops
}
