// pkg/model/metadata.go
package model

import "strings"

// ColumnType is the declared type of every cell in a column
type ColumnType int

const (
	// ColumnText holds free text or categorical values
	ColumnText ColumnType = iota
	// ColumnInteger holds int64 values
	ColumnInteger
	// ColumnReal holds float64 values
	ColumnReal
	// ColumnDateTime holds time.Time values
	ColumnDateTime
)

// String returns the type name used in logs and exports
func (ct ColumnType) String() string {
	switch ct {
	case ColumnInteger:
		return "int64"
	case ColumnReal:
		return "float64"
	case ColumnDateTime:
		return "datetime"
	default:
		return "text"
	}
}

// IsNumeric reports whether the type takes part in numeric filters and statistics
func (ct ColumnType) IsNumeric() bool {
	return ct == ColumnInteger || ct == ColumnReal
}

// Column represents metadata about a table column
type Column struct {
	Name string     // Header text from the source sheet
	Type ColumnType // Inferred cell type
}

// ColumnIndex returns the position of a column by name. An exact match wins;
// otherwise the first case-insensitive match is used. Returns -1 if the column is not found.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	normalizedName := normalizeColumnName(name)
	for i, col := range t.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return i
		}
	}
	return -1
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (t *Table) GetColumnByName(name string) *Column {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	return &t.Columns[idx]
}

// NumericColumns returns the positions of integer and real columns in header order
func (t *Table) NumericColumns() []int {
	var indices []int
	for i, col := range t.Columns {
		if col.Type.IsNumeric() {
			indices = append(indices, i)
		}
	}
	return indices
}

// ColumnNames returns the header in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
