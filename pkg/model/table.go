package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Shape is a (rows, columns) pair
type Shape struct {
	Rows    int
	Columns int
}

// String formats the shape as a tuple, e.g. "(120, 7)"
func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Rows, s.Columns)
}

// Table is an in-memory sheet: typed columns and ordered rows.
// A nil cell is a missing value; other cells are int64, float64, string or time.Time
// according to the column type.
type Table struct {
	Name    string          // Sheet the table was loaded from
	Columns []Column        // Column definitions
	Rows    [][]interface{} // Cell values, one slice per row
	Index   []int           // Source row index for each row (0-based, header excluded)
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns []Column) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Table{
		Name:    name,
		Columns: cols,
		Rows:    make([][]interface{}, 0),
		Index:   make([]int, 0),
	}
}

// AppendRow adds a row with the next sequential index.
// The row is padded with missing cells or truncated to the column count.
func (t *Table) AppendRow(values ...interface{}) {
	next := 0
	if n := len(t.Index); n > 0 {
		next = t.Index[n-1] + 1
	}
	t.appendIndexed(next, values)
}

func (t *Table) appendIndexed(index int, values []interface{}) {
	row := make([]interface{}, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	t.Index = append(t.Index, index)
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Shape returns the (rows, columns) pair
func (t *Table) Shape() Shape {
	return Shape{Rows: len(t.Rows), Columns: len(t.Columns)}
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.Name, t.Columns)
	for i, row := range t.Rows {
		out.appendIndexed(t.Index[i], row)
	}
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
// Row indices are preserved.
func (t *Table) Filter(keep func(i int, row []interface{}) bool) *Table {
	out := NewTable(t.Name, t.Columns)
	for i, row := range t.Rows {
		if keep(i, row) {
			out.appendIndexed(t.Index[i], row)
		}
	}
	return out
}

// ColumnValues returns the non-missing values of a numeric column as float64
func (t *Table) ColumnValues(col int) []float64 {
	values := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f, ok := ToFloat(row[col]); ok {
			values = append(values, f)
		}
	}
	return values
}

// Equal reports whether two tables have the same columns, rows and indices
func (t *Table) Equal(other *Table) bool {
	if other == nil || len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i, col := range t.Columns {
		if col != other.Columns[i] {
			return false
		}
	}
	for i, row := range t.Rows {
		if t.Index[i] != other.Index[i] || RowKey(row) != RowKey(other.Rows[i]) {
			return false
		}
	}
	return true
}

// IsMissing reports whether a cell holds no value. NaN reals count as missing.
func IsMissing(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(val)
	case time.Time:
		return val.IsZero()
	default:
		return false
	}
}

// ToFloat converts a numeric cell to float64
func ToFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		if math.IsNaN(val) {
			return 0, false
		}
		return val, true
	default:
		return 0, false
	}
}

// FormatCell renders a cell the way exports print it. Missing cells render empty.
func FormatCell(v interface{}) string {
	if IsMissing(v) {
		return ""
	}
	switch val := v.(type) {
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// RowKey builds a comparable key for a row: equal keys mean equal values in every column.
// Missing cells compare equal to each other.
func RowKey(row []interface{}) string {
	var sb strings.Builder
	for i, v := range row {
		if i > 0 {
			sb.WriteByte(0x1f)
		}
		if IsMissing(v) {
			sb.WriteString("\x00")
			continue
		}
		switch val := v.(type) {
		case int64:
			sb.WriteByte('i')
		case float64:
			sb.WriteByte('f')
		case time.Time:
			sb.WriteByte('t')
			sb.WriteString(val.Format(time.RFC3339Nano))
			continue
		default:
			sb.WriteByte('s')
		}
		sb.WriteString(FormatCell(v))
	}
	return sb.String()
}
