package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	t := NewTable("hospitalization1", []Column{
		{Name: "Patient", Type: ColumnText},
		{Name: "Number of Days", Type: ColumnInteger},
		{Name: "Weight", Type: ColumnReal},
	})
	t.AppendRow("p1", int64(3), 71.5)
	t.AppendRow("p2", nil, math.NaN())
	t.AppendRow("p3", int64(12))
	return t
}

func TestTable_AppendRowPadsAndIndexes(t *testing.T) {
	tbl := sampleTable()

	assert.Equal(t, Shape{Rows: 3, Columns: 3}, tbl.Shape())
	assert.Equal(t, "(3, 3)", tbl.Shape().String())
	assert.Equal(t, []int{0, 1, 2}, tbl.Index)
	assert.Len(t, tbl.Rows[2], 3)
	assert.Nil(t, tbl.Rows[2][2])

	tbl.AppendRow("p4", int64(1), 1.0, "extra")
	assert.Len(t, tbl.Rows[3], 3)
}

func TestTable_FilterPreservesIndex(t *testing.T) {
	tbl := sampleTable()

	out := tbl.Filter(func(i int, row []interface{}) bool { return i != 1 })

	assert.Equal(t, []int{0, 2}, out.Index)
	assert.Equal(t, 3, tbl.NumRows())

	out.AppendRow("p9", int64(1), 2.0)
	assert.Equal(t, 3, out.Index[2])
}

func TestTable_CloneIsDeep(t *testing.T) {
	tbl := sampleTable()
	clone := tbl.Clone()

	clone.Rows[0][0] = "changed"

	assert.Equal(t, "p1", tbl.Rows[0][0])
	assert.False(t, tbl.Equal(clone))
}

func TestTable_ColumnLookup(t *testing.T) {
	tbl := sampleTable()

	assert.Equal(t, 1, tbl.ColumnIndex(" number of days "))
	assert.Equal(t, -1, tbl.ColumnIndex("missing"))
	require.NotNil(t, tbl.GetColumnByName("WEIGHT"))
	assert.Nil(t, tbl.GetColumnByName("missing"))
	assert.Equal(t, []int{1, 2}, tbl.NumericColumns())
	assert.Equal(t, []string{"Patient", "Number of Days", "Weight"}, tbl.ColumnNames())
}

func TestTable_ColumnLookupPrefersExactName(t *testing.T) {
	tbl := NewTable("s", []Column{
		{Name: "days", Type: ColumnText},
		{Name: "Days", Type: ColumnInteger},
	})

	assert.Equal(t, 1, tbl.ColumnIndex("Days"))
	assert.Equal(t, 0, tbl.ColumnIndex("days"))
	assert.Equal(t, 0, tbl.ColumnIndex("DAYS"))
}

func TestTable_ColumnValuesSkipMissing(t *testing.T) {
	tbl := sampleTable()

	assert.Equal(t, []float64{3, 12}, tbl.ColumnValues(1))
	assert.Equal(t, []float64{71.5}, tbl.ColumnValues(2))
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(nil))
	assert.True(t, IsMissing(math.NaN()))
	assert.True(t, IsMissing(time.Time{}))
	assert.False(t, IsMissing(""))
	assert.False(t, IsMissing(int64(0)))
	assert.False(t, IsMissing(0.0))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "-4", FormatCell(int64(-4)))
	assert.Equal(t, "2.5", FormatCell(2.5))
	assert.Equal(t, "3", FormatCell(3.0))
	assert.Equal(t, "2021-03-04 10:30:00", FormatCell(time.Date(2021, 3, 4, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, "a", FormatCell("a"))
}

func TestRowKey(t *testing.T) {
	assert.Equal(t, RowKey([]interface{}{int64(1), nil}), RowKey([]interface{}{int64(1), math.NaN()}))
	assert.NotEqual(t, RowKey([]interface{}{int64(1)}), RowKey([]interface{}{"1"}))
	assert.NotEqual(t, RowKey([]interface{}{int64(1)}), RowKey([]interface{}{1.0}))
	assert.NotEqual(t, RowKey([]interface{}{"a", "b"}), RowKey([]interface{}{"a\x1fb"}))
}

func TestColumnType(t *testing.T) {
	assert.True(t, ColumnInteger.IsNumeric())
	assert.True(t, ColumnReal.IsNumeric())
	assert.False(t, ColumnDateTime.IsNumeric())
	assert.False(t, ColumnText.IsNumeric())
	assert.Equal(t, "int64", ColumnInteger.String())
	assert.Equal(t, "datetime", ColumnDateTime.String())
}

func TestCleaningReport_RowsRemoved(t *testing.T) {
	r := CleaningReport{DuplicatesRemoved: 2, MissingRemoved: 1, NegativesRemoved: 4}
	assert.Equal(t, 7, r.RowsRemoved())
}
