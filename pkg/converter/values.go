// pkg/converter/values.go
package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// ConvertCell converts a cell to the Go value stored in a column of the given type.
// Missing cells convert to nil.
func (c *TypeConverter) ConvertCell(cell Cell, colType model.ColumnType) (interface{}, error) {
	// Handle NULL values
	if c.IsNull(cell) {
		return nil, nil
	}

	raw := strings.TrimSpace(cell.Raw)

	switch colType {
	case model.ColumnInteger:
		v, ok := parseInteger(raw)
		if !ok {
			return nil, fmt.Errorf("cannot convert '%s' to integer", raw)
		}
		return v, nil

	case model.ColumnReal:
		v, ok := parseReal(raw)
		if !ok {
			return nil, fmt.Errorf("cannot convert '%s' to real", raw)
		}
		return v, nil

	case model.ColumnDateTime:
		return c.convertToTimestamp(raw)

	default:
		return c.convertToText(cell), nil
	}
}

// convertToText keeps the displayed text of a cell
func (c *TypeConverter) convertToText(cell Cell) string {
	if cell.Formatted != "" {
		return cell.Formatted
	}
	return cell.Raw
}

// convertToTimestamp converts a date serial or a date string to time.Time
func (c *TypeConverter) convertToTimestamp(raw string) (interface{}, error) {
	if serial, ok := parseReal(raw); ok {
		t, err := excelize.ExcelDateToTime(serial, c.config.Date1904)
		if err != nil {
			return nil, fmt.Errorf("cannot convert serial '%s' to timestamp: %w", raw, err)
		}
		return t, nil
	}

	// Detect format (if possible)
	format := DetectTimeFormat(raw)
	if format == "" {
		return nil, fmt.Errorf("cannot parse '%s' as timestamp", raw)
	}
	parsed, err := time.Parse(format, raw)
	if err != nil {
		return nil, fmt.Errorf("cannot parse '%s' as timestamp: %w", raw, err)
	}
	return parsed, nil
}

// parseInteger accepts base-10 integers only, so codes like "0x1F" or "010" stay literal
func parseInteger(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseReal accepts finite decimal or scientific notation
func parseReal(s string) (float64, bool) {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.HasPrefix(lower, "0x") {
		return 0, false
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
