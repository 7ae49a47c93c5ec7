// pkg/converter/converter.go
package converter

import (
	"strings"

	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// Cell is one spreadsheet cell as read from the workbook.
// Raw is the stored value (numbers unformatted, dates as serials);
// Formatted is the value as the sheet displays it.
type Cell struct {
	Raw       string
	Formatted string
}

// TypeConverter infers column types and converts spreadsheet cells into typed values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
	nulls  map[string]struct{}
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Cell texts treated as missing values
	NullValues []string
	// Whether date serials use the 1904 epoch
	Date1904 bool
	// Whether datetime inference is attempted at all
	DetectDates bool
}

// DefaultNullValues mirrors the usual spreadsheet/pandas missing markers
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		NullValues:  DefaultNullValues,
		Date1904:    false,
		DetectDates: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	nulls := make(map[string]struct{}, len(config.NullValues))
	for _, v := range config.NullValues {
		nulls[v] = struct{}{}
	}
	return &TypeConverter{
		logger: logger,
		config: config,
		nulls:  nulls,
	}
}

// IsNull determines if a cell should be treated as missing
func (c *TypeConverter) IsNull(cell Cell) bool {
	raw := strings.TrimSpace(cell.Raw)
	if raw == "" {
		return true
	}
	_, ok := c.nulls[raw]
	return ok
}

// cellKind is the narrowest type a single non-missing cell fits
type cellKind int

const (
	kindInteger cellKind = iota
	kindReal
	kindDateTime
	kindText
)

// InferColumnType picks the column type that fits every non-missing cell.
// Integers widen to reals; any text cell, or a mix of dates and numbers, makes the column text.
// A column with no values is text.
func (c *TypeConverter) InferColumnType(name string, cells []Cell) model.ColumnType {
	seen := map[cellKind]int{}
	for _, cell := range cells {
		if c.IsNull(cell) {
			continue
		}
		seen[c.classify(cell)]++
	}

	var colType model.ColumnType
	switch {
	case len(seen) == 0, seen[kindText] > 0:
		colType = model.ColumnText
	case seen[kindDateTime] > 0 && (seen[kindInteger] > 0 || seen[kindReal] > 0):
		colType = model.ColumnText
	case seen[kindDateTime] > 0:
		colType = model.ColumnDateTime
	case seen[kindReal] > 0:
		colType = model.ColumnReal
	default:
		colType = model.ColumnInteger
	}

	c.logger.Debug("Inferred column type",
		zap.String("column", name),
		zap.String("type", colType.String()),
		zap.Int("values", sumKinds(seen)))
	return colType
}

func sumKinds(seen map[cellKind]int) int {
	total := 0
	for _, n := range seen {
		total += n
	}
	return total
}

func (c *TypeConverter) classify(cell Cell) cellKind {
	raw := strings.TrimSpace(cell.Raw)
	if hasLeadingZero(raw) || isBoolean(cell) {
		return kindText
	}
	if _, ok := parseInteger(raw); ok {
		if c.isFormattedAsDate(cell) {
			return kindDateTime
		}
		return kindInteger
	}
	if _, ok := parseReal(raw); ok {
		if c.isFormattedAsDate(cell) {
			return kindDateTime
		}
		return kindReal
	}
	if c.config.DetectDates && DetectTimeFormat(raw) != "" {
		return kindDateTime
	}
	return kindText
}

// isFormattedAsDate reports whether a numeric cell is displayed as a date or time
func (c *TypeConverter) isFormattedAsDate(cell Cell) bool {
	if !c.config.DetectDates {
		return false
	}
	formatted := strings.TrimSpace(cell.Formatted)
	if formatted == "" || formatted == strings.TrimSpace(cell.Raw) {
		return false
	}
	if _, ok := parseReal(formatted); ok {
		return false
	}
	return DetectTimeFormat(formatted) != ""
}

// isBoolean reports a boolean cell: stored as 1/0, displayed as TRUE/FALSE.
// Flags are categorical and stay out of numeric statistics.
func isBoolean(cell Cell) bool {
	raw := strings.TrimSpace(cell.Raw)
	if raw != "1" && raw != "0" {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(cell.Formatted)) {
	case "TRUE", "FALSE":
		return true
	default:
		return false
	}
}

// hasLeadingZero reports codes such as "007" that must keep their text form
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.' && s[1] != 'e' && s[1] != 'E'
}
