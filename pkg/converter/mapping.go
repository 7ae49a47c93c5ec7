// pkg/converter/mapping.go
package converter

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// SQLType maps a column type to a column type understood by PostgreSQL, Snowflake and SQLite
func (c *TypeConverter) SQLType(colType model.ColumnType) string {
	switch colType {
	case model.ColumnInteger:
		return "BIGINT"
	case model.ColumnReal:
		return "DOUBLE PRECISION"
	case model.ColumnDateTime:
		return "TIMESTAMP"
	case model.ColumnText:
		return "TEXT"
	default:
		c.logger.Warn("Unknown column type encountered",
			zap.Int("columnType", int(colType)))
		return "TEXT"
	}
}

// GenerateColumnDefinitions creates SQL column definitions for a table.
// Every column is nullable; the cleaner guarantees values but the warehouse does not enforce it.
func (c *TypeConverter) GenerateColumnDefinitions(t *model.Table) []string {
	definitions := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		definitions = append(definitions, fmt.Sprintf("%s %s NULL",
			QuoteIdentifier(col.Name),
			c.SQLType(col.Type)))
	}
	return definitions
}

// ConvertValueForSQL converts a cell to a driver-compatible argument
func (c *TypeConverter) ConvertValueForSQL(value interface{}) interface{} {
	if model.IsMissing(value) {
		return nil
	}
	if t, ok := value.(time.Time); ok {
		return t.UTC()
	}
	return value
}

// QuoteIdentifier properly quotes and escapes a SQL identifier, preserving case
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// timeLayouts covers ISO forms and the layouts spreadsheets render for built-in date formats
var timeLayouts = []string{
	time.RFC3339,                 // ISO8601 with timezone
	"2006-01-02T15:04:05",        // ISO8601 local
	"2006-01-02 15:04:05",        // SQL timestamp
	"2006-01-02 15:04",           // SQL timestamp without seconds
	"2006-01-02",                 // Date only
	"01-02-06",                   // mm-dd-yy
	"1/2/06 15:04",               // m/d/yy h:mm
	"1/2/06",                     // m/d/yy
	"01/02/2006",                 // mm/dd/yyyy
	"1/2/2006 15:04",             // m/d/yyyy h:mm
	"1/2/2006",                   // m/d/yyyy
	"2-Jan-06",                   // d-mmm-yy
	"02-Jan-2006",                // dd-mmm-yyyy
	"Jan-06",                     // mmm-yy
	"15:04:05",                   // Time only
	"15:04",                      // h:mm
	"3:04 PM",                    // h:mm AM/PM
	"3:04:05 PM",                 // h:mm:ss AM/PM
	"2006-01-02T15:04:05.999999", // ISO8601 with microseconds
}

// DetectTimeFormat analyzes a value to determine its timestamp layout.
// Returns "" when no layout matches.
func DetectTimeFormat(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return layout
		}
	}
	return ""
}
