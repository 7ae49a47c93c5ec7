// Package loader reads one sheet of a spreadsheet workbook into a model.Table.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/converter"
	"github.com/liav-dl/rehosp-prep/pkg/model"
)

var (
	// ErrFileNotFound is returned when the workbook path does not exist
	ErrFileNotFound = errors.New("workbook not found")
	// ErrSheetNotFound is returned when the workbook has no sheet with the requested name
	ErrSheetNotFound = errors.New("sheet not found")
)

// SheetLoader materializes whole sheets; there are no partial loads
type SheetLoader struct {
	converter *converter.TypeConverter
	logger    *zap.Logger
}

// NewSheetLoader creates a loader using the given converter for type inference
func NewSheetLoader(conv *converter.TypeConverter, logger *zap.Logger) *SheetLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conv == nil {
		conv = converter.NewTypeConverter(logger)
	}
	return &SheetLoader{
		converter: conv,
		logger:    logger.Named("loader"),
	}
}

// LoadSheet reads a sheet with the default converter
func LoadSheet(path, sheet string) (*model.Table, error) {
	return NewSheetLoader(nil, nil).Load(path, sheet)
}

// Load reads the full contents of a sheet. The first row is the header.
func (l *SheetLoader) Load(path, sheet string) (*model.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat workbook %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			l.logger.Warn("Failed to close workbook", zap.String("path", path), zap.Error(cerr))
		}
	}()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q in %s (available: %s)",
			ErrSheetNotFound, sheet, path, strings.Join(f.GetSheetList(), ", "))
	}

	rawRows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	formattedRows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	table, err := l.buildTable(sheet, rawRows, formattedRows)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loaded sheet",
		zap.String("path", path),
		zap.String("sheet", sheet),
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", len(table.Columns)))
	return table, nil
}

// buildTable turns the cell grids into a typed table
func (l *SheetLoader) buildTable(sheet string, rawRows, formattedRows [][]string) (*model.Table, error) {
	if len(rawRows) == 0 {
		return model.NewTable(sheet, nil), nil
	}

	header := headerNames(rawRows[0], formattedRows)
	body := rawRows[1:]

	// Column-major view of the body for inference
	cells := make([][]converter.Cell, len(header))
	for c := range header {
		cells[c] = make([]converter.Cell, len(body))
		for r := range body {
			cells[c][r] = cellAt(rawRows, formattedRows, r+1, c)
		}
	}

	columns := make([]model.Column, len(header))
	for c, name := range header {
		columns[c] = model.Column{
			Name: name,
			Type: l.converter.InferColumnType(name, cells[c]),
		}
	}

	table := model.NewTable(sheet, columns)
	for r := range body {
		values := make([]interface{}, len(columns))
		for c, col := range columns {
			v, err := l.converter.ConvertCell(cells[c][r], col.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", r+2, col.Name, err)
			}
			values[c] = v
		}
		table.AppendRow(values...)
	}
	return table, nil
}

// headerNames derives unique column names from the first row.
// Blank names become "Unnamed: <i>"; repeats get ".1", ".2" suffixes,
// so "A, A, A.1" becomes "A, A.1, A.1.1".
func headerNames(raw []string, formattedRows [][]string) []string {
	width := len(raw)
	if len(formattedRows) > 0 && len(formattedRows[0]) > width {
		width = len(formattedRows[0])
	}

	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		cell := cellAt([][]string{raw}, formattedRows, 0, i)
		name := strings.TrimSpace(cell.Formatted)
		if name == "" {
			name = strings.TrimSpace(cell.Raw)
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		// suffix until unused; generated names count as taken too
		for n := seen[name]; n > 0; n = seen[name] {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n)
		}
		seen[name]++
		names[i] = name
	}
	return names
}

// cellAt returns the cell at (row, col); short rows read as empty cells
func cellAt(rawRows, formattedRows [][]string, row, col int) converter.Cell {
	var cell converter.Cell
	if row < len(rawRows) && col < len(rawRows[row]) {
		cell.Raw = rawRows[row][col]
	}
	if row < len(formattedRows) && col < len(formattedRows[row]) {
		cell.Formatted = formattedRows[row][col]
	}
	return cell
}
