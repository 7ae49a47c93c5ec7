// Package export writes cleaned tables to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

// WriteCSV writes the header and rows of a table without the row index.
// Missing cells are written empty. Parent directories are created as needed.
func WriteCSV(t *model.Table, path string) error {
	if t == nil {
		return fmt.Errorf("table cannot be nil")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.ColumnNames()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for c := range record {
			record[c] = model.FormatCell(row[c])
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("failed to write CSV row %d: %w", t.Index[i], err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CSV: %w", err)
	}
	return nil
}
