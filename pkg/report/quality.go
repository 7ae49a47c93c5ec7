package report

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

var (
	missingColor   = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	duplicateColor = color.RGBA{R: 255, G: 165, A: 255}
	negativeColor  = color.RGBA{R: 144, G: 238, B: 144, A: 255}
)

// ColumnPercent is a percentage attached to one column
type ColumnPercent struct {
	Column  string
	Percent float64
}

// QualityStats summarizes missing, duplicated and negative data in a table
type QualityStats struct {
	Missing    []ColumnPercent // every column, header order
	Duplicated float64         // rows equal to an earlier row
	Negative   []ColumnPercent // numeric columns only
}

// ComputeQualityStats measures data quality. Percentages are over all rows; an empty table yields zeros.
func ComputeQualityStats(t *model.Table) QualityStats {
	stats := QualityStats{
		Missing:  make([]ColumnPercent, 0, len(t.Columns)),
		Negative: make([]ColumnPercent, 0),
	}
	rows := t.NumRows()

	percent := func(n int) float64 {
		if rows == 0 {
			return 0
		}
		return float64(n) * 100 / float64(rows)
	}

	for c, col := range t.Columns {
		missing, negative := 0, 0
		for _, row := range t.Rows {
			if model.IsMissing(row[c]) {
				missing++
				continue
			}
			if f, ok := model.ToFloat(row[c]); ok && f < 0 {
				negative++
			}
		}
		stats.Missing = append(stats.Missing, ColumnPercent{Column: col.Name, Percent: percent(missing)})
		if col.Type.IsNumeric() {
			stats.Negative = append(stats.Negative, ColumnPercent{Column: col.Name, Percent: percent(negative)})
		}
	}

	seen := make(map[string]struct{}, rows)
	duplicated := 0
	for _, row := range t.Rows {
		key := model.RowKey(row)
		if _, ok := seen[key]; ok {
			duplicated++
			continue
		}
		seen[key] = struct{}{}
	}
	stats.Duplicated = percent(duplicated)

	return stats
}

// VisualizeDataQuality writes the three-panel data-quality figure for a stage
func (r *Reporter) VisualizeDataQuality(t *model.Table, stage Stage) (string, error) {
	if err := stage.Validate(); err != nil {
		return "", err
	}

	stats := ComputeQualityStats(t)

	missing, err := percentBarPlot(fmt.Sprintf("Missing Data Percentage (%s)", stage), stats.Missing, missingColor)
	if err != nil {
		return "", fmt.Errorf("failed to plot missing data: %w", err)
	}
	duplicated, err := percentBarPlot(fmt.Sprintf("Duplicated Data Percentage (%s)", stage),
		[]ColumnPercent{{Column: "Duplicated Rows", Percent: stats.Duplicated}}, duplicateColor)
	if err != nil {
		return "", fmt.Errorf("failed to plot duplicated data: %w", err)
	}
	negative, err := percentBarPlot(fmt.Sprintf("Negative Data Percentage (%s)", stage), stats.Negative, negativeColor)
	if err != nil {
		return "", fmt.Errorf("failed to plot negative data: %w", err)
	}

	path := r.path(QualityFileName(stage))
	if err := saveStacked(path, vg.Inch*10, vg.Inch*15, missing, duplicated, negative); err != nil {
		return "", err
	}

	r.logger.Info("Saved data quality figure",
		zap.String("stage", string(stage)),
		zap.String("path", path),
		zap.Float64("duplicated_percent", stats.Duplicated))
	return path, nil
}

// percentBarPlot draws one bar per entry. An empty entry list yields a titled, empty panel.
func percentBarPlot(title string, entries []ColumnPercent, fill color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Percentage"
	p.Y.Min = 0
	p.Y.Max = 100

	if len(entries) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(entries))
	names := make([]string, len(entries))
	for i, e := range entries {
		values[i] = e.Percent
		names[i] = e.Column
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.Color = fill
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars)
	p.NominalX(names...)
	if len(names) > 1 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	return p, nil
}

// saveStacked renders plots top to bottom into one PNG
func saveStacked(path string, width, height vg.Length, plots ...*plot.Plot) error {
	img := vgimg.New(width, height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
		PadY:      vg.Millimeter * 10,
	}

	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}
	canvases := plot.Align(grid, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
