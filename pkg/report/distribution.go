package report

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

var (
	histogramColor = color.RGBA{R: 31, G: 119, B: 180, A: 160}
	kdeColor       = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// SturgesBins returns the histogram bin count for n values: ceil(log2(n)) + 1
func SturgesBins(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// ScottBandwidth returns the Gaussian kernel bandwidth std * n^(-1/5). Zero when undefined.
func ScottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd := stat.StdDev(values, nil)
	if math.IsNaN(sd) || sd <= 0 {
		return 0
	}
	return sd * math.Pow(float64(len(values)), -0.2)
}

// KernelDensity returns the Gaussian kernel density estimate of values with the given bandwidth
func KernelDensity(values []float64, bandwidth float64) func(float64) float64 {
	n := float64(len(values))
	return func(x float64) float64 {
		sum := 0.0
		for _, v := range values {
			sum += distuv.UnitNormal.Prob((x - v) / bandwidth)
		}
		return sum / (n * bandwidth)
	}
}

// PlotDistribution writes a histogram with a density curve for one numeric column.
// Columns without values are skipped and return an empty path.
func (r *Reporter) PlotDistribution(t *model.Table, column string) (string, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return "", fmt.Errorf("column %q not found", column)
	}
	return r.plotDistributionAt(t, idx)
}

// plotDistributionAt plots the column at position idx
func (r *Reporter) plotDistributionAt(t *model.Table, idx int) (string, error) {
	col := t.Columns[idx]
	if !col.Type.IsNumeric() {
		return "", fmt.Errorf("column %q is not numeric (%s)", col.Name, col.Type)
	}

	values := t.ColumnValues(idx)
	if len(values) == 0 {
		r.logger.Info("Skipping distribution of empty column", zap.String("column", col.Name))
		return "", nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Distribution of %s", col.Name)
	p.X.Label.Text = col.Name
	p.Y.Label.Text = "Count"

	hist, err := plotter.NewHist(plotter.Values(values), SturgesBins(len(values)))
	if err != nil {
		return "", fmt.Errorf("failed to build histogram for %s: %w", col.Name, err)
	}
	hist.FillColor = histogramColor
	p.Add(hist)

	if bw := ScottBandwidth(values); bw > 0 {
		density := KernelDensity(values, bw)
		scale := float64(len(values)) * hist.Width
		curve := plotter.NewFunction(func(x float64) float64 { return density(x) * scale })
		curve.XMin = floats.Min(values)
		curve.XMax = floats.Max(values)
		curve.Samples = 200
		curve.Color = kdeColor
		curve.Width = vg.Points(2)
		p.Add(curve)
	}

	path := r.path(DistributionFileName(col.Name))
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("failed to save distribution of %s: %w", col.Name, err)
	}

	r.logger.Debug("Saved distribution figure",
		zap.String("column", col.Name),
		zap.String("path", path),
		zap.Int("values", len(values)))
	return path, nil
}

// safeFileComponent keeps a column name usable as part of a file name
func safeFileComponent(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}
