package report

import (
	"fmt"
	"image/color"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

var undefinedColor = color.Gray{Y: 200}

// CorrelationMatrix holds pairwise Pearson coefficients between numeric columns
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64 // NaN where a coefficient is undefined
}

// Correlate computes the Pearson correlation of the numeric columns over rows where all of them are present.
// With fewer than two such rows every coefficient is NaN.
func Correlate(t *model.Table) CorrelationMatrix {
	numeric := t.NumericColumns()
	cm := CorrelationMatrix{
		Columns: make([]string, len(numeric)),
		Values:  make([][]float64, len(numeric)),
	}
	for i, c := range numeric {
		cm.Columns[i] = t.Columns[c].Name
		cm.Values[i] = make([]float64, len(numeric))
		for j := range cm.Values[i] {
			cm.Values[i][j] = math.NaN()
		}
	}
	if len(numeric) == 0 {
		return cm
	}

	data := make([]float64, 0, t.NumRows()*len(numeric))
	rows := 0
	for _, row := range t.Rows {
		complete := true
		for _, c := range numeric {
			if _, ok := model.ToFloat(row[c]); !ok {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for _, c := range numeric {
			f, _ := model.ToFloat(row[c])
			data = append(data, f)
		}
		rows++
	}
	if rows < 2 {
		return cm
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, mat.NewDense(rows, len(numeric), data), nil)
	for i := range numeric {
		for j := range numeric {
			v := corr.At(i, j)
			if math.IsInf(v, 0) {
				v = math.NaN()
			}
			cm.Values[i][j] = v
		}
	}
	return cm
}

// PlotCorrelation writes an annotated heatmap of the numeric column correlations.
// Tables without numeric columns are skipped and return an empty path.
func (r *Reporter) PlotCorrelation(t *model.Table) (string, error) {
	cm := Correlate(t)
	n := len(cm.Columns)
	if n == 0 {
		r.logger.Info("No numeric data available to compute correlations.")
		return "", nil
	}

	colors := moreland.SmoothBlueRed()
	colors.SetMin(-1)
	colors.SetMax(1)

	p := plot.New()
	p.Title.Text = "Correlation Matrix"

	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for i := 0; i < n; i++ {
		y := float64(n - 1 - i)
		for j := 0; j < n; j++ {
			x := float64(j)
			v := cm.Values[i][j]

			fill := color.Color(undefinedColor)
			if !math.IsNaN(v) {
				c, err := colors.At(math.Max(-1, math.Min(1, v)))
				if err != nil {
					return "", fmt.Errorf("failed to map correlation %v to a color: %w", v, err)
				}
				fill = c
			}

			cell, err := plotter.NewPolygon(plotter.XYs{
				{X: x - 0.5, Y: y - 0.5},
				{X: x + 0.5, Y: y - 0.5},
				{X: x + 0.5, Y: y + 0.5},
				{X: x - 0.5, Y: y + 0.5},
			})
			if err != nil {
				return "", fmt.Errorf("failed to build heatmap cell: %w", err)
			}
			cell.Color = fill
			cell.LineStyle.Width = vg.Length(0)
			p.Add(cell)

			xys = append(xys, plotter.XY{X: x, Y: y})
			labels = append(labels, formatCoefficient(v))
		}
	}

	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return "", fmt.Errorf("failed to annotate heatmap: %w", err)
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = draw.XCenter
		annotations.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(annotations)

	xTicks := make([]plot.Tick, n)
	yTicks := make([]plot.Tick, n)
	for i, name := range cm.Columns {
		xTicks[i] = plot.Tick{Value: float64(i), Label: name}
		yTicks[i] = plot.Tick{Value: float64(n - 1 - i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(n)-0.5
	if n > 1 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}

	path := r.path(CorrelationFileName)
	if err := p.Save(10*vg.Inch, 8*vg.Inch, path); err != nil {
		return "", fmt.Errorf("failed to save correlation matrix: %w", err)
	}

	r.logger.Info("Saved correlation matrix",
		zap.String("path", path),
		zap.Int("columns", n))
	return path, nil
}

func formatCoefficient(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}
