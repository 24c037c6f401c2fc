// Package visualize renders the descriptive and diagnostic plots used in the
// clinstat case studies: histograms, box plots, correlation heat maps, scatter
// plots with fitted lines, residual plots, and ROC curves. All plots are built
// on gonum/plot and saved as PNG.
package visualize

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/clinstat/clinstat/metrics"
	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
)

// Histogram builds a frequency histogram of the values with the given number
// of bins.
func Histogram(values []float64, bins int, title, xLabel string) (*plot.Plot, error) {
	if len(values) == 0 {
		return nil, clinstatErrors.NewValueError("visualize.Histogram", "no values to plot")
	}
	if bins < 1 {
		return nil, clinstatErrors.NewValidationError("bins", "must be at least 1", bins)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "visualize.Histogram")
	}
	h.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(h)
	return p, nil
}

// BoxPlot draws one box per named series, side by side on a nominal X axis.
// names and series must have the same length.
func BoxPlot(title, yLabel string, names []string, series [][]float64) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, clinstatErrors.NewValueError("visualize.BoxPlot", "no series to plot")
	}
	if len(names) != len(series) {
		return nil, clinstatErrors.NewDimensionError("visualize.BoxPlot", len(series), len(names), 1)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	w := vg.Points(30)
	for i, s := range series {
		if len(s) == 0 {
			return nil, clinstatErrors.NewValueError("visualize.BoxPlot", "empty series "+names[i])
		}
		box, err := plotter.NewBoxPlot(w, float64(i), plotter.Values(s))
		if err != nil {
			return nil, clinstatErrors.Wrap(err, "visualize.BoxPlot")
		}
		p.Add(box)
	}
	p.NominalX(names...)
	return p, nil
}

// corrGrid adapts a correlation matrix to the plotter.GridXYZ interface. Rows
// are flipped so the first variable appears at the top, matching the usual
// heat map orientation.
type corrGrid struct {
	m *mat.SymDense
}

func (g corrGrid) Dims() (int, int) {
	n := g.m.SymmetricDim()
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	n := g.m.SymmetricDim()
	return g.m.At(n-1-r, c)
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// CorrelationHeatMap renders a correlation matrix as a heat map on a diverging
// blue-red palette, with -1 mapped to deep blue and +1 to deep red. names
// labels the variables along both axes.
func CorrelationHeatMap(corr *mat.SymDense, names []string, title string) (*plot.Plot, error) {
	n := corr.SymmetricDim()
	if n == 0 {
		return nil, clinstatErrors.NewValueError("visualize.CorrelationHeatMap", "empty correlation matrix")
	}
	if len(names) != n {
		return nil, clinstatErrors.NewDimensionError("visualize.CorrelationHeatMap", n, len(names), 1)
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	pal := cm.Palette(255)

	hm := plotter.NewHeatMap(corrGrid{m: corr}, pal)
	hm.Min = -1
	hm.Max = 1

	p := plot.New()
	p.Title.Text = title
	p.Add(hm)

	xTicks := make([]plot.Tick, n)
	yTicks := make([]plot.Tick, n)
	for i := 0; i < n; i++ {
		xTicks[i] = plot.Tick{Value: float64(i), Label: names[i]}
		yTicks[i] = plot.Tick{Value: float64(i), Label: names[n-1-i]}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.X.Tick.Label.Rotation = 0.785398 // 45 degrees
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YTop
	return p, nil
}

// ScatterWithFit plots (x, y) points with the fitted line
// y = intercept + slope·x spanning the observed x range.
func ScatterWithFit(x, y []float64, slope, intercept float64, title, xLabel, yLabel string) (*plot.Plot, error) {
	if len(x) == 0 {
		return nil, clinstatErrors.NewValueError("visualize.ScatterWithFit", "no points to plot")
	}
	if len(y) != len(x) {
		return nil, clinstatErrors.NewDimensionError("visualize.ScatterWithFit", len(x), len(y), 0)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	pts := make(plotter.XYs, len(x))
	minX, maxX := x[0], x[0]
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
		if x[i] < minX {
			minX = x[i]
		}
		if x[i] > maxX {
			maxX = x[i]
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "visualize.ScatterWithFit")
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)
	p.Legend.Add("Observations", scatter)

	linePts := plotter.XYs{
		{X: minX, Y: intercept + slope*minX},
		{X: maxX, Y: intercept + slope*maxX},
	}
	line, err := plotter.NewLine(linePts)
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "visualize.ScatterWithFit")
	}
	line.Width = vg.Points(2)
	line.Color = color.RGBA{R: 178, G: 34, B: 34, A: 255}
	p.Add(line)
	p.Legend.Add("Fitted line", line)
	return p, nil
}

// ResidualPlot plots residuals against fitted values with a zero reference
// line. Structure in this plot suggests a misspecified model.
func ResidualPlot(fitted, residuals *mat.VecDense, title string) (*plot.Plot, error) {
	n := fitted.Len()
	if n == 0 {
		return nil, clinstatErrors.NewValueError("visualize.ResidualPlot", "no points to plot")
	}
	if residuals.Len() != n {
		return nil, clinstatErrors.NewDimensionError("visualize.ResidualPlot", n, residuals.Len(), 0)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Fitted values"
	p.Y.Label.Text = "Residuals"

	pts := make(plotter.XYs, n)
	minX, maxX := fitted.AtVec(0), fitted.AtVec(0)
	for i := 0; i < n; i++ {
		f := fitted.AtVec(i)
		pts[i].X = f
		pts[i].Y = residuals.AtVec(i)
		if f < minX {
			minX = f
		}
		if f > maxX {
			maxX = f
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "visualize.ResidualPlot")
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	zero, err := plotter.NewLine(plotter.XYs{{X: minX, Y: 0}, {X: maxX, Y: 0}})
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "visualize.ResidualPlot")
	}
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(zero)
	return p, nil
}

// ROCPlot renders a receiver operating characteristic curve with the chance
// diagonal. The AUC appears in the legend.
func ROCPlot(points []metrics.ROCPoint, auc float64, title string) (*plot.Plot, error) {
	if len(points) == 0 {
		return nil, clinstatErrors.NewValueError("visualize.ROCPlot", "no ROC points to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(points))
	for i, pt := range points {
		pts[i].X = pt.FPR
		pts[i].Y = pt.TPR
	}
	curve, err := plotter.NewLine(pts)
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "visualize.ROCPlot")
	}
	curve.Width = vg.Points(2)
	curve.Color = color.RGBA{R: 178, G: 34, B: 34, A: 255}
	p.Add(curve)
	p.Legend.Add(fmt.Sprintf("ROC curve (AUC = %.3f)", auc), curve)

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "visualize.ROCPlot")
	}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)
	p.Legend.Add("Chance", diag)
	p.Legend.Top = false
	return p, nil
}

// SavePNG writes the plot to path as an 8x6 inch PNG.
func SavePNG(p *plot.Plot, path string) error {
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return clinstatErrors.Wrap(err, "visualize.SavePNG")
	}
	return nil
}
