// Package report renders trend analyses as PNG/SVG charts and XLSX workbooks.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/coffee-trend-service/internal/pipeline"
)

// ErrNoData is returned when an analysis has nothing to draw.
var ErrNoData = errors.New("nothing to render")

var (
	barColor   = color.RGBA{R: 99, G: 110, B: 250, A: 255}
	trendColor = color.RGBA{R: 220, G: 20, B: 60, A: 255}
)

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// TrendChart draws the yearly totals as bars with the fitted trend line on top.
// Analyses without a model get the bars only.
func TrendChart(a pipeline.Analysis) (*plot.Plot, error) {
	if len(a.Series) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = a.Title()
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = fmt.Sprintf("Value (%s)", a.Unit)

	bars, err := plotter.NewBarChart(plotter.Values(a.Series.Totals()), vg.Points(24))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars, plotter.NewGrid())
	p.Legend.Add("Value", bars)

	// Bars sit at x = 0..n-1, so the trend line is drawn on the same index axis.
	if a.HasTrend() {
		pts := make(plotter.XYs, len(a.Fitted))
		for i, f := range a.Fitted {
			pts[i].X = float64(i)
			pts[i].Y = f.Value
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("trend line: %w", err)
		}
		line.Color = trendColor
		line.Width = vg.Points(3)
		points.Color = trendColor
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add("Trend", line, points)
	}

	labels := make([]string, len(a.Series))
	for i, y := range a.Series.Years() {
		labels[i] = fmt.Sprintf("%d", y)
	}
	p.NominalX(labels...)
	p.Legend.Top = true

	return p, nil
}

// ForecastChart draws the predicted values for the forecast horizon.
func ForecastChart(a pipeline.Analysis) (*plot.Plot, error) {
	if !a.HasTrend() || len(a.Forecast) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Prediction for the Coming Years"
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Trend"

	pts := make(plotter.XYs, len(a.Forecast))
	for i, f := range a.Forecast {
		pts[i].X = float64(f.Year)
		pts[i].Y = f.Value
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("forecast line: %w", err)
	}
	line.Color = trendColor
	line.Width = vg.Points(2)
	points.Color = trendColor
	p.Add(plotter.NewGrid(), line, points)
	p.X.Tick.Marker = yearTicks{}

	return p, nil
}

// WriteChart encodes p to w. format is any extension gonum/plot supports
// ("png", "svg", "pdf").
func WriteChart(w io.Writer, p *plot.Plot, format string) error {
	wt, err := p.WriterTo(chartWidth, chartHeight, format)
	if err != nil {
		return fmt.Errorf("encode %s chart: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s chart: %w", format, err)
	}
	return nil
}

// yearTicks places one labelled tick on every whole year.
type yearTicks struct{}

func (yearTicks) Ticks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for y := int(lo); float64(y) <= hi; y++ {
		if float64(y) < lo {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: fmt.Sprintf("%d", y)})
	}
	return ticks
}
