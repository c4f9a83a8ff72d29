package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TrendModel is an ordinary least squares line fitted to a GroupedSeries,
// with the market year as the sole predictor.
type TrendModel struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// Prediction is a model value for one market year.
type Prediction struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Fit runs OLS of total on year. The series must contain at least two
// distinct years, otherwise ErrInsufficientData is returned with a zero model.
//
// When every total is identical the response has zero variance and R² is
// undefined; the model is then the flat line through the constant with R2
// reported as 0.
func Fit(series GroupedSeries) (TrendModel, error) {
	if n := distinctYears(series); n < 2 {
		return TrendModel{}, fmt.Errorf("fit trend over %d distinct years: %w", n, ErrInsufficientData)
	}

	x := make([]float64, len(series))
	for i, p := range series {
		x[i] = float64(p.Year)
	}
	y := series.Totals()

	if constant(y) {
		return TrendModel{Slope: 0, Intercept: y[0], R2: 0}, nil
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	r2 := stat.RSquared(x, y, nil, intercept, slope)

	return TrendModel{
		Slope:     slope,
		Intercept: intercept,
		R2:        clamp01(r2),
	}, nil
}

// Predict evaluates slope*year + intercept for each year. Extrapolation
// distance is not bounded here.
func Predict(m TrendModel, years []int) []float64 {
	out := make([]float64, len(years))
	for i, y := range years {
		out[i] = m.Slope*float64(y) + m.Intercept
	}
	return out
}

// Forecast predicts the horizon years immediately following lastYear.
func Forecast(m TrendModel, lastYear, horizon int) []Prediction {
	if horizon <= 0 {
		return []Prediction{}
	}
	years := make([]int, horizon)
	for i := range years {
		years[i] = lastYear + 1 + i
	}
	values := Predict(m, years)

	out := make([]Prediction, horizon)
	for i := range years {
		out[i] = Prediction{Year: years[i], Value: values[i]}
	}
	return out
}

// Fitted returns the trend line evaluated at the years of the series.
func (m TrendModel) Fitted(series GroupedSeries) []Prediction {
	years := series.Years()
	values := Predict(m, years)
	out := make([]Prediction, len(years))
	for i := range years {
		out[i] = Prediction{Year: years[i], Value: values[i]}
	}
	return out
}

// Equation renders the model as "y = <slope>x + <intercept>" with two decimals.
func (m TrendModel) Equation() string {
	return fmt.Sprintf("y = %.2fx + %.2f", m.Slope, m.Intercept)
}

func distinctYears(series GroupedSeries) int {
	seen := make(map[int]struct{}, len(series))
	for _, p := range series {
		seen[p.Year] = struct{}{}
	}
	return len(seen)
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
