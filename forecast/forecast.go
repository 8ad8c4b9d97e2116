package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prediagent/prediagent/errors"
	"github.com/prediagent/prediagent/logging"
)

// arOrder is the autoregression order applied to first-differenced closes.
const arOrder = 5

// minObservations is the shortest history the AR model is fit on.
// Shorter series fall back to the naive drift model.
const minObservations = 40

// naiveWindow is the number of recent trading days the fallback model
// averages daily returns over.
const naiveWindow = 30

// Forecaster produces closing-price forecasts from historical series.
type Forecaster struct {
	source Source
	logger *logging.Logger
}

// NewForecaster creates a forecaster reading history from the given source.
func NewForecaster(source Source, logger *logging.Logger) *Forecaster {
	if logger == nil {
		logger = logging.New()
	}
	return &Forecaster{
		source: source,
		logger: logger.WithComponent("forecast"),
	}
}

// Predict fetches a year of daily closes for ticker and forecasts the
// closing price for the next `days` business days. Keys are dates in
// YYYY-MM-DD form.
func (f *Forecaster) Predict(ctx context.Context, ticker string, days int) (map[string]float64, error) {
	if ticker == "" {
		return nil, errors.InvalidInput("ticker is required")
	}
	if days <= 0 {
		return nil, errors.InvalidInput("days must be positive")
	}

	series, err := f.source.History(ctx, ticker, DefaultLookback)
	if err != nil {
		return nil, err
	}

	return f.PredictSeries(series, days)
}

// PredictSeries forecasts from an already-fetched series.
func (f *Forecaster) PredictSeries(series *Series, days int) (map[string]float64, error) {
	if series.Len() < 2 {
		return nil, errors.New(errors.ErrCodeDataUnavailable,
			fmt.Sprintf("need at least 2 closes for %s, have %d", series.Ticker, series.Len()))
	}

	lastDate, lastClose := series.Last()

	prices, modelUsed := forecastPrices(series.Closes, lastClose, days)
	f.logger.Debug("forecast computed", map[string]interface{}{
		"ticker":       series.Ticker,
		"model":        modelUsed,
		"observations": series.Len(),
		"days":         days,
	})

	result := make(map[string]float64, days)
	date := lastDate
	for _, price := range prices {
		date = nextBusinessDay(date)
		result[date.Format("2006-01-02")] = price
	}

	return result, nil
}

// forecastPrices returns `days` forecast prices and the name of the model
// that produced them.
func forecastPrices(closes []float64, lastClose float64, days int) ([]float64, string) {
	if len(closes) >= minObservations {
		if prices, ok := arForecast(closes, lastClose, days); ok {
			return prices, "ar"
		}
	}
	return naiveForecast(closes, lastClose, days), "naive"
}

// arForecast fits an AR(arOrder) model with intercept to the first
// differences of closes and extrapolates. Returns ok=false when the fit
// is degenerate.
func arForecast(closes []float64, lastClose float64, days int) ([]float64, bool) {
	diffs := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		diffs[i-1] = closes[i] - closes[i-1]
	}

	coeffs, ok := fitAR(diffs, arOrder)
	if !ok {
		return nil, false
	}

	// Extrapolate differenced series, feeding predictions back in.
	window := make([]float64, arOrder)
	copy(window, diffs[len(diffs)-arOrder:])

	prices := make([]float64, 0, days)
	price := lastClose
	for step := 0; step < days; step++ {
		next := coeffs[0]
		for j := 0; j < arOrder; j++ {
			next += coeffs[j+1] * window[arOrder-1-j]
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return nil, false
		}
		copy(window, window[1:])
		window[arOrder-1] = next
		price += next
		prices = append(prices, price)
	}

	return prices, true
}

// fitAR solves the least-squares AR(p) fit with intercept over the normal
// equations. coeffs[0] is the intercept, coeffs[1..p] the lag weights.
func fitAR(series []float64, p int) ([]float64, bool) {
	n := len(series)
	if n <= p+1 {
		return nil, false
	}

	dim := p + 1
	// Accumulate X'X and X'y for rows t = p..n-1 with regressors
	// [1, series[t-1], ..., series[t-p]].
	xtx := make([][]float64, dim)
	for i := range xtx {
		xtx[i] = make([]float64, dim)
	}
	xty := make([]float64, dim)

	row := make([]float64, dim)
	for t := p; t < n; t++ {
		row[0] = 1
		for j := 1; j <= p; j++ {
			row[j] = series[t-j]
		}
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * series[t]
		}
	}

	return solveLinear(xtx, xty)
}

// solveLinear solves Ax = b by Gaussian elimination with partial pivoting.
func solveLinear(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	for col := 0; col < n; col++ {
		// Partial pivot
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false // singular
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}

// naiveForecast compounds the mean daily return of the most recent closes.
func naiveForecast(closes []float64, lastClose float64, days int) []float64 {
	window := closes
	if len(window) > naiveWindow {
		window = window[len(window)-naiveWindow:]
	}

	var returnSum float64
	var count int
	for i := 1; i < len(window); i++ {
		if window[i-1] != 0 {
			returnSum += window[i]/window[i-1] - 1
			count++
		}
	}

	meanReturn := 0.0
	if count > 0 {
		meanReturn = returnSum / float64(count)
	}

	prices := make([]float64, 0, days)
	price := lastClose
	for step := 0; step < days; step++ {
		price *= 1 + meanReturn
		prices = append(prices, price)
	}
	return prices
}

// nextBusinessDay returns the next weekday after d.
func nextBusinessDay(d time.Time) time.Time {
	d = d.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
