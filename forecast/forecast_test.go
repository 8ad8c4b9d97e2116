package forecast

import (
	"math"
	"testing"
	"time"
)

// mkSeries builds a weekday-only series ending on a Friday.
func mkSeries(ticker string, closes []float64) *Series {
	s := &Series{Ticker: ticker, Closes: closes}
	// Walk backwards from a known Friday so the last date is fixed.
	end := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC) // Friday
	dates := make([]time.Time, len(closes))
	d := end
	for i := len(closes) - 1; i >= 0; i-- {
		dates[i] = d
		d = d.AddDate(0, 0, -1)
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, -1)
		}
	}
	s.Dates = dates
	return s
}

func TestPredictSeriesLinearTrend(t *testing.T) {
	// Constant +1/day drift: AR fit on constant diffs should continue it.
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := mkSeries("TEST", closes)

	f := NewForecaster(nil, nil)
	result, err := f.PredictSeries(series, 3)
	if err != nil {
		t.Fatalf("PredictSeries: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("got %d forecasts, want 3", len(result))
	}

	// Last close 199 on Friday 2026-08-28; next business days are Mon-Wed.
	wantDates := []string{"2026-08-31", "2026-09-01", "2026-09-02"}
	wantPrices := []float64{200, 201, 202}
	for i, date := range wantDates {
		price, ok := result[date]
		if !ok {
			t.Fatalf("missing forecast for %s, have %v", date, result)
		}
		if math.Abs(price-wantPrices[i]) > 0.5 {
			t.Errorf("%s = %.2f, want ~%.2f", date, price, wantPrices[i])
		}
	}
}

func TestPredictSeriesSkipsWeekends(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50 + 0.1*float64(i)
	}
	series := mkSeries("TEST", closes)

	f := NewForecaster(nil, nil)
	result, err := f.PredictSeries(series, 7)
	if err != nil {
		t.Fatalf("PredictSeries: %v", err)
	}

	for date := range result {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			t.Fatalf("bad date key %q: %v", date, err)
		}
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			t.Errorf("forecast on weekend: %s", date)
		}
	}
}

func TestPredictSeriesShortHistoryFallsBack(t *testing.T) {
	// Below minObservations: naive model compounds the mean daily return.
	closes := []float64{100, 101, 102.01} // +1% per day
	series := mkSeries("TEST", closes)

	f := NewForecaster(nil, nil)
	result, err := f.PredictSeries(series, 2)
	if err != nil {
		t.Fatalf("PredictSeries: %v", err)
	}

	price, ok := result["2026-08-31"]
	if !ok {
		t.Fatalf("missing first forecast, have %v", result)
	}
	if math.Abs(price-103.03) > 0.01 {
		t.Errorf("first forecast = %.4f, want ~103.03", price)
	}
}

func TestPredictSeriesConstantPrice(t *testing.T) {
	// Constant closes make the AR design matrix singular; the naive model
	// must take over and hold the price flat.
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 42
	}
	series := mkSeries("TEST", closes)

	f := NewForecaster(nil, nil)
	result, err := f.PredictSeries(series, 2)
	if err != nil {
		t.Fatalf("PredictSeries: %v", err)
	}
	for date, price := range result {
		if math.Abs(price-42) > 1e-9 {
			t.Errorf("%s = %v, want 42", date, price)
		}
	}
}

func TestPredictSeriesTooShort(t *testing.T) {
	series := mkSeries("TEST", []float64{100})
	f := NewForecaster(nil, nil)
	if _, err := f.PredictSeries(series, 1); err == nil {
		t.Fatal("expected error for single-observation series")
	}
}

func TestNextBusinessDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-08-27", "2026-08-28"}, // Thu -> Fri
		{"2026-08-28", "2026-08-31"}, // Fri -> Mon
		{"2026-08-29", "2026-08-31"}, // Sat -> Mon
	}
	for _, tt := range tests {
		in, _ := time.Parse("2006-01-02", tt.in)
		got := nextBusinessDay(in).Format("2006-01-02")
		if got != tt.want {
			t.Errorf("nextBusinessDay(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFitARRecoversConstant(t *testing.T) {
	// Series with constant value c and tiny noise-free AR structure:
	// d[t] = 0.5*d[t-1] converges; check coefficients approximately.
	series := make([]float64, 200)
	series[0] = 1
	for i := 1; i < len(series); i++ {
		series[i] = 0.5 * series[i-1]
	}
	coeffs, ok := fitAR(series, 1)
	if !ok {
		t.Fatal("fitAR failed")
	}
	if math.Abs(coeffs[1]-0.5) > 1e-6 {
		t.Errorf("lag-1 coefficient = %v, want 0.5", coeffs[1])
	}
}
