package forecast

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/prediagent/prediagent/errors"
)

// Predictor is the surface shared by the fitted forecaster and the demo
// forecaster, so callers can swap one for the other.
type Predictor interface {
	Predict(ctx context.Context, ticker string, days int) (map[string]float64, error)
}

// Demo produces forecasts without any market data: a random walk around
// a random base price, keyed by the same business-day dates the fitted
// model uses. A fixed seed makes runs repeatable.
type Demo struct {
	rng *rand.Rand
	now func() time.Time
}

// NewDemo creates a demo forecaster seeded with the given value.
func NewDemo(seed int64) *Demo {
	return &Demo{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Predict returns `days` synthetic prices within ±5 of a base price
// drawn from [100, 500), rounded to cents, starting on the next
// business day.
func (d *Demo) Predict(ctx context.Context, ticker string, days int) (map[string]float64, error) {
	if ticker == "" {
		return nil, errors.InvalidInput("ticker is required")
	}
	if days <= 0 {
		return nil, errors.InvalidInput("days must be positive")
	}

	base := 100 + d.rng.Float64()*400

	result := make(map[string]float64, days)
	date := d.now()
	for i := 0; i < days; i++ {
		date = nextBusinessDay(date)
		price := base + (d.rng.Float64()*10 - 5)
		result[date.Format("2006-01-02")] = math.Round(price*100) / 100
	}
	return result, nil
}
