package forecast

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/prediagent/prediagent/errors"
)

func TestDemoPredict(t *testing.T) {
	demo := NewDemo(42)
	demo.now = func() time.Time {
		return time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC) // Friday
	}

	result, err := demo.Predict(context.Background(), "NVDA", 5)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(result) != 5 {
		t.Fatalf("got %d predictions, want 5", len(result))
	}

	// Business days only: Friday rolls to Monday, weekend skipped.
	want := []string{"2026-08-31", "2026-09-01", "2026-09-02", "2026-09-03", "2026-09-04"}
	for _, date := range want {
		price, ok := result[date]
		if !ok {
			t.Fatalf("missing date %s in %v", date, result)
		}
		if price < 95 || price > 505 {
			t.Errorf("price %v on %s outside the demo range", price, date)
		}
	}
}

func TestDemoPredictSeeded(t *testing.T) {
	now := func() time.Time {
		return time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	}
	a := NewDemo(7)
	a.now = now
	b := NewDemo(7)
	b.now = now

	ra, err := a.Predict(context.Background(), "MSFT", 3)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := b.Predict(context.Background(), "MSFT", 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ra, rb) {
		t.Errorf("same seed produced %v and %v", ra, rb)
	}
}

func TestDemoPredictInput(t *testing.T) {
	demo := NewDemo(1)

	if _, err := demo.Predict(context.Background(), "", 5); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty ticker: err = %v", err)
	}
	if _, err := demo.Predict(context.Background(), "NVDA", 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero days: err = %v", err)
	}
}
