// Package forecast provides historical price retrieval and closing-price
// forecasting for the stock prediction tool.
package forecast

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/prediagent/prediagent/errors"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Series holds a daily closing-price history for one ticker, oldest first.
type Series struct {
	Ticker string
	Dates  []time.Time
	Closes []float64
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Closes)
}

// Last returns the most recent close and its date.
func (s *Series) Last() (time.Time, float64) {
	n := len(s.Closes)
	if n == 0 {
		return time.Time{}, 0
	}
	return s.Dates[n-1], s.Closes[n-1]
}

// Source retrieves historical daily closes for a ticker.
type Source interface {
	History(ctx context.Context, ticker string, lookback time.Duration) (*Series, error)
}

// DefaultLookback is one year of daily closes.
const DefaultLookback = 365 * 24 * time.Hour

// YahooSource fetches daily closes from the Yahoo Finance chart API.
type YahooSource struct {
	// BaseURL overrides the API host, used in tests.
	BaseURL string

	// Client is the HTTP client for requests. Defaults to a 10s-timeout client.
	Client *http.Client
}

const yahooBaseURL = "https://query1.finance.yahoo.com"

// chartResponse mirrors the subset of the Yahoo chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History implements Source.
func (y *YahooSource) History(ctx context.Context, ticker string, lookback time.Duration) (*Series, error) {
	if ticker == "" {
		return nil, errors.InvalidInput("ticker is required")
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	base := y.BaseURL
	if base == "" {
		base = yahooBaseURL
	}
	client := y.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	now := time.Now()
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", now.Add(-lookback).Unix()))
	q.Set("period2", fmt.Sprintf("%d", now.Unix()))
	q.Set("interval", "1d")

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", base, url.PathEscape(ticker), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building history request")
	}
	httpReq.Header.Set("User-Agent", "prediagent/1.0")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("fetching history for %s", ticker))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFound(fmt.Sprintf("no data for ticker %s", ticker))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeDataUnavailable,
			fmt.Sprintf("history request for %s returned status %d", ticker, resp.StatusCode))
	}

	var payload chartResponse
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Malformed(fmt.Sprintf("decoding history for %s: %v", ticker, err))
	}

	if payload.Chart.Error != nil {
		return nil, errors.New(errors.ErrCodeDataUnavailable,
			fmt.Sprintf("history for %s: %s", ticker, payload.Chart.Error.Description))
	}
	if len(payload.Chart.Result) == 0 {
		return nil, errors.New(errors.ErrCodeDataUnavailable,
			fmt.Sprintf("empty history for %s", ticker))
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, errors.New(errors.ErrCodeDataUnavailable,
			fmt.Sprintf("no quote data for %s", ticker))
	}

	closes := result.Indicators.Quote[0].Close
	series := &Series{Ticker: ticker}
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // Yahoo emits nulls for halted days
		}
		series.Dates = append(series.Dates, time.Unix(ts, 0).UTC())
		series.Closes = append(series.Closes, *closes[i])
	}

	if series.Len() == 0 {
		return nil, errors.New(errors.ErrCodeDataUnavailable,
			fmt.Sprintf("no usable closes for %s", ticker))
	}

	return series, nil
}
