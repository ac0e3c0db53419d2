// Package smoke drives a running trendcast instance through every endpoint
// and checks the shape of the answers.
package smoke

import (
	"errors"
	"time"
)

// ErrCheckFailed is returned by Run when any check does not hold.
var ErrCheckFailed = errors.New("smoke check failed")

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Rounds   int           // Predict calls per (sport, model) pair
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Steps    int           // Expected forecast length
	Backtest bool          // Also call /check_accuracy for every pair
	Verbose  bool          // Log every request
}

// pair is one (sport, model_type) request body.
type pair struct {
	Sport     string `json:"sport"`
	ModelType string `json:"model_type"`
}

var (
	sports = []string{"football", "basketball", "cricket", "tennis"}
	kinds  = []string{"arima", "sarima"}
)

func pairs() []pair {
	out := make([]pair, 0, len(sports)*len(kinds))
	for _, s := range sports {
		for _, k := range kinds {
			out = append(out, pair{Sport: s, ModelType: k})
		}
	}
	return out
}

type prediction struct {
	Dates       []string  `json:"dates"`
	Predictions []float64 `json:"predictions"`
}

type backtest struct {
	HistoricalDates  []string  `json:"historical_dates"`
	HistoricalValues []float64 `json:"historical_values"`
	PredictionDates  []string  `json:"prediction_dates"`
	PredictionValues []float64 `json:"prediction_values"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Report holds run statistics.
type Report struct {
	Requests    int
	Succeeded   int
	Failed      int
	Failures    []string
	SlowestCall time.Duration
	StartTime   time.Time
	Duration    time.Duration
}
