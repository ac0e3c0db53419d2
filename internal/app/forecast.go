package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/trendcast/internal/domain/training"
	"github.com/okian/trendcast/pkg/logger"
	"github.com/okian/trendcast/pkg/metrics"
)

// Date layouts used in responses.
const (
	predictDateLayout  = "2006-01"
	backtestDateLayout = "2006-01-02 15:04:05"
	forecastStepDays   = 30
)

// Prediction is the forward forecast for one (sport, model) pair.
type Prediction struct {
	Dates       []string  `json:"dates"`
	Predictions []float64 `json:"predictions"`
}

// Backtest holds the full history and the forecast over the held-out tail.
type Backtest struct {
	HistoricalDates  []string  `json:"historical_dates"`
	HistoricalValues []float64 `json:"historical_values"`
	PredictionDates  []string  `json:"prediction_dates"`
	PredictionValues []float64 `json:"prediction_values"`
}

// Predict forecasts the next steps for the pair, training and caching the
// model on first use. Dates advance 30 days at a time from the clock, not
// from the end of the series.
func (s *Service) Predict(ctx context.Context, sportName, modelType string) (*Prediction, error) {
	key, err := parseKey(sportName, modelType)
	if err != nil {
		return nil, err
	}
	series, err := s.series(ctx, key.Sport)
	if err != nil {
		return nil, err
	}
	m, err := s.cachedModel(ctx, key, series, purposePredict)
	if err != nil {
		return nil, err
	}
	values, err := training.Forecast(m, s.steps)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", key, err)
	}
	metrics.RecordForecast(string(key.Sport), string(key.Kind))

	now := s.now()
	dates := make([]string, len(values))
	for i := range dates {
		dates[i] = now.AddDate(0, 0, forecastStepDays*(i+1)).Format(predictDateLayout)
	}

	s.logger.Debug(ctx, "prediction served",
		logger.String("key", key.String()),
		logger.String("model", m.String()),
		logger.Int("steps", len(values)))
	return &Prediction{Dates: dates, Predictions: values}, nil
}

// CheckAccuracy fits a fresh model on the leading share of the series and
// forecasts the remainder. It never touches the model cache.
func (s *Service) CheckAccuracy(ctx context.Context, sportName, modelType string) (*Backtest, error) {
	key, err := parseKey(sportName, modelType)
	if err != nil {
		return nil, err
	}
	series, err := s.series(ctx, key.Sport)
	if err != nil {
		return nil, err
	}
	trainSet, testSet, err := series.Split(s.trainRatio)
	if err != nil {
		return nil, err
	}
	if trainSet.Len() == 0 || testSet.Len() == 0 {
		return nil, fmt.Errorf("%w: %d observations", ErrSeriesTooShort, series.Len())
	}

	m, err := s.train(ctx, key, trainSet, purposeBacktest)
	if err != nil {
		return nil, err
	}
	values, err := training.Forecast(m, testSet.Len())
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", key, err)
	}
	metrics.RecordForecast(string(key.Sport), string(key.Kind))

	return &Backtest{
		HistoricalDates:  formatDates(series.Timestamps, backtestDateLayout),
		HistoricalValues: series.Values,
		PredictionDates:  formatDates(testSet.Timestamps, backtestDateLayout),
		PredictionValues: values,
	}, nil
}

func formatDates(ts []time.Time, layout string) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format(layout)
	}
	return out
}
