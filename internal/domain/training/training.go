// Package training turns a prepared series into a fitted forecasting model,
// either from a fixed order table or by stepwise search.
package training

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/trendcast/internal/domain/arima"
	"github.com/okian/trendcast/internal/domain/autoarima"
	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/okian/trendcast/internal/domain/timeseries"
)

// Strategy names accepted by New.
const (
	StrategyFixed = "fixed"
	StrategyAuto  = "auto"
)

var (
	// ErrUnsupported is returned when no order is configured for a (sport, kind) pair.
	ErrUnsupported = errors.New("unsupported sport/model configuration")
	// ErrUnknownStrategy is returned by New for strategies other than fixed or auto.
	ErrUnknownStrategy = errors.New("unknown training strategy")
	// ErrInvalidSteps is returned by Forecast for horizons below one.
	ErrInvalidSteps = errors.New("forecast steps must be at least 1")
)

// Model is a fitted model able to forecast past its training window.
type Model interface {
	Forecast(steps int) ([]float64, error)
	String() string
}

// Trainer fits a model for one (sport, kind) pair.
type Trainer interface {
	Train(ctx context.Context, series *timeseries.Series, s sport.Sport, kind sport.ModelKind) (Model, error)
	Strategy() string
}

// New returns the trainer for strategy. table is only used by the fixed strategy.
func New(strategy string, table Table) (Trainer, error) {
	switch strategy {
	case StrategyFixed, "":
		return NewFixed(table), nil
	case StrategyAuto:
		return NewAuto(autoarima.DefaultConfig()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Forecast asks m for steps point predictions.
func Forecast(m Model, steps int) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSteps, steps)
	}
	return m.Forecast(steps)
}

// FixedTrainer fits the order configured for each pair.
type FixedTrainer struct {
	table Table
}

// NewFixed returns a trainer over table; a nil table means DefaultTable.
func NewFixed(table Table) *FixedTrainer {
	if table == nil {
		table = DefaultTable()
	}
	return &FixedTrainer{table: table}
}

// Strategy implements Trainer.
func (t *FixedTrainer) Strategy() string { return StrategyFixed }

// Train implements Trainer. Seasonal specs fit without stationarity or
// invertibility enforcement; plain specs keep both.
func (t *FixedTrainer) Train(_ context.Context, series *timeseries.Series, s sport.Sport, kind sport.ModelKind) (Model, error) {
	spec, ok := t.table[sport.Key{Sport: s, Kind: kind}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupported, s, kind)
	}

	var (
		m   *arima.Model
		err error
	)
	if spec.Seasonal != nil {
		m, err = arima.New(spec.Order, *spec.Seasonal,
			arima.WithEnforceStationarity(false),
			arima.WithEnforceInvertibility(false))
	} else {
		m, err = arima.New(spec.Order, arima.SeasonalOrder{})
	}
	if err != nil {
		return nil, fmt.Errorf("build %s/%s: %w", s, kind, err)
	}
	if err := m.Fit(series); err != nil {
		return nil, fmt.Errorf("fit %s for %s: %w", m, s, err)
	}
	return m, nil
}

// AutoTrainer searches orders for every pair.
type AutoTrainer struct {
	cfg autoarima.Config
}

// NewAuto returns a stepwise-search trainer bounded by cfg. The seasonal
// flag is set per request from the model kind.
func NewAuto(cfg autoarima.Config) *AutoTrainer {
	return &AutoTrainer{cfg: cfg}
}

// Strategy implements Trainer.
func (t *AutoTrainer) Strategy() string { return StrategyAuto }

// Train implements Trainer.
func (t *AutoTrainer) Train(ctx context.Context, series *timeseries.Series, s sport.Sport, kind sport.ModelKind) (Model, error) {
	cfg := t.cfg
	switch kind {
	case sport.ARIMA:
		cfg.Seasonal = false
	case sport.SARIMA:
		cfg.Seasonal = true
	default:
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupported, s, kind)
	}
	res, err := autoarima.Search(ctx, series, cfg)
	if err != nil {
		return nil, fmt.Errorf("auto search %s/%s: %w", s, kind, err)
	}
	return res.Model, nil
}
