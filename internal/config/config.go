// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"

	"github.com/okian/trendcast/internal/domain/arima"
	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/okian/trendcast/internal/domain/training"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address. PORT overrides the port.
	Addr string `koanf:"addr"`

	// DatasetPath is the Google Trends CSV export.
	DatasetPath string `koanf:"dataset_path"`

	// Strategy selects how models are trained: fixed or auto.
	Strategy string `koanf:"strategy"`

	// ForecastSteps is the number of months returned by /predict.
	ForecastSteps int `koanf:"forecast_steps"`

	// TrainRatio is the share of the series used to fit backtests.
	TrainRatio float64 `koanf:"train_ratio"`

	// Warmup trains every model in the background at startup.
	Warmup        bool `koanf:"warmup"`
	WarmupWorkers int  `koanf:"warmup_workers"`

	// Columns overrides the sport to dataset column mapping.
	Columns map[string]string `koanf:"columns"`

	// Models overrides fixed orders, keyed by sport then model kind.
	Models map[string]map[string]ModelSpec `koanf:"models"`
}

// ModelSpec is one configured order. A missing seasonal order means plain ARIMA.
type ModelSpec struct {
	Order         arima.Order          `koanf:"order"`
	SeasonalOrder *arima.SeasonalOrder `koanf:"seasonal_order"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":5000",
		DatasetPath:   "data/multiTimeline.csv",
		Strategy:      training.StrategyFixed,
		ForecastSteps: 6,
		TrainRatio:    0.8,
		WarmupWorkers: 2,
	}
}

// Validate checks field ranges. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatasetPath == "":
		return fmt.Errorf("%w: dataset_path must not be empty", ErrInvalidConfig)
	case c.Strategy != training.StrategyFixed && c.Strategy != training.StrategyAuto:
		return fmt.Errorf("%w: strategy must be %q or %q, got %q", ErrInvalidConfig, training.StrategyFixed, training.StrategyAuto, c.Strategy)
	case c.ForecastSteps < 1:
		return fmt.Errorf("%w: forecast_steps must be at least 1", ErrInvalidConfig)
	case c.TrainRatio <= 0 || c.TrainRatio >= 1:
		return fmt.Errorf("%w: train_ratio must be in (0, 1)", ErrInvalidConfig)
	case c.Warmup && c.WarmupWorkers < 1:
		return fmt.Errorf("%w: warmup_workers must be at least 1", ErrInvalidConfig)
	}
	if _, err := c.ColumnMap(); err != nil {
		return err
	}
	if _, err := c.ModelTable(); err != nil {
		return err
	}
	return nil
}

// ColumnMap returns the default column mapping with overrides applied.
// Override keys are matched case-insensitively, like the models table.
func (c *Config) ColumnMap() (sport.Columns, error) {
	override := make(sport.Columns, len(c.Columns))
	for name, column := range c.Columns {
		sp, err := sport.ParseSport(name)
		if err != nil {
			return nil, fmt.Errorf("%w: columns: %w: %q", ErrInvalidConfig, err, name)
		}
		override[sp] = column
	}
	return sport.DefaultColumns().Merge(override), nil
}

// ModelTable returns the default order table with overrides applied.
func (c *Config) ModelTable() (training.Table, error) {
	table := training.DefaultTable()
	for sportName, kinds := range c.Models {
		sp, err := sport.ParseSport(sportName)
		if err != nil {
			return nil, fmt.Errorf("%w: models: %w: %q", ErrInvalidConfig, err, sportName)
		}
		for kindName, spec := range kinds {
			kind, err := sport.ParseModelKind(kindName)
			if err != nil {
				return nil, fmt.Errorf("%w: models.%s: %w: %q", ErrInvalidConfig, sp, err, kindName)
			}
			entry := training.Spec{Order: spec.Order}
			if spec.SeasonalOrder != nil && !spec.SeasonalOrder.IsZero() {
				so := *spec.SeasonalOrder
				entry.Seasonal = &so
			}
			if _, err := arima.New(entry.Order, seasonalOrZero(entry.Seasonal)); err != nil {
				return nil, fmt.Errorf("%w: models.%s.%s: %w", ErrInvalidConfig, sp, kind, err)
			}
			table[sport.Key{Sport: sp, Kind: kind}] = entry
		}
	}
	return table, nil
}

func seasonalOrZero(s *arima.SeasonalOrder) arima.SeasonalOrder {
	if s == nil {
		return arima.SeasonalOrder{}
	}
	return *s
}
