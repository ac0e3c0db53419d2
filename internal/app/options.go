package service

import (
	"time"

	"github.com/okian/trendcast/internal/adapters/repository"
	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/okian/trendcast/internal/domain/training"
	"github.com/okian/trendcast/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDatasetPath sets the CSV read by the default loader.
func WithDatasetPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.datasetPath = path
		}
	}
}

// WithDatasetLoader replaces the dataset loader.
func WithDatasetLoader(l DatasetLoader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithModelStore replaces the model cache.
func WithModelStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.models = store
		}
	}
}

// WithTrainer sets the training strategy.
func WithTrainer(t training.Trainer) Option {
	return func(s *Service) {
		if t != nil {
			s.trainer = t
		}
	}
}

// WithColumns sets the sport to column mapping.
func WithColumns(c sport.Columns) Option {
	return func(s *Service) {
		if len(c) > 0 {
			s.columns = c
		}
	}
}

// WithForecastSteps sets how many months Predict returns.
func WithForecastSteps(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.steps = n
		}
	}
}

// WithTrainRatio sets the share of the series used to fit backtests.
func WithTrainRatio(r float64) Option {
	return func(s *Service) {
		if r > 0 && r < 1 {
			s.trainRatio = r
		}
	}
}

// WithClock overrides the clock used for prediction dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWarmup trains every configured model in the background on Start
// using the given number of workers.
func WithWarmup(workers int) Option {
	return func(s *Service) {
		s.warmup = true
		if workers > 0 {
			s.warmupWorkers = workers
		}
	}
}
