// Package service provides the forecasting use cases behind the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/trendcast/internal/adapters/dataset"
	"github.com/okian/trendcast/internal/adapters/mq/queue"
	"github.com/okian/trendcast/internal/adapters/mq/worker"
	"github.com/okian/trendcast/internal/adapters/repository"
	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/okian/trendcast/internal/domain/timeseries"
	"github.com/okian/trendcast/internal/domain/training"
	"github.com/okian/trendcast/pkg/logger"
	"github.com/okian/trendcast/pkg/metrics"
)

// Default service configuration.
const (
	DefaultDatasetPath   = "data/multiTimeline.csv"
	DefaultForecastSteps = 6
	DefaultTrainRatio    = 0.8
	defaultWarmupWorkers = 2
)

// Training purposes used as a metrics label.
const (
	purposePredict  = "predict"
	purposeBacktest = "backtest"
	purposeWarmup   = "warmup"
)

// DatasetLoader provides the parsed dataset.
type DatasetLoader interface {
	Load(ctx context.Context) (*dataset.Table, error)
	Loaded() bool
	Path() string
}

// Service owns the dataset cache and the model cache and runs the
// predict and check-accuracy use cases over them.
type Service struct {
	mu sync.RWMutex

	loader  DatasetLoader
	models  repository.Store
	trainer training.Trainer
	columns sport.Columns

	datasetPath   string
	steps         int
	trainRatio    float64
	now           func() time.Time
	warmup        bool
	warmupWorkers int

	ownedStore *repository.MemoryStore
	queue      *queue.InMemoryQueue
	pool       *worker.Pool

	started bool
	logger  logger.Logger
}

// New constructs a Service. Collaborators not supplied through options
// get their defaults: a CSV loader on DefaultDatasetPath, an in-memory
// model store and the fixed-order trainer.
func New(opts ...Option) *Service {
	s := &Service{
		datasetPath:   DefaultDatasetPath,
		steps:         DefaultForecastSteps,
		trainRatio:    DefaultTrainRatio,
		now:           time.Now,
		warmupWorkers: defaultWarmupWorkers,
		columns:       sport.DefaultColumns(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.loader == nil {
		s.loader = dataset.NewLoader(s.datasetPath, dataset.WithLogger(s.logger.Named("dataset")))
	}
	if s.trainer == nil {
		s.trainer = training.NewFixed(nil)
	}
	if s.models == nil {
		s.ownedStore = repository.NewMemoryStore(context.Background())
		s.models = s.ownedStore
	}
	return s
}

// Start launches the warm-up pool when warm-up is enabled. Calling it
// twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting forecast service",
		logger.String("strategy", s.trainer.Strategy()),
		logger.String("dataset", s.loader.Path()),
		logger.Int("forecastSteps", s.steps),
		logger.Float64("trainRatio", s.trainRatio),
		logger.Bool("warmup", s.warmup),
	)

	if s.warmup {
		keys := sport.Keys()
		s.queue = queue.NewInMemoryQueue(queue.WithCapacity(len(keys)))
		for _, k := range keys {
			if !s.queue.Enqueue(ctx, queue.Job{Key: k}) {
				return fmt.Errorf("enqueue warm-up job %s: queue rejected it", k)
			}
		}
		metrics.UpdateWarmupQueueSize(s.queue.Len(ctx))
		// Warm-up drains a fixed job list, so the queue is closed up front
		// and workers exit once it is empty.
		_ = s.queue.Close()

		s.pool = worker.NewPool(s.warmupWorkers, s.queue, s)
		s.pool.Start(ctx)
		s.logger.Info(ctx, "warm-up started",
			logger.Int("jobs", len(keys)),
			logger.Int("workers", s.pool.Size()))
	}

	s.started = true
	return nil
}

// Stop shuts down the warm-up pool and the owned model store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "warm-up pool shutdown failed", logger.Error(err))
		}
		s.pool = nil
	}
	if s.ownedStore != nil {
		_ = s.ownedStore.Close()
	}
	if s.started {
		s.logger.Info(ctx, "forecast service stopped")
	}
	s.started = false
}

// WaitWarmup blocks until every warm-up worker has finished or ctx is done.
// It returns immediately when warm-up is disabled.
func (s *Service) WaitWarmup(ctx context.Context) error {
	s.mu.RLock()
	pool := s.pool
	s.mu.RUnlock()
	if pool == nil {
		return nil
	}
	return pool.Wait(ctx)
}

// Warm trains and caches the model for key. It implements worker.Warmer.
func (s *Service) Warm(ctx context.Context, key sport.Key) error {
	series, err := s.series(ctx, key.Sport)
	if err != nil {
		return err
	}
	_, err = s.cachedModel(ctx, key, series, purposeWarmup)
	return err
}

// Keys returns the keys of cached models.
func (s *Service) Keys(ctx context.Context) []sport.Key {
	return s.models.Keys(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	keys := s.models.Keys(ctx)
	cached := make([]string, len(keys))
	for i, k := range keys {
		cached[i] = k.String()
	}

	stats := map[string]interface{}{
		"started":       s.started,
		"strategy":      s.trainer.Strategy(),
		"datasetPath":   s.loader.Path(),
		"datasetLoaded": s.loader.Loaded(),
		"forecastSteps": s.steps,
		"trainRatio":    s.trainRatio,
		"cachedModels":  len(keys),
		"cachedKeys":    cached,
		"warmup":        s.warmup,
	}
	if s.pool != nil {
		stats["warmupWorkers"] = s.pool.Size()
	}
	if s.queue != nil {
		stats["warmupQueueLength"] = s.queue.Len(ctx)
	}

	metrics.UpdateCachedModels(len(keys))
	return stats
}

// parseKey validates the raw sport and model strings.
func parseKey(sportName, modelType string) (sport.Key, error) {
	sp, err := sport.ParseSport(sportName)
	if err != nil {
		return sport.Key{}, err
	}
	kind, err := sport.ParseModelKind(modelType)
	if err != nil {
		return sport.Key{}, err
	}
	return sport.Key{Sport: sp, Kind: kind}, nil
}

// series loads the dataset and extracts the column mapped to sp.
func (s *Service) series(ctx context.Context, sp sport.Sport) (*timeseries.Series, error) {
	col, ok := s.columns.Column(sp)
	if !ok {
		return nil, fmt.Errorf("%w: no column mapped for %s", dataset.ErrColumnNotFound, sp)
	}
	table, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return table.Series(col)
}

// cachedModel returns the model for key, training it from series on a miss.
func (s *Service) cachedModel(ctx context.Context, key sport.Key, series *timeseries.Series, purpose string) (training.Model, error) {
	m, trained, err := s.models.GetOrTrain(ctx, key, func(ctx context.Context) (training.Model, error) {
		return s.train(ctx, key, series, purpose)
	})
	if trained {
		metrics.RecordModelCacheMiss()
	} else if err == nil {
		metrics.RecordModelCacheHit()
	}
	return m, err
}

// train fits one model and records how it went.
func (s *Service) train(ctx context.Context, key sport.Key, series *timeseries.Series, purpose string) (training.Model, error) {
	strategy := s.trainer.Strategy()
	start := time.Now()
	m, err := s.trainer.Train(ctx, series, key.Sport, key.Kind)
	took := time.Since(start)
	metrics.RecordTrainingDuration(string(key.Sport), string(key.Kind), strategy, float64(took.Milliseconds()))
	if err != nil {
		metrics.RecordModelTraining(string(key.Sport), string(key.Kind), strategy, purpose, "failure")
		s.logger.Error(ctx, "model training failed",
			logger.String("key", key.String()),
			logger.String("purpose", purpose),
			logger.Int("observations", series.Len()),
			logger.Error(err))
		return nil, err
	}
	metrics.RecordModelTraining(string(key.Sport), string(key.Kind), strategy, purpose, "success")
	s.logger.Info(ctx, "model trained",
		logger.String("key", key.String()),
		logger.String("model", m.String()),
		logger.String("purpose", purpose),
		logger.Int("observations", series.Len()),
		logger.Duration("took", took))
	return m, nil
}
