package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/okian/trendcast/internal/domain/training"
	"github.com/okian/trendcast/pkg/metrics"
)

// MemoryStore is a map-backed Store using double-checked locking: reads
// take the shared lock, misses serialise on a per-key mutex so different
// keys train in parallel.
type MemoryStore struct {
	mu     sync.RWMutex
	models map[sport.Key]training.Model
	locks  map[sport.Key]*sync.Mutex

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an empty store and starts its metrics updater,
// which stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		models:                make(map[sport.Key]training.Model),
		locks:                 make(map[sport.Key]*sync.Mutex),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, key sport.Key) (training.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return m, nil
}

// GetOrTrain implements Store.GetOrTrain.
func (s *MemoryStore) GetOrTrain(ctx context.Context, key sport.Key, train TrainFunc) (training.Model, bool, error) {
	s.mu.RLock()
	m, ok := s.models[key]
	s.mu.RUnlock()
	if ok {
		return m, false, nil
	}

	keyLock := s.keyLock(key)
	keyLock.Lock()
	defer keyLock.Unlock()

	s.mu.RLock()
	m, ok = s.models[key]
	s.mu.RUnlock()
	if ok {
		return m, false, nil
	}

	m, err := train(ctx)
	if err != nil {
		return nil, true, err
	}
	if m == nil {
		return nil, true, fmt.Errorf("%w: %s", ErrNilModel, key)
	}

	s.mu.Lock()
	s.models[key] = m
	count := len(s.models)
	s.mu.Unlock()
	metrics.UpdateCachedModels(count)
	return m, true, nil
}

// keyLock returns the mutex for key, creating it under the map lock.
func (s *MemoryStore) keyLock(key sport.Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Keys implements Store.Keys.
func (s *MemoryStore) Keys(_ context.Context) []sport.Key {
	s.mu.RLock()
	keys := make([]sport.Key, 0, len(s.models))
	for k := range s.models {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	slices.SortFunc(keys, func(a, b sport.Key) int {
		if c := cmp.Compare(a.Sport, b.Sport); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return keys
}

// Len implements Store.Len.
func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateCachedModels(s.Len(ctx))
			}
		}
	}()
}
