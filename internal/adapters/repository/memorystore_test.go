package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/okian/trendcast/internal/domain/training"
)

type stubModel struct{ name string }

func (m stubModel) Forecast(steps int) ([]float64, error) { return make([]float64, steps), nil }
func (m stubModel) String() string                        { return m.name }

var (
	footballArima   = sport.Key{Sport: sport.Football, Kind: sport.ARIMA}
	tennisSarima    = sport.Key{Sport: sport.Tennis, Kind: sport.SARIMA}
	basketballArima = sport.Key{Sport: sport.Basketball, Kind: sport.ARIMA}
)

func newStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(context.Background(), WithMetricsUpdateInterval(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemoryStore_GetOrTrain(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if _, err := s.Get(ctx, footballArima); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	m, trained, err := s.GetOrTrain(ctx, footballArima, func(context.Context) (training.Model, error) {
		return stubModel{"first"}, nil
	})
	if err != nil || !trained || m.String() != "first" {
		t.Fatalf("unexpected first call result: %v %v %v", m, trained, err)
	}

	m, trained, err = s.GetOrTrain(ctx, footballArima, func(context.Context) (training.Model, error) {
		t.Fatal("train must not run on a hit")
		return nil, nil
	})
	if err != nil || trained || m.String() != "first" {
		t.Fatalf("unexpected second call result: %v %v %v", m, trained, err)
	}

	if got := s.Len(ctx); got != 1 {
		t.Errorf("expected 1 cached model, got %d", got)
	}
}

func TestMemoryStore_FailuresAreNotCached(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	_, trained, err := s.GetOrTrain(ctx, footballArima, func(context.Context) (training.Model, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) || !trained {
		t.Fatalf("expected boom from a trained call, got %v %v", trained, err)
	}
	if s.Len(ctx) != 0 {
		t.Fatalf("failed training must not be cached")
	}

	_, _, err = s.GetOrTrain(ctx, footballArima, func(context.Context) (training.Model, error) {
		return nil, nil
	})
	if !errors.Is(err, ErrNilModel) {
		t.Fatalf("expected ErrNilModel, got %v", err)
	}

	m, _, err := s.GetOrTrain(ctx, footballArima, func(context.Context) (training.Model, error) {
		return stubModel{"retry"}, nil
	})
	if err != nil || m.String() != "retry" {
		t.Fatalf("expected retry to succeed, got %v %v", m, err)
	}
}

func TestMemoryStore_ConcurrentMissTrainsOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var calls atomic.Int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	const workers = 32
	results := make([]training.Model, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			m, _, err := s.GetOrTrain(ctx, tennisSarima, func(context.Context) (training.Model, error) {
				calls.Add(1)
				time.Sleep(20 * time.Millisecond)
				return stubModel{"shared"}, nil
			})
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
			}
			results[i] = m
		}(i)
	}
	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one training, got %d", got)
	}
	for i, m := range results {
		if m == nil || m.String() != "shared" {
			t.Errorf("worker %d got %v", i, m)
		}
	}
}

func TestMemoryStore_KeysDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = s.GetOrTrain(ctx, footballArima, func(context.Context) (training.Model, error) {
			close(started)
			<-release
			return stubModel{"slow"}, nil
		})
	}()
	<-started

	finished := make(chan struct{})
	go func() {
		_, _, _ = s.GetOrTrain(ctx, tennisSarima, func(context.Context) (training.Model, error) {
			return stubModel{"fast"}, nil
		})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("training a second key was blocked by the first")
	}
	close(release)
	<-done
}

func TestMemoryStore_PanicReleasesKeyLock(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	func() {
		defer func() { _ = recover() }()
		_, _, _ = s.GetOrTrain(ctx, footballArima, func(context.Context) (training.Model, error) {
			panic("fit exploded")
		})
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = s.GetOrTrain(ctx, footballArima, func(context.Context) (training.Model, error) {
			return stubModel{"after-panic"}, nil
		})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("key lock was not released after a panic")
	}
}

func TestMemoryStore_KeysSorted(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, k := range []sport.Key{tennisSarima, footballArima, basketballArima} {
		k := k
		_, _, _ = s.GetOrTrain(ctx, k, func(context.Context) (training.Model, error) {
			return stubModel{k.String()}, nil
		})
	}

	keys := s.Keys(ctx)
	want := []sport.Key{basketballArima, footballArima, tennisSarima}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}
}
