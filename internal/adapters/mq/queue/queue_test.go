package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/trendcast/internal/domain/sport"
)

func job(s sport.Sport, k sport.ModelKind) Job {
	return Job{Key: sport.Key{Sport: s, Kind: k}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job(sport.Football, sport.ARIMA)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Key.String() != "football/arima" {
		t.Errorf("expected football/arima, got %s", got.Key)
	}
	if got.EnqueuedAt.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job(sport.Football, sport.ARIMA)) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job(sport.Football, sport.SARIMA)) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job(sport.Tennis, sport.ARIMA)) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(8))
	ctx := context.Background()

	keys := sport.Keys()
	for _, k := range keys {
		if !q.Enqueue(ctx, Job{Key: k}) {
			t.Fatalf("enqueue %s failed", k)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, job(sport.Cricket, sport.ARIMA)) {
		t.Error("expected enqueue to fail after closing")
	}

	var (
		mu   sync.Mutex
		seen = map[sport.Key]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range q.Dequeue(ctx) {
				mu.Lock()
				seen[j.Key] = true
				mu.Unlock()
			}
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumers did not finish after close")
	}

	if len(seen) != len(keys) {
		t.Errorf("expected %d distinct jobs, got %d", len(keys), len(seen))
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := q.Dequeue(ctx)
	if !q.Enqueue(context.Background(), job(sport.Tennis, sport.SARIMA)) {
		t.Fatal("expected enqueue to succeed")
	}

	select {
	case _, ok := <-out:
		if ok {
			// The forwarder may win the race once; it must still stop.
			if _, ok := <-out; ok {
				t.Error("expected dequeue channel to close after cancellation")
			}
		}
	case <-time.After(time.Second):
		t.Error("expected dequeue channel to close after cancellation")
	}
}
