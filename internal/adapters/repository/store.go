// Package repository keeps trained models in memory for the life of the process.
package repository

import (
	"context"

	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/okian/trendcast/internal/domain/training"
)

// TrainFunc fits a model for a key on a cache miss.
type TrainFunc func(ctx context.Context) (training.Model, error)

// Store caches one trained model per (sport, kind) key.
type Store interface {
	// Get returns the cached model for key. Returns ErrNotFound when absent.
	Get(ctx context.Context, key sport.Key) (training.Model, error)

	// GetOrTrain returns the cached model for key, training and storing it
	// on a miss. Concurrent callers for the same key wait for a single
	// training. Failures are not cached, so the next caller trains again.
	// trained reports whether this call ran train.
	GetOrTrain(ctx context.Context, key sport.Key, train TrainFunc) (model training.Model, trained bool, err error)

	// Keys lists cached keys in sorted order.
	Keys(ctx context.Context) []sport.Key

	// Len returns the number of cached models.
	Len(ctx context.Context) int
}
