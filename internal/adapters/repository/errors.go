package repository

import "errors"

var (
	// ErrNotFound is returned by Get for keys without a trained model.
	ErrNotFound = errors.New("model not cached")
	// ErrNilModel is returned when a train function succeeds without a model.
	ErrNilModel = errors.New("train returned a nil model")
)
