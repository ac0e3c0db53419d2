package dataset

import "errors"

var (
	// ErrNotFound is returned when the dataset file does not exist.
	ErrNotFound = errors.New("dataset file not found")
	// ErrColumnNotFound is returned when a requested column is absent.
	ErrColumnNotFound = errors.New("column not found in dataset")
	// ErrMalformed is returned for CSV content that cannot be parsed.
	ErrMalformed = errors.New("malformed dataset")
)
