package timeseries

import "errors"

var (
	// ErrLengthMismatch is returned when timestamps and values differ in length.
	ErrLengthMismatch = errors.New("timestamps and values length mismatch")
	// ErrNonFinite is returned when a value is NaN or infinite.
	ErrNonFinite = errors.New("non-finite value")
	// ErrInvalidRatio is returned by Split for ratios outside (0, 1).
	ErrInvalidRatio = errors.New("split ratio must be in (0, 1)")
)
