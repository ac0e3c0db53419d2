// Package timeseries holds the monthly series handed to the model engine.
package timeseries

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Series is a named, ordered run of observations. Timestamps may be nil
// for purely numeric series produced by differencing.
type Series struct {
	Name       string
	Timestamps []time.Time
	Values     []float64
}

// New builds a series. Timestamps, when given, must match values one to one.
func New(name string, timestamps []time.Time, values []float64) (*Series, error) {
	if timestamps != nil && len(timestamps) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values", ErrLengthMismatch, len(timestamps), len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	return &Series{Name: name, Timestamps: timestamps, Values: values}, nil
}

// FromValues wraps values without timestamps.
func FromValues(values []float64) *Series {
	return &Series{Values: values}
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func (s *Series) Mean() float64 {
	if s.Len() == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Copy returns a deep copy.
func (s *Series) Copy() *Series {
	out := &Series{Name: s.Name, Values: append([]float64(nil), s.Values...)}
	if s.Timestamps != nil {
		out.Timestamps = append([]time.Time(nil), s.Timestamps...)
	}
	return out
}

// Slice returns observations [start, end) as an independent series.
// Bounds are clamped to the series.
func (s *Series) Slice(start, end int) *Series {
	n := s.Len()
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	out := &Series{Name: s.Name, Values: append([]float64(nil), s.Values[start:end]...)}
	if s.Timestamps != nil {
		out.Timestamps = append([]time.Time(nil), s.Timestamps[start:end]...)
	}
	return out
}

// Split cuts the series at floor(ratio*len) into a training head and a
// test tail. ratio must lie in (0, 1).
func (s *Series) Split(ratio float64) (train, test *Series, err error) {
	if ratio <= 0 || ratio >= 1 || math.IsNaN(ratio) {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}
	cut := int(math.Floor(ratio * float64(s.Len())))
	return s.Slice(0, cut), s.Slice(cut, s.Len()), nil
}

// Diff returns the lag-differenced values y[t] - y[t-lag].
func (s *Series) Diff(lag int) *Series {
	return &Series{Name: s.Name, Values: Difference(s.Values, lag)}
}

// Difference returns y[t] - y[t-lag] for t >= lag. A lag that leaves
// nothing yields an empty slice.
func Difference(values []float64, lag int) []float64 {
	if lag < 1 || lag >= len(values) {
		return []float64{}
	}
	out := make([]float64, len(values)-lag)
	for t := lag; t < len(values); t++ {
		out[t-lag] = values[t] - values[t-lag]
	}
	return out
}
