package timeseries

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KPSS critical value for level stationarity at 5%.
const kpssLevelCritical5 = 0.463

// ACF returns sample autocorrelations for lags 0..maxLag. It returns nil
// when the series is constant or too short.
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}
	mean := stat.Mean(values, nil)
	centered := make([]float64, n)
	for i, v := range values {
		centered[i] = v - mean
	}
	denom := floats.Dot(centered, centered)
	if denom == 0 {
		return nil
	}
	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		acf[k] = floats.Dot(centered[k:], centered[:n-k]) / denom
	}
	return acf
}

// KPSSResult is the outcome of a level-stationarity KPSS test.
type KPSSResult struct {
	Statistic  float64
	Lags       int
	Stationary bool
}

// KPSS runs the level KPSS test with Bartlett-weighted long run variance.
// Series shorter than 10 observations yield nil.
func KPSS(values []float64) *KPSSResult {
	n := len(values)
	if n < 10 {
		return nil
	}
	lags := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if lags >= n {
		lags = n - 1
	}

	mean := stat.Mean(values, nil)
	resid := make([]float64, n)
	for i, v := range values {
		resid[i] = v - mean
	}

	cum := make([]float64, n)
	floats.CumSum(cum, resid)

	s2 := floats.Dot(resid, resid) / float64(n)
	for l := 1; l <= lags; l++ {
		cov := floats.Dot(resid[l:], resid[:n-l]) / float64(n)
		s2 += 2 * (1 - float64(l)/float64(lags+1)) * cov
	}
	if s2 <= 0 {
		// Constant after demeaning: trivially stationary.
		return &KPSSResult{Statistic: 0, Lags: lags, Stationary: true}
	}

	statistic := floats.Dot(cum, cum) / (float64(n) * float64(n) * s2)
	return &KPSSResult{
		Statistic:  statistic,
		Lags:       lags,
		Stationary: statistic < kpssLevelCritical5,
	}
}
