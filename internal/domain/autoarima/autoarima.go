// Package autoarima selects ARIMA and SARIMA orders by stepwise search on
// an information criterion.
package autoarima

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/trendcast/internal/domain/arima"
	"github.com/okian/trendcast/internal/domain/timeseries"
)

// ErrNoModel is returned when no candidate order could be fitted.
var ErrNoModel = errors.New("no candidate model could be fitted")

// seasonalACFThreshold is the autocorrelation at lag m above which one
// seasonal difference is taken.
const seasonalACFThreshold = 0.5

// Config bounds the search.
type Config struct {
	MaxP  int
	MaxD  int
	MaxQ  int
	MaxSP int
	MaxSD int
	MaxSQ int
	// Seasonal enables the seasonal part with period M.
	Seasonal bool
	M        int
	// Criterion is "aic" (default), "aicc" or "bic".
	Criterion string
}

// DefaultConfig returns the bounds used by the auto strategy.
func DefaultConfig() Config {
	return Config{
		MaxP:      3,
		MaxD:      2,
		MaxQ:      3,
		MaxSP:     2,
		MaxSD:     1,
		MaxSQ:     2,
		M:         12,
		Criterion: "aic",
	}
}

// Result is the selected model and how it was found.
type Result struct {
	Model           *arima.Model
	Order           arima.Order
	Seasonal        arima.SeasonalOrder
	AIC             float64
	Score           float64
	ModelsEvaluated int
}

type candidate struct {
	p, q, sp, sq int
}

type searcher struct {
	cfg    Config
	series *timeseries.Series
	d, sd  int

	seen      map[candidate]bool
	evaluated int
	best      *arima.Model
	bestSpec  candidate
	bestScore float64
}

// Search fits candidate orders and returns the best one. The context is
// checked between candidates; a single fit is never interrupted.
func Search(ctx context.Context, series *timeseries.Series, cfg Config) (*Result, error) {
	if cfg.Criterion == "" {
		cfg.Criterion = "aic"
	}
	seasonal := cfg.Seasonal && cfg.M >= 2

	s := &searcher{
		cfg:       cfg,
		series:    series,
		d:         Differencing(series.Values, cfg.MaxD),
		seen:      make(map[candidate]bool),
		bestScore: math.Inf(1),
	}
	if seasonal {
		s.sd = SeasonalDifferencing(series.Values, cfg.MaxSD, cfg.M)
	}

	starts := []candidate{{0, 0, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0}, {1, 1, 0, 0}, {2, 2, 0, 0}}
	if seasonal {
		starts = []candidate{{0, 0, 0, 0}, {1, 0, 1, 0}, {0, 1, 0, 1}, {1, 1, 1, 1}, {2, 2, 1, 1}}
	}
	for _, c := range starts {
		if err := s.try(ctx, c); err != nil {
			return nil, err
		}
	}

	for improved := s.best != nil; improved; {
		improved = false
		from := s.bestSpec
		for _, c := range neighbours(from, seasonal) {
			before := s.bestScore
			if err := s.try(ctx, c); err != nil {
				return nil, err
			}
			if s.bestScore < before {
				improved = true
			}
		}
	}

	if s.best == nil {
		return nil, fmt.Errorf("%w: %d candidates evaluated", ErrNoModel, s.evaluated)
	}
	return &Result{
		Model:           s.best,
		Order:           s.best.Order(),
		Seasonal:        s.best.Seasonal(),
		AIC:             s.best.AIC,
		Score:           s.bestScore,
		ModelsEvaluated: s.evaluated,
	}, nil
}

func neighbours(c candidate, seasonal bool) []candidate {
	out := []candidate{
		{c.p + 1, c.q, c.sp, c.sq},
		{c.p - 1, c.q, c.sp, c.sq},
		{c.p, c.q + 1, c.sp, c.sq},
		{c.p, c.q - 1, c.sp, c.sq},
		{c.p + 1, c.q + 1, c.sp, c.sq},
		{c.p - 1, c.q - 1, c.sp, c.sq},
	}
	if seasonal {
		out = append(out,
			candidate{c.p, c.q, c.sp + 1, c.sq},
			candidate{c.p, c.q, c.sp - 1, c.sq},
			candidate{c.p, c.q, c.sp, c.sq + 1},
			candidate{c.p, c.q, c.sp, c.sq - 1},
		)
	}
	return out
}

// try fits one candidate unless it is out of bounds or already seen.
// Fit failures are skipped; only context cancellation is returned.
func (s *searcher) try(ctx context.Context, c candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := s.cfg
	if c.p < 0 || c.q < 0 || c.sp < 0 || c.sq < 0 ||
		c.p > cfg.MaxP || c.q > cfg.MaxQ || c.sp > cfg.MaxSP || c.sq > cfg.MaxSQ {
		return nil
	}
	if s.seen[c] {
		return nil
	}
	s.seen[c] = true

	var seasonal arima.SeasonalOrder
	if c.sp > 0 || s.sd > 0 || c.sq > 0 {
		seasonal = arima.SeasonalOrder{P: c.sp, D: s.sd, Q: c.sq, M: cfg.M}
	}
	m, err := arima.New(arima.Order{P: c.p, D: s.d, Q: c.q}, seasonal)
	if err != nil {
		return nil
	}
	if err := m.Fit(s.series); err != nil {
		return nil
	}
	s.evaluated++

	score := s.score(m)
	if math.IsNaN(score) || score >= s.bestScore {
		return nil
	}
	s.best, s.bestSpec, s.bestScore = m, c, score
	return nil
}

func (s *searcher) score(m *arima.Model) float64 {
	switch s.cfg.Criterion {
	case "bic":
		return m.BIC
	case "aicc":
		return m.AICc
	default:
		return m.AIC
	}
}

// Differencing returns the number of first differences, up to maxD,
// after which the level KPSS test no longer rejects stationarity.
func Differencing(values []float64, maxD int) int {
	current := values
	for d := 0; d < maxD; d++ {
		res := timeseries.KPSS(current)
		if res == nil || res.Stationary {
			return d
		}
		current = timeseries.Difference(current, 1)
	}
	return maxD
}

// SeasonalDifferencing returns 1 when the autocorrelation at lag m exceeds
// the threshold and maxSD allows it.
func SeasonalDifferencing(values []float64, maxSD, m int) int {
	if maxSD < 1 || m < 2 {
		return 0
	}
	acf := timeseries.ACF(values, m)
	if len(acf) > m && math.Abs(acf[m]) > seasonalACFThreshold {
		return 1
	}
	return 0
}
