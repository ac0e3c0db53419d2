// Package arima fits ARIMA and seasonal ARIMA models by conditional sum of
// squares and produces point forecasts on the original scale.
package arima

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/trendcast/internal/domain/timeseries"
)

const (
	defaultMaxIterations = 400
	// minResidualVariance keeps the log-likelihood finite for exact fits.
	minResidualVariance = 1e-12
	// startCoefLimit keeps Yule-Walker start values away from the tanh asymptotes.
	startCoefLimit = 0.95
	// extraObservations is added to the parameter count to get the minimum length.
	extraObservations = 10
)

// Order is the non-seasonal (p, d, q) order.
type Order struct {
	P int `json:"p" koanf:"p"`
	D int `json:"d" koanf:"d"`
	Q int `json:"q" koanf:"q"`
}

// SeasonalOrder is the seasonal (P, D, Q, m) order. The zero value means
// no seasonal component.
type SeasonalOrder struct {
	P int `json:"p" koanf:"p"`
	D int `json:"d" koanf:"d"`
	Q int `json:"q" koanf:"q"`
	M int `json:"m" koanf:"m"`
}

// IsZero reports whether the seasonal part is absent.
func (s SeasonalOrder) IsZero() bool {
	return s.P == 0 && s.D == 0 && s.Q == 0
}

// diffStage records the series entering one differencing pass so
// forecasts can be integrated back exactly.
type diffStage struct {
	lag  int
	base []float64
}

// Model is an ARIMA(p,d,q) or SARIMA(p,d,q)x(P,D,Q,m) model. Seasonal lags
// enter additively. A fitted model is safe for concurrent Forecast calls.
type Model struct {
	order    Order
	seasonal SeasonalOrder

	enforceStationarity  bool
	enforceInvertibility bool
	maxIterations        int

	mu sync.RWMutex

	AR        []float64
	MA        []float64
	SAR       []float64
	SMA       []float64
	Intercept float64
	Variance  float64
	LogLik    float64
	AIC       float64
	AICc      float64
	BIC       float64

	fitted    bool
	start     int
	diffed    []float64
	residuals []float64
	stages    []diffStage
}

// New validates the orders and returns an unfitted model. Both
// enforcement options default to true.
func New(order Order, seasonal SeasonalOrder, opts ...Option) (*Model, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, fmt.Errorf("%w: (%d,%d,%d)", ErrInvalidOrder, order.P, order.D, order.Q)
	}
	if seasonal.P < 0 || seasonal.D < 0 || seasonal.Q < 0 || seasonal.M < 0 {
		return nil, fmt.Errorf("%w: seasonal (%d,%d,%d,%d)", ErrInvalidOrder,
			seasonal.P, seasonal.D, seasonal.Q, seasonal.M)
	}
	if !seasonal.IsZero() && seasonal.M < 2 {
		return nil, fmt.Errorf("%w: seasonal period must be at least 2, got %d", ErrInvalidOrder, seasonal.M)
	}
	if seasonal.IsZero() {
		seasonal = SeasonalOrder{}
	}

	m := &Model{
		order:                order,
		seasonal:             seasonal,
		enforceStationarity:  true,
		enforceInvertibility: true,
		maxIterations:        defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Order returns the non-seasonal order.
func (m *Model) Order() Order { return m.order }

// Seasonal returns the seasonal order; the zero value when non-seasonal.
func (m *Model) Seasonal() SeasonalOrder { return m.seasonal }

// String renders the model as ARIMA(p,d,q) or SARIMA(p,d,q)x(P,D,Q,m).
func (m *Model) String() string {
	o := m.order
	if m.seasonal.IsZero() {
		return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
	}
	s := m.seasonal
	return fmt.Sprintf("SARIMA(%d,%d,%d)x(%d,%d,%d,%d)", o.P, o.D, o.Q, s.P, s.D, s.Q, s.M)
}

// NumParams is the number of estimated ARMA coefficients.
func (m *Model) NumParams() int {
	return m.order.P + m.order.Q + m.seasonal.P + m.seasonal.Q
}

// MinObservations is the shortest series Fit accepts.
func (m *Model) MinObservations() int {
	o, s := m.order, m.seasonal
	return o.P + o.Q + o.D + s.M*(s.P+s.D+s.Q) + extraObservations
}

// Fit estimates the model on the series.
func (m *Model) Fit(series *timeseries.Series) error {
	if series.Len() < m.MinObservations() {
		return fmt.Errorf("%w: %s needs %d, got %d", ErrInsufficientData, m, m.MinObservations(), series.Len())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fitted = false
	w := append([]float64(nil), series.Values...)
	m.stages = m.stages[:0]
	for i := 0; i < m.order.D; i++ {
		m.stages = append(m.stages, diffStage{lag: 1, base: w})
		w = timeseries.Difference(w, 1)
	}
	for i := 0; i < m.seasonal.D; i++ {
		m.stages = append(m.stages, diffStage{lag: m.seasonal.M, base: w})
		w = timeseries.Difference(w, m.seasonal.M)
	}

	m.diffed = w
	m.Intercept = stat.Mean(w, nil)
	m.start = max(m.order.P, m.order.Q, m.seasonal.P*m.seasonal.M, m.seasonal.Q*m.seasonal.M)
	if m.start >= len(w) {
		return fmt.Errorf("%w: %s leaves %d differenced points", ErrInsufficientData, m, len(w))
	}

	m.AR = make([]float64, m.order.P)
	m.MA = make([]float64, m.order.Q)
	m.SAR = make([]float64, m.seasonal.P)
	m.SMA = make([]float64, m.seasonal.Q)
	m.initialize()

	if m.NumParams() > 0 && stat.Variance(w, nil) > 0 {
		m.minimize()
	}

	m.residuals = m.residualsBuffer()
	m.informationCriteria(m.css(m.residuals))
	m.fitted = true
	return nil
}

func (m *Model) residualsBuffer() []float64 {
	return make([]float64, len(m.diffed))
}

// initialize sets AR start values by Yule-Walker and seasonal AR start
// values from the seasonal autocorrelations. MA terms start at zero.
func (m *Model) initialize() {
	p := m.order.P
	maxLag := max(p, m.seasonal.P*m.seasonal.M)
	if maxLag == 0 {
		return
	}
	acf := timeseries.ACF(m.diffed, maxLag)
	if acf == nil {
		return
	}
	if p > 0 && len(acf) > p {
		copy(m.AR, yuleWalker(acf, p))
	}
	for j := range m.SAR {
		lag := (j + 1) * m.seasonal.M
		if lag < len(acf) {
			m.SAR[j] = clamp(0.5*acf[lag], startCoefLimit)
		}
	}
}

// yuleWalker solves the Toeplitz system R*phi = r for AR start values.
func yuleWalker(acf []float64, p int) []float64 {
	r := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			r.SetSym(i, j, acf[j-i])
		}
	}
	rhs := mat.NewVecDense(p, append([]float64(nil), acf[1:p+1]...))
	var phi mat.VecDense
	if err := phi.SolveVec(r, rhs); err != nil {
		return make([]float64, p)
	}
	out := make([]float64, p)
	for i := range out {
		out[i] = clamp(phi.AtVec(i), startCoefLimit)
	}
	return out
}

// minimize minimises the conditional sum of squares with Nelder-Mead.
func (m *Model) minimize() {
	x0 := m.pack()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			m.unpack(x)
			sse := m.css(nil)
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return math.MaxFloat64
			}
			return sse
		},
	}
	settings := &optimize.Settings{
		MajorIterations: m.maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 50,
		},
	}

	f0 := problem.Func(x0)
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if (err != nil && result == nil) || len(result.X) != len(x0) || result.F > f0 {
		m.unpack(x0)
		return
	}
	m.unpack(result.X)
}

// pack maps coefficients to the optimizer space. Enforced groups go
// through atanh so that tanh maps them back inside (-1, 1).
func (m *Model) pack() []float64 {
	x := make([]float64, 0, m.NumParams())
	add := func(coefs []float64, enforce bool) {
		for _, c := range coefs {
			if enforce {
				c = math.Atanh(clamp(c, startCoefLimit))
			}
			x = append(x, c)
		}
	}
	add(m.AR, m.enforceStationarity)
	add(m.SAR, m.enforceStationarity)
	add(m.MA, m.enforceInvertibility)
	add(m.SMA, m.enforceInvertibility)
	return x
}

func (m *Model) unpack(x []float64) {
	i := 0
	take := func(dst []float64, enforce bool) {
		for j := range dst {
			v := x[i]
			if enforce {
				v = math.Tanh(v)
			}
			dst[j] = v
			i++
		}
	}
	take(m.AR, m.enforceStationarity)
	take(m.SAR, m.enforceStationarity)
	take(m.MA, m.enforceInvertibility)
	take(m.SMA, m.enforceInvertibility)
}

// css runs the ARMA recursion over the differenced series and returns the
// sum of squared residuals from m.start on. Residuals before m.start are zero.
// When resid is nil a scratch buffer is used.
func (m *Model) css(resid []float64) float64 {
	w := m.diffed
	if resid == nil {
		resid = m.residualsBuffer()
	}
	sse := 0.0
	for t := m.start; t < len(w); t++ {
		resid[t] = w[t] - m.predictAt(w, resid, t, len(w))
		sse += resid[t] * resid[t]
	}
	return sse
}

// predictAt is the one-step prediction for index t. Residuals at or after
// known are treated as zero.
func (m *Model) predictAt(w, resid []float64, t, known int) float64 {
	mu := m.Intercept
	period := m.seasonal.M
	pred := mu
	for i, phi := range m.AR {
		if k := t - i - 1; k >= 0 {
			pred += phi * (w[k] - mu)
		}
	}
	for j, phi := range m.SAR {
		if k := t - (j+1)*period; k >= 0 {
			pred += phi * (w[k] - mu)
		}
	}
	for i, theta := range m.MA {
		if k := t - i - 1; k >= 0 && k < known {
			pred += theta * resid[k]
		}
	}
	for j, theta := range m.SMA {
		if k := t - (j+1)*period; k >= 0 && k < known {
			pred += theta * resid[k]
		}
	}
	return pred
}

func (m *Model) informationCriteria(sse float64) {
	n := float64(len(m.diffed) - m.start)
	m.Variance = math.Max(sse/n, minResidualVariance)
	m.LogLik = -n / 2 * (math.Log(2*math.Pi*m.Variance) + 1)

	k := float64(m.NumParams() + 1)
	m.AIC = -2*m.LogLik + 2*k
	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + k*math.Log(n)
}

// Forecast returns steps point forecasts following the fitted series, on
// the original scale.
func (m *Model) Forecast(steps int) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSteps, steps)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.fitted {
		return nil, ErrNotFitted
	}

	n := len(m.diffed)
	w := make([]float64, n+steps)
	copy(w, m.diffed)
	resid := make([]float64, n+steps)
	copy(resid, m.residuals)
	for t := n; t < n+steps; t++ {
		w[t] = m.predictAt(w, resid, t, n)
	}

	out := append([]float64(nil), w[n:]...)
	for i := len(m.stages) - 1; i >= 0; i-- {
		out = integrate(out, m.stages[i])
	}
	return out, nil
}

// integrate undoes one differencing pass: y[t] = z[t] + y[t-lag].
func integrate(z []float64, stage diffStage) []float64 {
	n := len(stage.base)
	ext := make([]float64, n+len(z))
	copy(ext, stage.base)
	for h, v := range z {
		ext[n+h] = v + ext[n+h-stage.lag]
	}
	return ext[n:]
}

// Residuals returns a copy of the in-sample residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// Fitted reports whether Fit has succeeded.
func (m *Model) Fitted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fitted
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
