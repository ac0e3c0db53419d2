package arima

// Option configures a Model.
type Option func(*Model)

// WithEnforceStationarity bounds every AR and seasonal AR coefficient to (-1, 1).
func WithEnforceStationarity(enforce bool) Option {
	return func(m *Model) {
		m.enforceStationarity = enforce
	}
}

// WithEnforceInvertibility bounds every MA and seasonal MA coefficient to (-1, 1).
func WithEnforceInvertibility(enforce bool) Option {
	return func(m *Model) {
		m.enforceInvertibility = enforce
	}
}

// WithMaxIterations caps the Nelder-Mead major iterations.
func WithMaxIterations(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxIterations = n
		}
	}
}
