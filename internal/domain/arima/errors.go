package arima

import "errors"

var (
	// ErrInvalidOrder is returned for negative orders or a seasonal part without a period.
	ErrInvalidOrder = errors.New("invalid model order")
	// ErrInsufficientData is returned when the series is too short for the order.
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	// ErrNotFitted is returned when forecasting before a successful Fit.
	ErrNotFitted = errors.New("model must be fitted before forecasting")
	// ErrInvalidSteps is returned for forecast horizons below one.
	ErrInvalidSteps = errors.New("steps must be at least 1")
)
