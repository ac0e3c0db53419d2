package arima

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/trendcast/internal/domain/timeseries"
)

func linear(n int, start, step float64) *timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + step*float64(i)
	}
	return timeseries.FromValues(values)
}

func seasonalTrend(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 50 + 0.5*float64(i) + 10*math.Sin(2*math.Pi*float64(i)/12)
	}
	return values
}

func TestNewValidation(t *testing.T) {
	Convey("Given model orders", t, func() {
		Convey("When an order is negative", func() {
			_, err := New(Order{P: -1}, SeasonalOrder{})
			So(errors.Is(err, ErrInvalidOrder), ShouldBeTrue)
		})

		Convey("When a seasonal part has no period", func() {
			_, err := New(Order{P: 1}, SeasonalOrder{P: 1, M: 0})
			So(errors.Is(err, ErrInvalidOrder), ShouldBeTrue)
		})

		Convey("When orders are valid", func() {
			plain, err := New(Order{P: 2, D: 1, Q: 2}, SeasonalOrder{})
			So(err, ShouldBeNil)
			seasonal, err := New(Order{P: 1, D: 1, Q: 1}, SeasonalOrder{P: 1, D: 1, Q: 1, M: 12})
			So(err, ShouldBeNil)

			Convey("Then names and sizes follow the orders", func() {
				So(plain.String(), ShouldEqual, "ARIMA(2,1,2)")
				So(seasonal.String(), ShouldEqual, "SARIMA(1,1,1)x(1,1,1,12)")
				So(plain.NumParams(), ShouldEqual, 4)
				So(plain.MinObservations(), ShouldEqual, 15)
				So(seasonal.MinObservations(), ShouldEqual, 49)
			})
		})
	})
}

func TestFitAndForecast(t *testing.T) {
	Convey("Given a straight line 10, 12, ..., 56", t, func() {
		series := linear(24, 10, 2)
		m, err := New(Order{P: 2, D: 1, Q: 2}, SeasonalOrder{})
		So(err, ShouldBeNil)

		Convey("When fitted as ARIMA(2,1,2)", func() {
			So(m.Fit(series), ShouldBeNil)
			forecast, err := m.Forecast(6)

			Convey("Then the forecast continues the line exactly", func() {
				So(err, ShouldBeNil)
				So(forecast, ShouldResemble, []float64{58, 60, 62, 64, 66, 68})
				So(m.Intercept, ShouldEqual, 2)
				So(m.Fitted(), ShouldBeTrue)
				So(len(m.Residuals()), ShouldEqual, 23)
			})

			Convey("Then repeated forecasts are identical", func() {
				again, err := m.Forecast(6)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, forecast)
			})
		})
	})

	Convey("Given an AR(1) process with coefficient 0.6", t, func() {
		rng := rand.New(rand.NewPCG(7, 11))
		values := make([]float64, 400)
		for i := 1; i < len(values); i++ {
			values[i] = 0.6*values[i-1] + rng.NormFloat64()
		}
		m, err := New(Order{P: 1}, SeasonalOrder{})
		So(err, ShouldBeNil)

		Convey("When fitted as ARIMA(1,0,0)", func() {
			So(m.Fit(timeseries.FromValues(values)), ShouldBeNil)

			Convey("Then the coefficient is recovered", func() {
				So(m.AR[0], ShouldAlmostEqual, 0.6, 0.1)
				So(m.Variance, ShouldAlmostEqual, 1, 0.25)
				So(math.IsInf(m.AIC, 0), ShouldBeFalse)
				So(m.BIC, ShouldBeGreaterThan, m.AIC)
			})
		})
	})

	Convey("Given a trend with a 12-month cycle", t, func() {
		values := seasonalTrend(96)
		series := timeseries.FromValues(values)

		Convey("When fitted as SARIMA(0,1,0)x(0,1,0,12)", func() {
			m, err := New(Order{D: 1}, SeasonalOrder{D: 1, M: 12})
			So(err, ShouldBeNil)
			So(m.Fit(series), ShouldBeNil)
			forecast, err := m.Forecast(12)
			So(err, ShouldBeNil)

			Convey("Then the pattern is carried forward", func() {
				want := seasonalTrend(108)[96:]
				for i := range want {
					So(forecast[i], ShouldAlmostEqual, want[i], 1e-6)
				}
			})
		})

		Convey("When fitted as SARIMA(1,1,1)x(1,1,1,12) without enforcement", func() {
			rng := rand.New(rand.NewPCG(1, 2))
			noisy := make([]float64, len(values))
			for i, v := range values {
				noisy[i] = v + rng.NormFloat64()
			}
			m, err := New(Order{P: 1, D: 1, Q: 1}, SeasonalOrder{P: 1, D: 1, Q: 1, M: 12},
				WithEnforceStationarity(false), WithEnforceInvertibility(false), WithMaxIterations(200))
			So(err, ShouldBeNil)
			So(m.Fit(timeseries.FromValues(noisy)), ShouldBeNil)
			forecast, err := m.Forecast(6)

			Convey("Then forecasts stay near the underlying signal", func() {
				So(err, ShouldBeNil)
				want := seasonalTrend(102)[96:]
				for i := range want {
					So(math.IsNaN(forecast[i]), ShouldBeFalse)
					So(forecast[i], ShouldAlmostEqual, want[i], 8)
				}
			})
		})
	})
}

func TestFitErrors(t *testing.T) {
	Convey("Given a short series", t, func() {
		series := linear(12, 1, 1)

		Convey("When the order needs more points", func() {
			m, _ := New(Order{P: 2, D: 1, Q: 2}, SeasonalOrder{})
			err := m.Fit(series)

			Convey("Then ErrInsufficientData is returned", func() {
				So(errors.Is(err, ErrInsufficientData), ShouldBeTrue)
				So(m.Fitted(), ShouldBeFalse)
			})
		})

		Convey("When forecasting an unfitted model", func() {
			m, _ := New(Order{P: 1}, SeasonalOrder{})
			_, err := m.Forecast(3)
			So(errors.Is(err, ErrNotFitted), ShouldBeTrue)
			So(m.Residuals(), ShouldBeNil)
		})

		Convey("When asking for zero steps", func() {
			m, _ := New(Order{}, SeasonalOrder{})
			So(m.Fit(series), ShouldBeNil)
			_, err := m.Forecast(0)
			So(errors.Is(err, ErrInvalidSteps), ShouldBeTrue)
		})
	})
}

func TestConcurrentForecast(t *testing.T) {
	Convey("Given a fitted model", t, func() {
		m, _ := New(Order{P: 1, D: 1}, SeasonalOrder{})
		So(m.Fit(timeseries.FromValues(seasonalTrend(60))), ShouldBeNil)
		want, err := m.Forecast(6)
		So(err, ShouldBeNil)

		Convey("When many goroutines forecast at once", func() {
			var wg sync.WaitGroup
			results := make([][]float64, 16)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], _ = m.Forecast(6)
				}(i)
			}
			wg.Wait()

			Convey("Then every result matches", func() {
				for _, r := range results {
					So(r, ShouldResemble, want)
				}
			})
		})
	})
}
