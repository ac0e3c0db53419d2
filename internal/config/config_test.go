package config_test

import (
	"errors"
	"testing"

	"github.com/okian/trendcast/internal/config"
	"github.com/okian/trendcast/internal/domain/arima"
	"github.com/okian/trendcast/internal/domain/sport"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.DatasetPath, convey.ShouldEqual, "data/multiTimeline.csv")
			convey.So(cfg.Strategy, convey.ShouldEqual, "fixed")
			convey.So(cfg.ForecastSteps, convey.ShouldEqual, 6)
			convey.So(cfg.TrainRatio, convey.ShouldEqual, 0.8)
			convey.So(cfg.Warmup, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the column map is the shipped one", func() {
			cols, err := cfg.ColumnMap()
			convey.So(err, convey.ShouldBeNil)
			convey.So(cols, convey.ShouldResemble, sport.DefaultColumns())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"unknown strategy":  func(c *config.Config) { c.Strategy = "magic" },
			"zero steps":        func(c *config.Config) { c.ForecastSteps = 0 },
			"ratio of one":      func(c *config.Config) { c.TrainRatio = 1 },
			"warmup no workers": func(c *config.Config) { c.Warmup = true; c.WarmupWorkers = 0 },
			"unknown sport column": func(c *config.Config) {
				c.Columns = map[string]string{"curling": "Curling"}
			},
			"unknown model kind": func(c *config.Config) {
				c.Models = map[string]map[string]config.ModelSpec{"football": {"lstm": {}}}
			},
			"negative order": func(c *config.Config) {
				c.Models = map[string]map[string]config.ModelSpec{"football": {"arima": {Order: arima.Order{P: -1}}}}
			},
		}

		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				mutate(cfg)

				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfig_ModelTable(t *testing.T) {
	convey.Convey("Given model overrides", t, func() {
		cfg := config.New()
		cfg.Models = map[string]map[string]config.ModelSpec{
			"Tennis": {
				"arima":  {Order: arima.Order{P: 3, D: 1, Q: 0}},
				"sarima": {Order: arima.Order{P: 0, D: 1, Q: 1}, SeasonalOrder: &arima.SeasonalOrder{P: 0, D: 1, Q: 1, M: 12}},
			},
		}

		table, err := cfg.ModelTable()

		convey.Convey("Then overrides replace only their keys", func() {
			convey.So(err, convey.ShouldBeNil)
			tennis := table[sport.Key{Sport: sport.Tennis, Kind: sport.ARIMA}]
			convey.So(tennis.Order, convey.ShouldResemble, arima.Order{P: 3, D: 1, Q: 0})
			convey.So(tennis.Seasonal, convey.ShouldBeNil)

			seasonal := table[sport.Key{Sport: sport.Tennis, Kind: sport.SARIMA}]
			convey.So(seasonal.Seasonal, convey.ShouldNotBeNil)
			convey.So(seasonal.Seasonal.Q, convey.ShouldEqual, 1)

			football := table[sport.Key{Sport: sport.Football, Kind: sport.ARIMA}]
			convey.So(football.Order, convey.ShouldResemble, arima.Order{P: 2, D: 1, Q: 2})
		})
	})
}
