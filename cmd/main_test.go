package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/trendcast/internal/config"
	"github.com/okian/trendcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func writeDataset(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Month,Premier League,NBA\n")
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 36; i++ {
		fmt.Fprintf(&b, "%s,%d,%d\n", start.AddDate(0, i, 0).Format("2006-01"), 10+2*i, 50+3*(i%12))
	}
	path := filepath.Join(t.TempDir(), "multiTimeline.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestApplicationWiring(t *testing.T) {
	convey.Convey("Given the application built from config", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.DatasetPath = writeDataset(t)

		svc, err := newService(cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer svc.Stop()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		mux := newMux(ctx, svc)

		convey.Convey("When predicting through HTTP", func() {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"sport":"football","model_type":"arima"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then six months are forecast", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body struct {
					Dates       []string  `json:"dates"`
					Predictions []float64 `json:"predictions"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(len(body.Dates), convey.ShouldEqual, 6)
				convey.So(body.Predictions[0], convey.ShouldAlmostEqual, 82, 1e-6)
			})
		})

		convey.Convey("When the sport is unknown", func() {
			req := httptest.NewRequest(http.MethodPost, "/check_accuracy", strings.NewReader(`{"sport":"curling","model_type":"arima"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then 400 is returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "invalid sport selected")
			})
		})

		convey.Convey("When fetching the UI, docs and metrics", func() {
			for _, path := range []string{"/", "/api-docs", "/openapi.yaml", "/healthz", "/stats"} {
				req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})

	convey.Convey("Given an unknown strategy", t, func() {
		cfg := config.New()
		cfg.Strategy = "neural"

		convey.Convey("Then the service is not built", func() {
			_, err := newService(cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
