package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/trendcast/pkg/logger"
)

// Defaults applied to zero Config fields.
const (
	defaultRounds  = 1
	defaultWorkers = 4
	defaultSteps   = 6
	defaultTimeout = 2 * time.Minute
)

// Run executes the smoke checks against cfg.BaseURL and returns the report.
// It returns ErrCheckFailed when any check failed.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg = withDefaults(cfg)
	log := logger.Named("smoke")
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	rec := &recorder{report: Report{StartTime: time.Now()}, log: log, verbose: cfg.Verbose}

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Bool("backtest", cfg.Backtest))

	if err := checkHealth(ctx, client); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Predict every pair cfg.Rounds times; the first call per pair trains.
	jobs := make([]pair, 0, cfg.Rounds*len(pairs()))
	for i := 0; i < cfg.Rounds; i++ {
		jobs = append(jobs, pairs()...)
	}
	runConcurrently(ctx, cfg.Workers, jobs, func(p pair) {
		rec.check(ctx, "predict "+p.Sport+"/"+p.ModelType, func() error {
			return checkPredict(ctx, client, p, cfg.Steps)
		})
	})

	if cfg.Backtest {
		runConcurrently(ctx, cfg.Workers, pairs(), func(p pair) {
			rec.check(ctx, "check_accuracy "+p.Sport+"/"+p.ModelType, func() error {
				return checkBacktest(ctx, client, p)
			})
		})
	}

	rec.check(ctx, "invalid sport", func() error {
		return expectStatus(ctx, client, http.MethodPost, "/predict", pair{Sport: "curling", ModelType: "arima"}, http.StatusBadRequest)
	})
	rec.check(ctx, "invalid model", func() error {
		return expectStatus(ctx, client, http.MethodPost, "/check_accuracy", pair{Sport: "football", ModelType: "lstm"}, http.StatusBadRequest)
	})
	rec.check(ctx, "wrong method", func() error {
		return expectStatus(ctx, client, http.MethodGet, "/predict", nil, http.StatusMethodNotAllowed)
	})
	rec.check(ctx, "stats", func() error {
		return checkStats(ctx, client, len(pairs()))
	})

	report := rec.finish()
	log.Info(ctx, "smoke run finished",
		logger.Int("requests", report.Requests),
		logger.Int("succeeded", report.Succeeded),
		logger.Int("failed", report.Failed),
		logger.Duration("slowest", report.SlowestCall),
		logger.Duration("took", report.Duration))

	if report.Failed > 0 {
		return report, fmt.Errorf("%w: %d of %d checks", ErrCheckFailed, report.Failed, report.Requests)
	}
	return report, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Rounds < 1 {
		cfg.Rounds = defaultRounds
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Steps < 1 {
		cfg.Steps = defaultSteps
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

// runConcurrently feeds jobs to workers and waits for them to drain.
func runConcurrently(ctx context.Context, workers int, jobs []pair, fn func(pair)) {
	ch := make(chan pair, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range ch {
				fn(p)
			}
		}()
	}
	go func() {
		defer close(ch)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case ch <- j:
			}
		}
	}()
	wg.Wait()
}

// recorder accumulates check outcomes from many goroutines.
type recorder struct {
	mu      sync.Mutex
	report  Report
	log     logger.Logger
	verbose bool
}

func (r *recorder) check(ctx context.Context, name string, fn func() error) {
	start := time.Now()
	err := fn()
	took := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Requests++
	if took > r.report.SlowestCall {
		r.report.SlowestCall = took
	}
	if err != nil {
		r.report.Failed++
		r.report.Failures = append(r.report.Failures, name+": "+err.Error())
		r.log.Error(ctx, "check failed", logger.String("check", name), logger.Error(err))
		return
	}
	r.report.Succeeded++
	if r.verbose {
		r.log.Info(ctx, "check passed", logger.String("check", name), logger.Duration("took", took))
	}
}

func (r *recorder) finish() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.report
	out.Duration = time.Since(out.StartTime)
	return &out
}

func checkHealth(ctx context.Context, c *httpClient) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("status %d", status)
	}
	return nil
}

func checkPredict(ctx context.Context, c *httpClient, p pair, steps int) error {
	status, body, err := c.do(ctx, http.MethodPost, "/predict", p)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(status, body)
	}
	var out prediction
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode prediction: %w", err)
	}
	if len(out.Dates) != steps || len(out.Predictions) != steps {
		return fmt.Errorf("expected %d dates and predictions, got %d and %d", steps, len(out.Dates), len(out.Predictions))
	}
	return nil
}

func checkBacktest(ctx context.Context, c *httpClient, p pair) error {
	status, body, err := c.do(ctx, http.MethodPost, "/check_accuracy", p)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(status, body)
	}
	var out backtest
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode backtest: %w", err)
	}
	switch {
	case len(out.HistoricalDates) != len(out.HistoricalValues):
		return fmt.Errorf("history has %d dates and %d values", len(out.HistoricalDates), len(out.HistoricalValues))
	case len(out.PredictionDates) != len(out.PredictionValues):
		return fmt.Errorf("backtest has %d dates and %d values", len(out.PredictionDates), len(out.PredictionValues))
	case len(out.PredictionValues) == 0 || len(out.PredictionValues) >= len(out.HistoricalValues):
		return fmt.Errorf("backtest length %d out of range for %d observations", len(out.PredictionValues), len(out.HistoricalValues))
	}
	return nil
}

func expectStatus(ctx context.Context, c *httpClient, method, path string, body any, want int) error {
	status, data, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("expected status %d, got %w", want, statusError(status, data))
	}
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil || eb.Error == "" {
		return fmt.Errorf("expected a JSON error body, got %q", string(data))
	}
	return nil
}

func checkStats(ctx context.Context, c *httpClient, wantModels int) error {
	status, body, err := c.do(ctx, http.MethodGet, "/stats", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(status, body)
	}
	var stats map[string]any
	if err := json.Unmarshal(body, &stats); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}
	cached, ok := stats["cachedModels"].(float64)
	if !ok {
		return fmt.Errorf("stats lack cachedModels")
	}
	if int(cached) < wantModels {
		return fmt.Errorf("expected at least %d cached models, got %d", wantModels, int(cached))
	}
	return nil
}

func statusError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return fmt.Errorf("status %d: %s", status, eb.Error)
	}
	return fmt.Errorf("status %d", status)
}
