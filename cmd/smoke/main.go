package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/trendcast/internal/smoke"
	"github.com/okian/trendcast/pkg/logger"
)

const defaultRunTimeout = 15 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:5000", "Base URL of the service")
		rounds   = flag.Int("rounds", 1, "Predict calls per (sport, model) pair")
		workers  = flag.Int("workers", 4, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", 2*time.Minute, "HTTP request timeout")
		steps    = flag.Int("steps", 6, "Expected forecast length")
		backtest = flag.Bool("backtest", true, "Also call /check_accuracy for every pair")
		verbose  = flag.Bool("verbose", false, "Log every passing check")
		format   = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.InitWithWriter(os.Stdout, *format); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, err := smoke.Run(ctx, smoke.Config{
		BaseURL:  *baseURL,
		Rounds:   *rounds,
		Workers:  *workers,
		Timeout:  *timeout,
		Steps:    *steps,
		Backtest: *backtest,
		Verbose:  *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "smoke run failed", logger.Error(err))
		os.Exit(1)
	}
}
