// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/trendcast/internal/app"
	"github.com/okian/trendcast/pkg/logger"
)

// Forecaster is the use-case surface the handlers call.
type Forecaster interface {
	Predict(ctx context.Context, sportName, modelType string) (*service.Prediction, error)
	CheckAccuracy(ctx context.Context, sportName, modelType string) (*service.Backtest, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	predictHandler  *PredictHandler
	accuracyHandler *AccuracyHandler
	logger          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Forecaster, statsProvider StatsProvider) *Server {
	log := logger.Named("api")
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		predictHandler:  NewPredictHandler(deps, log),
		accuracyHandler: NewAccuracyHandler(deps, log),
		logger:          log,
	}
}

// Register attaches all HTTP routes to mux. Every route is wrapped in
// request logging, metrics and panic recovery.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", s.wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", s.wrap(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", s.wrap(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/check_accuracy", s.wrap(s.accuracyHandler.HandleCheckAccuracy, "check_accuracy"))
}

func (s *Server) wrap(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return RequestLogMiddleware(MetricsMiddleware(RecoverMiddleware(h, s.logger), endpoint), s.logger)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v before touching the header so an unencodable body
// (a NaN forecast, say) becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
