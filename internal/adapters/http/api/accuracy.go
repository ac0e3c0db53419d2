package api

import (
	"net/http"

	"github.com/okian/trendcast/pkg/logger"
)

// AccuracyHandler handles backtests.
type AccuracyHandler struct {
	deps   Forecaster
	logger logger.Logger
}

// NewAccuracyHandler creates a new accuracy handler.
func NewAccuracyHandler(deps Forecaster, log logger.Logger) *AccuracyHandler {
	return &AccuracyHandler{deps: deps, logger: log}
}

// HandleCheckAccuracy handles POST /check_accuracy requests. Every
// failure, a missing dataset included, answers 400.
func (h *AccuracyHandler) HandleCheckAccuracy(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_accuracy"
	ctx := r.Context()

	req, err := decodeForecastRequest(r)
	if err != nil {
		fail(ctx, w, h.logger, op, err, http.StatusBadRequest)
		return
	}
	out, err := h.deps.CheckAccuracy(ctx, req.Sport, req.ModelType)
	if err != nil {
		fail(ctx, w, h.logger, op, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
