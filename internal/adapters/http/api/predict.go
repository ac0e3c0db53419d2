package api

import (
	"net/http"

	"github.com/okian/trendcast/pkg/logger"
)

// PredictHandler handles forward forecasts.
type PredictHandler struct {
	deps   Forecaster
	logger logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Forecaster, log logger.Logger) *PredictHandler {
	return &PredictHandler{deps: deps, logger: log}
}

// HandlePredict handles POST /predict requests. A missing dataset answers 404.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	ctx := r.Context()

	req, err := decodeForecastRequest(r)
	if err != nil {
		fail(ctx, w, h.logger, op, err, http.StatusNotFound)
		return
	}
	out, err := h.deps.Predict(ctx, req.Sport, req.ModelType)
	if err != nil {
		fail(ctx, w, h.logger, op, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
