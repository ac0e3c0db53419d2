package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/trendcast/pkg/logger"
)

// maxBodyBytes caps request bodies; a forecast request is two short strings.
const maxBodyBytes = 1 << 16

// forecastRequest mirrors the OpenAPI schema shared by /predict and /check_accuracy.
type forecastRequest struct {
	Sport     string `json:"sport"`
	ModelType string `json:"model_type"`
}

func (f forecastRequest) validate() error {
	switch {
	case strings.TrimSpace(f.Sport) == "":
		return errors.New("missing sport")
	case strings.TrimSpace(f.ModelType) == "":
		return errors.New("missing model_type")
	}
	return nil
}

// decodeForecastRequest checks the method and decodes and validates the body.
func decodeForecastRequest(r *http.Request) (forecastRequest, error) {
	var req forecastRequest
	if r.Method != http.MethodPost {
		return req, WithStatus(http.StatusMethodNotAllowed, ErrMethodNotAllowed)
	}
	if r.Body == nil {
		return req, badRequest(errors.New("empty body"))
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return req, badRequest(err)
	}
	if err := req.validate(); err != nil {
		return req, badRequest(err)
	}
	return req, nil
}

// fail answers with the mapped status and logs the failure.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error, notFound int) {
	status := statusFor(err, notFound)
	fields := []logger.Field{
		logger.String("op", op),
		logger.String("request_id", RequestID(ctx)),
		logger.Int("status", status),
		logger.Error(err),
	}
	if isExpected(err) {
		log.Warn(ctx, "request rejected", fields...)
	} else {
		log.Error(ctx, "request failed", fields...)
	}
	if status == http.StatusMethodNotAllowed {
		w.Header().Set("Allow", http.MethodPost)
	}
	writeError(w, status, err)
}
