package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/service/decoder"
	"github.com/fearless-dhbw/img-classification/internal/service/pipeline"
)

// statusFor maps a core error to the HTTP status it is reported with.
func statusFor(err error) int {
	var decodeErr *decoder.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNotReady):
		return http.StatusServiceUnavailable
	default:
		// Includes classifier.DimensionMismatchError.
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *logger.Logger, status int, msg string) {
	writeJSON(w, logger, status, dto.ErrorResponse{Error: msg})
}
