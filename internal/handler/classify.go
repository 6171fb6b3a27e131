package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/fearless-dhbw/img-classification/internal/config"
	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/middleware"
	"github.com/fearless-dhbw/img-classification/internal/service"
)

// ClassifyImageHandler classifies the base64 image in {"image_data": ...}
// and responds with one entry per accepted face.
func ClassifyImageHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isJSON(r.Header.Get("Content-Type")) {
			writeError(w, logger, http.StatusUnsupportedMediaType, "Invalid content type. Expected application/json")
			return
		}

		if cfg.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes)
		}

		var req dto.ClassifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, logger, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.ImageData == nil {
			writeError(w, logger, http.StatusBadRequest, "Missing 'image_data' field in JSON")
			return
		}
		if strings.TrimSpace(*req.ImageData) == "" {
			writeError(w, logger, http.StatusBadRequest, "Field 'image_data' is empty")
			return
		}

		requestID := middleware.GetRequestID(r.Context())
		results, err := manager.Classify(r.Context(), requestID, *req.ImageData)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				logger.Error("Request %s: classification failed: %v", requestID, err)
			} else {
				logger.Warning("Request %s: rejected input: %v", requestID, err)
			}
			writeError(w, logger, status, err.Error())
			return
		}

		dictionary, err := manager.Dictionary()
		if err != nil {
			writeError(w, logger, statusFor(err), err.Error())
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.NewClassificationResponses(results, dictionary))
	}
}

// isJSON accepts application/json and any +json media type.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
