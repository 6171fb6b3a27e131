package handler

import (
	"net/http"
	"runtime"

	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/service"
)

// HealthHandler reports 200 once the model is loaded and 503 before.
func HealthHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !manager.Ready() {
			writeJSON(w, logger, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok", "model": manager.Fingerprint()})
	}
}

func VersionHandler(version string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"version": version, "go": runtime.Version()})
	}
}
