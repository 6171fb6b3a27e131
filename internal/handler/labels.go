package handler

import (
	"net/http"

	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/service"
)

// LabelsHandler returns the class dictionary of the loaded model.
func LabelsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dictionary, err := manager.Dictionary()
		if err != nil {
			writeError(w, logger, statusFor(err), err.Error())
			return
		}
		writeJSON(w, logger, http.StatusOK, dictionary)
	}
}
