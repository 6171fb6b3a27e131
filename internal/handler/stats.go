package handler

import (
	"net/http"

	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/repository"
	"github.com/fearless-dhbw/img-classification/internal/service"
)

// StatsHandler summarizes stored classifications per label.
func StatsHandler(manager *service.Manager, repo repository.ClassificationRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := dto.StatsResponse{
			PerLabel: map[string]int{},
			Model:    manager.Fingerprint(),
		}
		if hub := manager.GetWebsocketService(); hub != nil {
			resp.LiveClients = hub.GetClientCount()
		}

		if repo != nil {
			counts, err := repo.GetLabelCounts()
			if err != nil {
				logger.Error("Error counting labels: %v", err)
				writeError(w, logger, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			for _, c := range counts {
				resp.PerLabel[c.Label] = c.Count
				resp.Total += c.Count
			}
		}

		writeJSON(w, logger, http.StatusOK, resp)
	}
}
