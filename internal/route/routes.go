package route

import (
	"net/http"

	"github.com/fearless-dhbw/img-classification/internal/config"
	"github.com/fearless-dhbw/img-classification/internal/handler"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/metrics"
	"github.com/fearless-dhbw/img-classification/internal/middleware"
	"github.com/fearless-dhbw/img-classification/internal/repository"
	"github.com/fearless-dhbw/img-classification/internal/service"
)

// SetupRoutes registers the classification API, history, live feed,
// metrics and log endpoints, and wraps the mux with CORS, request id and
// access logging middleware. repo may be nil when history is disabled.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger, m *metrics.Metrics,
	repo repository.ClassificationRepository, version string) http.Handler {
	mux := http.NewServeMux()

	// Classification
	classify := handler.ClassifyImageHandler(manager, cfg, logger)
	mux.HandleFunc("POST /classify_image", classify)
	mux.HandleFunc("POST /api/classify", classify)
	mux.HandleFunc("GET /api/labels", handler.LabelsHandler(manager, logger))

	// History and live feed
	mux.HandleFunc("GET /api/history", handler.GetHistoryHandler(repo, logger))
	mux.HandleFunc("GET /api/history/crop", handler.ViewCropHandler(manager, logger))
	mux.HandleFunc("DELETE /api/history", handler.ClearHistoryHandler(manager, repo, logger))
	mux.HandleFunc("GET /api/stats", handler.StatsHandler(manager, repo, logger))
	mux.HandleFunc("GET /api/live", handler.LiveWebsocketHandler(manager, logger))

	// Operations
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /health", handler.HealthHandler(manager, logger))
	mux.HandleFunc("GET /version", handler.VersionHandler(version, logger))

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handler.ShowLogsHandler(logger))
	mux.HandleFunc("POST /logs/{level}/clear", handler.ClearLogsHandler(logger))

	return middleware.Chain(mux,
		middleware.CORS(cfg.CORSOrigins),
		middleware.RequestID,
		middleware.Logger(logger.Zap()),
	)
}
