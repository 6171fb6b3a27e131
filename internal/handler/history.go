package handler

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/repository"
	"github.com/fearless-dhbw/img-classification/internal/service"
)

const (
	defaultPageSize = 24
	maxPageSize     = 200
)

// GetHistoryHandler returns a filtered page of stored classifications.
func GetHistoryHandler(repo repository.ClassificationRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			writeError(w, logger, http.StatusNotFound, "History is disabled")
			return
		}

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultPageSize)
		if limit > maxPageSize {
			limit = maxPageSize
		}

		filters := dto.HistoryFilters{
			Label:      q.Get("label"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
		}
		filter := &model.ClassificationFilter{
			Label:     filters.Label,
			StartDate: filters.DateAfter,
			EndDate:   filters.DateBefore,
			Limit:     limit,
			Offset:    (page - 1) * limit,
		}

		records, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying classification history: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		totalCount, err := repo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting classifications: %v", err)
			totalCount = len(records)
		}

		items := make([]dto.HistoryItem, 0, len(records))
		for _, rec := range records {
			items = append(items, dto.HistoryItem{
				ID:          rec.ID,
				RequestID:   rec.RequestID,
				Class:       rec.Label,
				Probability: rec.Probability,
				Region:      dto.Region{X: rec.X, Y: rec.Y, Width: rec.Width, Height: rec.Height},
				Crop:        rec.CropPath,
				Date:        rec.CreatedAt,
				TimeOfDay:   rec.CreatedAt,
			})
		}

		writeJSON(w, logger, http.StatusOK, dto.HistoryPage{
			Items:       items,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// ViewCropHandler serves one archived face crop named by the "file" query parameter.
func ViewCropHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buffer := manager.GetBufferService()
		if buffer == nil {
			writeError(w, logger, http.StatusNotFound, "History is disabled")
			return
		}

		name := r.URL.Query().Get("file")
		if name == "" {
			writeError(w, logger, http.StatusBadRequest, "File parameter is required")
			return
		}
		path, err := buffer.CropPath(name)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := os.Stat(path); err != nil {
			writeError(w, logger, http.StatusNotFound, "Crop not found")
			return
		}
		http.ServeFile(w, r, path)
	}
}

// ClearHistoryHandler flushes pending records, then deletes all history and crops.
func ClearHistoryHandler(manager *service.Manager, repo repository.ClassificationRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			writeError(w, logger, http.StatusNotFound, "History is disabled")
			return
		}

		if buffer := manager.GetBufferService(); buffer != nil {
			buffer.Flush()
			if err := buffer.ClearArchive(); err != nil {
				logger.Error("Error clearing crop archive: %v", err)
			}
		}

		if err := repo.DeleteAll(); err != nil {
			logger.Error("Error clearing classification history: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		logger.Info("Classification history cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

// atoiDefault converts s to int, returning def when conversion fails or the value is not positive.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses the HTML date input format "2006-01-02".
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
