package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/fearless-dhbw/img-classification/internal/config"
	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/metrics"
	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/repository"
)

// BufferService buffers classification results in memory and periodically
// flushes them to the history store, archiving face crops when enabled.
type BufferService struct {
	archiveDir    string
	archiveCrops  bool
	limit         int
	flushInterval time.Duration
	pending       []dto.BufferedClassification
	flushMu       sync.Mutex
	mu            sync.Mutex
	logger        *logger.Logger
	metrics       *metrics.Metrics
	repo          repository.ClassificationRepository
}

// NewBufferService creates a new BufferService writing to repo.
func NewBufferService(config *config.Config, logger *logger.Logger, m *metrics.Metrics, repo repository.ClassificationRepository) *BufferService {
	limit := config.HistoryBufferLimit
	if limit <= 0 {
		limit = 1
	}
	interval := config.HistoryFlushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BufferService{
		archiveDir:    config.ArchiveDirectory,
		archiveCrops:  config.ArchiveCrops,
		limit:         limit,
		flushInterval: interval,
		pending:       make([]dto.BufferedClassification, 0, limit),
		logger:        logger,
		metrics:       m,
		repo:          repo,
	}
}

// Run flushes on a ticker until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Add buffers the results of one request. Reaching the buffer limit
// triggers an immediate flush.
func (s *BufferService) Add(requestID string, results []model.Result) {
	if len(results) == 0 {
		return
	}

	s.mu.Lock()
	now := time.Now()
	for i, r := range results {
		s.pending = append(s.pending, dto.BufferedClassification{
			RequestID: requestID,
			Index:     i,
			Timestamp: now,
			Result:    r,
		})
	}
	full := len(s.pending) >= s.limit
	size := len(s.pending)
	s.mu.Unlock()

	s.logger.Debug("History buffer size: %d/%d", size, s.limit)
	if full {
		s.Flush()
	}
}

// Pending returns the number of buffered records.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes buffered records (and crops) and resets the buffer.
func (s *BufferService) Flush() {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	batch := s.pending
	s.pending = make([]dto.BufferedClassification, 0, s.limit)
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if s.archiveCrops {
		if err := os.MkdirAll(s.archiveDir, 0755); err != nil {
			s.logger.Error("Error creating directory: %v", err)
			s.archiveCrops = false
		}
	}

	records := make([]model.Classification, 0, len(batch))
	for _, b := range batch {
		rec := model.Classification{
			RequestID:   b.RequestID,
			Label:       b.Result.Label,
			Probability: b.Result.Probability(),
			X:           b.Result.Region.Min.X,
			Y:           b.Result.Region.Min.Y,
			Width:       b.Result.Region.Dx(),
			Height:      b.Result.Region.Dy(),
			CreatedAt:   b.Timestamp,
		}

		if s.archiveCrops && !b.Result.Crop.Empty() {
			filename := cropFileName(b)
			fullpath := filepath.Join(s.archiveDir, filename)
			if err := imaging.Save(b.Result.Crop.ToNRGBA(), fullpath, imaging.JPEGQuality(90)); err != nil {
				s.logger.Error("Error saving crop %s: %v", filename, err)
			} else {
				rec.CropPath = filename
			}
		}

		records = append(records, rec)
	}

	if s.repo == nil {
		return
	}
	if err := s.repo.InsertBatch(records); err != nil {
		s.logger.Error("Error saving classifications to database: %v", err)
		return
	}

	s.metrics.ObserveHistory(len(records))
	s.logger.Info("Flushed %d classifications to history", len(records))
}

// CropPath resolves an archived crop name inside the archive directory.
func (s *BufferService) CropPath(name string) (string, error) {
	clean := filepath.Base(filepath.Clean(name))
	if clean == "." || clean == string(filepath.Separator) || clean != name {
		return "", fmt.Errorf("invalid crop name %q", name)
	}
	return filepath.Join(s.archiveDir, clean), nil
}

// ClearArchive removes every archived crop.
func (s *BufferService) ClearArchive() error {
	entries, err := os.ReadDir(s.archiveDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read archive directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jpg") {
			continue
		}
		if err := os.Remove(filepath.Join(s.archiveDir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

func cropFileName(b dto.BufferedClassification) string {
	return fmt.Sprintf("%s_%s_%d_%s.jpg", b.Timestamp.Format("2006-01-02_15-04-05.000"), sanitize(b.RequestID), b.Index, sanitize(b.Result.Label))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, s)
}
