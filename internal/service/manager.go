package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/metrics"
	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/service/cache"
	"github.com/fearless-dhbw/img-classification/internal/service/decoder"
	"github.com/fearless-dhbw/img-classification/internal/service/pipeline"
	"github.com/fearless-dhbw/img-classification/internal/service/storage"
	"github.com/fearless-dhbw/img-classification/internal/service/websocket"
)

// Classifier is the part of the pipeline the manager drives.
type Classifier interface {
	Ready() bool
	Fingerprint() string
	Dictionary() (map[string]int, error)
	Classify(ctx context.Context, imageData string) ([]model.Result, error)
}

var _ Classifier = (*pipeline.Pipeline)(nil)

// Manager runs classification requests and fans results out to the
// cache, the history buffer and live-feed clients. Buffer, hub and cache
// are optional.
type Manager struct {
	classifier       Classifier
	bufferService    *storage.BufferService
	websocketService *websocket.HubService
	cache            cache.Cache
	metrics          *metrics.Metrics
	logger           *logger.Logger
}

func NewManager(classifier Classifier, bufferService *storage.BufferService, websocketService *websocket.HubService, resultCache cache.Cache, m *metrics.Metrics, logger *logger.Logger) *Manager {
	return &Manager{
		classifier:       classifier,
		bufferService:    bufferService,
		websocketService: websocketService,
		cache:            resultCache,
		metrics:          m,
		logger:           logger,
	}
}

// Classify classifies one payload. requestID tags history records and live events.
func (m *Manager) Classify(ctx context.Context, requestID, imageData string) ([]model.Result, error) {
	start := time.Now()
	results, cached, err := m.classify(ctx, imageData)
	m.metrics.ObserveRequest(outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	m.logger.Info("Request %s: %d face(s) classified in %s (cached=%t)", requestID, len(results), time.Since(start).Round(time.Millisecond), cached)

	if m.bufferService != nil {
		m.bufferService.Add(requestID, results)
	}
	m.publish(requestID, results, cached)
	return results, nil
}

func (m *Manager) classify(ctx context.Context, imageData string) ([]model.Result, bool, error) {
	if !m.classifier.Ready() {
		return nil, false, pipeline.ErrNotReady
	}

	var key string
	if m.cache != nil {
		key = cache.Key(imageData, m.classifier.Fingerprint())
		results, ok, err := m.cache.Get(ctx, key)
		if err != nil {
			m.logger.Warning("Cache lookup failed: %v", err)
		} else {
			m.metrics.ObserveCache(ok)
			if ok {
				return results, true, nil
			}
		}
	}

	results, err := m.classifier.Classify(ctx, imageData)
	if err != nil {
		return nil, false, err
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, key, results); err != nil {
			m.logger.Warning("Cache store failed: %v", err)
		}
	}
	return results, false, nil
}

// Dictionary returns the label to class index mapping.
func (m *Manager) Dictionary() (map[string]int, error) {
	return m.classifier.Dictionary()
}

// Ready reports whether the model is loaded.
func (m *Manager) Ready() bool {
	return m.classifier.Ready()
}

// Fingerprint identifies the loaded model.
func (m *Manager) Fingerprint() string {
	return m.classifier.Fingerprint()
}

func (m *Manager) publish(requestID string, results []model.Result, cached bool) {
	if m.websocketService == nil {
		return
	}
	now := time.Now()
	for _, r := range results {
		msg, err := json.Marshal(dto.ClassificationEvent{
			RequestID:   requestID,
			Class:       r.Label,
			Probability: r.Probability(),
			Region:      dto.NewRegion(r.Region),
			Cached:      cached,
			Timestamp:   now,
		})
		if err != nil {
			m.logger.Error("Failed to encode live event: %v", err)
			continue
		}
		m.websocketService.Broadcast(msg)
	}
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetBufferService() *storage.BufferService {
	return m.bufferService
}

func outcome(err error) string {
	var de *decoder.DecodeError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &de):
		return metrics.OutcomeClientError
	default:
		return metrics.OutcomeError
	}
}
