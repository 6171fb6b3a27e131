package handler

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearless-dhbw/img-classification/internal/config"
	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/service"
	"github.com/fearless-dhbw/img-classification/internal/service/classifier"
	"github.com/fearless-dhbw/img-classification/internal/service/decoder"
	"github.com/fearless-dhbw/img-classification/internal/service/pipeline"
	"github.com/fearless-dhbw/img-classification/internal/service/storage"
	hub "github.com/fearless-dhbw/img-classification/internal/service/websocket"
)

type fakeClassifier struct {
	ready   bool
	results []model.Result
	err     error
	payload string
}

func (f *fakeClassifier) Ready() bool         { return f.ready }
func (f *fakeClassifier) Fingerprint() string { return "fp-123" }
func (f *fakeClassifier) Dictionary() (map[string]int, error) {
	if !f.ready {
		return nil, pipeline.ErrNotReady
	}
	return map[string]int{"lionel_messi": 0, "serena_williams": 1}, nil
}
func (f *fakeClassifier) Classify(_ context.Context, payload string) ([]model.Result, error) {
	f.payload = payload
	return f.results, f.err
}

type memoryRepo struct {
	mu      sync.Mutex
	records []model.Classification
}

func (m *memoryRepo) Insert(c *model.Classification) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.records) + 1)
	m.records = append(m.records, *c)
	return c.ID, nil
}

func (m *memoryRepo) InsertBatch(records []model.Classification) error {
	for i := range records {
		if _, err := m.Insert(&records[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryRepo) GetByID(id int64) (*model.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memoryRepo) matching(filter *model.ClassificationFilter) []model.Classification {
	var out []model.Classification
	for _, r := range m.records {
		if filter != nil && filter.Label != "" && r.Label != filter.Label {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *memoryRepo) GetAll(filter *model.ClassificationFilter) ([]model.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.matching(filter)
	if filter != nil && filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
		if len(out) > filter.Limit {
			out = out[:filter.Limit]
		}
	}
	return out, nil
}

func (m *memoryRepo) GetTotalCount(filter *model.ClassificationFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(filter)), nil
}

func (m *memoryRepo) GetLabelCounts() ([]model.LabelCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, r := range m.records {
		counts[r.Label]++
	}
	var out []model.LabelCount
	for l, c := range counts {
		out = append(out, model.LabelCount{Label: l, Count: c})
	}
	return out, nil
}

func (m *memoryRepo) Delete(id int64) error { return nil }

func (m *memoryRepo) DeleteAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		MaxBodyBytes:         1 << 20,
		ArchiveDirectory:     t.TempDir(),
		HistoryBufferLimit:   10,
		HistoryFlushInterval: time.Hour,
	}
}

func messiResult() model.Result {
	return model.Result{
		Label:         "lionel_messi",
		Index:         0,
		Probabilities: []float64{0.9, 0.1},
		Region:        image.Rect(10, 20, 110, 120),
	}
}

func postClassify(t *testing.T, h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/classify_image", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClassifyImageHandler_Success(t *testing.T) {
	clf := &fakeClassifier{ready: true, results: []model.Result{messiResult()}}
	mgr := service.NewManager(clf, nil, nil, nil, nil, logger.NewNop())
	h := ClassifyImageHandler(mgr, testConfig(t), logger.NewNop())

	rec := postClassify(t, h, "application/json", `{"image_data":"data:image/png;base64,AAAA"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "data:image/png;base64,AAAA", clf.payload)

	var resp []dto.ClassificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "lionel_messi", resp[0].Class)
	assert.Equal(t, []float64{0.9, 0.1}, resp[0].ClassProbability)
	assert.Equal(t, map[string]int{"lionel_messi": 0, "serena_williams": 1}, resp[0].ClassDictionary)
	assert.Equal(t, dto.Region{X: 10, Y: 20, Width: 100, Height: 100}, resp[0].Region)
}

func TestClassifyImageHandler_NoFacesIsEmptyArray(t *testing.T) {
	mgr := service.NewManager(&fakeClassifier{ready: true}, nil, nil, nil, nil, logger.NewNop())
	h := ClassifyImageHandler(mgr, testConfig(t), logger.NewNop())

	rec := postClassify(t, h, "application/json; charset=utf-8", `{"image_data":"AAAA"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestClassifyImageHandler_Errors(t *testing.T) {
	tests := []struct {
		name        string
		classifier  *fakeClassifier
		contentType string
		body        string
		want        int
	}{
		{"non json content type", &fakeClassifier{ready: true}, "text/plain", `{"image_data":"AAAA"}`, http.StatusUnsupportedMediaType},
		{"missing content type", &fakeClassifier{ready: true}, "", `{"image_data":"AAAA"}`, http.StatusUnsupportedMediaType},
		{"malformed json", &fakeClassifier{ready: true}, "application/json", `{"image_data":`, http.StatusBadRequest},
		{"missing field", &fakeClassifier{ready: true}, "application/json", `{}`, http.StatusBadRequest},
		{"empty field", &fakeClassifier{ready: true}, "application/json", `{"image_data":"  "}`, http.StatusBadRequest},
		{"decode error", &fakeClassifier{ready: true, err: &decoder.DecodeError{Reason: "invalid base64"}}, "application/json", `{"image_data":"!!"}`, http.StatusBadRequest},
		{"dimension mismatch", &fakeClassifier{ready: true, err: &classifier.DimensionMismatchError{Expected: 4096, Got: 12}}, "application/json", `{"image_data":"AAAA"}`, http.StatusInternalServerError},
		{"not ready", &fakeClassifier{}, "application/json", `{"image_data":"AAAA"}`, http.StatusServiceUnavailable},
		{"internal failure", &fakeClassifier{ready: true, err: errors.New("boom")}, "application/json", `{"image_data":"AAAA"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := service.NewManager(tt.classifier, nil, nil, nil, nil, logger.NewNop())
			rec := postClassify(t, ClassifyImageHandler(mgr, testConfig(t), logger.NewNop()), tt.contentType, tt.body)

			assert.Equal(t, tt.want, rec.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestClassifyImageHandler_BodyTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxBodyBytes = 16
	mgr := service.NewManager(&fakeClassifier{ready: true}, nil, nil, nil, nil, logger.NewNop())

	rec := postClassify(t, ClassifyImageHandler(mgr, cfg, logger.NewNop()), "application/json", `{"image_data":"`+strings.Repeat("A", 64)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLabelsHandler(t *testing.T) {
	mgr := service.NewManager(&fakeClassifier{ready: true}, nil, nil, nil, nil, logger.NewNop())
	rec := httptest.NewRecorder()
	LabelsHandler(mgr, logger.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/labels", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lionel_messi":0,"serena_williams":1}`, rec.Body.String())

	notReady := service.NewManager(&fakeClassifier{}, nil, nil, nil, nil, logger.NewNop())
	rec = httptest.NewRecorder()
	LabelsHandler(notReady, logger.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/labels", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func seededRepo() *memoryRepo {
	repo := &memoryRepo{}
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	for i, label := range []string{"lionel_messi", "serena_williams", "lionel_messi"} {
		_, _ = repo.Insert(&model.Classification{RequestID: "r", Label: label, Probability: 0.8, Width: 50, Height: 50, CreatedAt: now.Add(time.Duration(i) * time.Minute)})
	}
	return repo
}

func TestGetHistoryHandler(t *testing.T) {
	h := GetHistoryHandler(seededRepo(), logger.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?label=lionel_messi&limit=1&page=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []struct {
			Class     string `json:"class"`
			Date      string `json:"date"`
			TimeOfDay string `json:"timeOfDay"`
		} `json:"items"`
		Length      int `json:"length"`
		TotalPages  int `json:"totalPages"`
		CurrentPage int `json:"currentPage"`
		PageSize    int `json:"pageSize"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Length)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 1, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "lionel_messi", page.Items[0].Class)
	assert.Equal(t, "01-03-2026", page.Items[0].Date)
	assert.Equal(t, "12:32:00", page.Items[0].TimeOfDay)
}

func TestGetHistoryHandler_Disabled(t *testing.T) {
	rec := httptest.NewRecorder()
	GetHistoryHandler(nil, logger.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearHistoryHandler(t *testing.T) {
	cfg := testConfig(t)
	repo := seededRepo()
	buffer := storage.NewBufferService(cfg, logger.NewNop(), nil, repo)
	buffer.Add("pending", []model.Result{messiResult()})
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ArchiveDirectory, "old.jpg"), []byte("x"), 0644))

	mgr := service.NewManager(&fakeClassifier{ready: true}, buffer, nil, nil, nil, logger.NewNop())
	rec := httptest.NewRecorder()
	ClearHistoryHandler(mgr, repo, logger.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/history", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, buffer.Pending())
	count, err := repo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoFileExists(t, filepath.Join(cfg.ArchiveDirectory, "old.jpg"))
}

func TestViewCropHandler(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ArchiveDirectory, "face.jpg"), []byte("jpegdata"), 0644))
	buffer := storage.NewBufferService(cfg, logger.NewNop(), nil, nil)
	mgr := service.NewManager(&fakeClassifier{ready: true}, buffer, nil, nil, nil, logger.NewNop())
	h := ViewCropHandler(mgr, logger.NewNop())

	tests := []struct {
		query string
		want  int
	}{
		{"?file=face.jpg", http.StatusOK},
		{"?file=missing.jpg", http.StatusNotFound},
		{"?file=../secret.jpg", http.StatusBadRequest},
		{"", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/crop"+tt.query, nil))
		assert.Equal(t, tt.want, rec.Code, tt.query)
	}
}

func TestStatsHandler(t *testing.T) {
	mgr := service.NewManager(&fakeClassifier{ready: true}, nil, hub.NewHubService(logger.NewNop(), nil), nil, nil, logger.NewNop())
	rec := httptest.NewRecorder()
	StatsHandler(mgr, seededRepo(), logger.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, map[string]int{"lionel_messi": 2, "serena_williams": 1}, resp.PerLabel)
	assert.Equal(t, "fp-123", resp.Model)
	assert.Zero(t, resp.LiveClients)
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(service.NewManager(&fakeClassifier{ready: true}, nil, nil, nil, nil, logger.NewNop()), logger.NewNop()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler(service.NewManager(&fakeClassifier{}, nil, nil, nil, nil, logger.NewNop()), logger.NewNop()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", logger.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
}

func TestLogsHandlers(t *testing.T) {
	l, err := logger.NewLogger(t.TempDir(), "release")
	require.NoError(t, err)
	t.Cleanup(l.Sync)
	l.Warning("disk almost full")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /logs/{level}", ShowLogsHandler(l))
	mux.HandleFunc("POST /logs/{level}/clear", ClearLogsHandler(l))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/warning", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk almost full")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/debug", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	data, err := os.ReadFile(filepath.Join(l.Dir(), logger.WarningFile))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLiveWebsocketHandler_StreamsEvents(t *testing.T) {
	liveHub := hub.NewHubService(logger.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go liveHub.Run(ctx)

	mgr := service.NewManager(&fakeClassifier{ready: true, results: []model.Result{messiResult()}}, nil, liveHub, nil, nil, logger.NewNop())
	srv := httptest.NewServer(LiveWebsocketHandler(mgr, logger.NewNop()))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return liveHub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = mgr.Classify(context.Background(), "req-1", "AAAA")
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event dto.ClassificationEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, "lionel_messi", event.Class)
	assert.InDelta(t, 0.9, event.Probability, 1e-9)
	assert.False(t, event.Cached)
}
