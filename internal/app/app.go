package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fearless-dhbw/img-classification/internal/config"
	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/metrics"
	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/repository"
	"github.com/fearless-dhbw/img-classification/internal/repository/sqlite"
	"github.com/fearless-dhbw/img-classification/internal/route"
	"github.com/fearless-dhbw/img-classification/internal/service"
	"github.com/fearless-dhbw/img-classification/internal/service/ai"
	"github.com/fearless-dhbw/img-classification/internal/service/ai/opencv"
	"github.com/fearless-dhbw/img-classification/internal/service/ai/pico"
	"github.com/fearless-dhbw/img-classification/internal/service/cache"
	"github.com/fearless-dhbw/img-classification/internal/service/classifier"
	"github.com/fearless-dhbw/img-classification/internal/service/features"
	"github.com/fearless-dhbw/img-classification/internal/service/pipeline"
	"github.com/fearless-dhbw/img-classification/internal/service/storage"
	"github.com/fearless-dhbw/img-classification/internal/service/websocket"
)

// Version is set at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

type App struct {
	config        *config.Config
	logger        *logger.Logger
	metrics       *metrics.Metrics
	detector      ai.Detector
	db            *sqlite.DB
	repo          repository.ClassificationRepository
	cache         *cache.RedisCache
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager
}

// Layout is the feature layout the configured extractor produces.
func Layout(cfg *config.Config) model.FeatureLayout {
	return model.FeatureLayout{
		Width:           cfg.FeatureWidth,
		Height:          cfg.FeatureHeight,
		ColorChannels:   3,
		WaveletChannels: 1,
		Wavelet:         cfg.WaveletMode,
		Level:           cfg.WaveletLevel,
		Interpolation:   model.InterpolationLinear,
	}
}

// NewDetector opens the face and eye detector for the configured backend.
func NewDetector(cfg *config.Config, logger *logger.Logger) (ai.Detector, error) {
	switch cfg.DetectorBackend {
	case config.BackendPico:
		params := pico.DefaultParams()
		params.MinSize = cfg.MinFaceSize
		params.ScaleFactor = cfg.FaceScaleFactor
		return pico.New(cfg.PicoFaceCascade, cfg.PicoPupilCascade, params)
	default:
		return opencv.NewCascadeDetector(cfg.FaceCascadePath(), cfg.EyeCascadePath(), opencv.Params{
			FaceScaleFactor:  cfg.FaceScaleFactor,
			FaceMinNeighbors: cfg.FaceMinNeighbors,
			EyeScaleFactor:   cfg.EyeScaleFactor,
			EyeMinNeighbors:  cfg.EyeMinNeighbors,
			MinFaceSize:      cfg.MinFaceSize,
		}, logger)
	}
}

// NewPipeline builds the extraction pipeline. With withModel set the
// classifier artifacts are loaded and any load error is returned; without
// it the pipeline can only extract features. The caller closes the detector.
func NewPipeline(cfg *config.Config, logger *logger.Logger, m *metrics.Metrics, withModel bool) (*pipeline.Pipeline, ai.Detector, error) {
	layout := Layout(cfg)
	assembler, err := features.New(layout)
	if err != nil {
		return nil, nil, err
	}

	var mc *classifier.Context
	if withModel {
		mc, err = classifier.NewContext(cfg.ModelPath, cfg.LabelsPath, layout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load model artifacts: %w", err)
		}
		logger.Info("Model %s loaded: %d classes, layout %s", cfg.ModelPath, mc.Labels.Len(), layout)
	}

	detector, err := NewDetector(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s detector: %w", cfg.DetectorBackend, err)
	}

	localizer := ai.NewLocalizer(detector, detector, cfg.MinEyes, logger)
	p, err := pipeline.New(mc, localizer, assembler, m, logger)
	if err != nil {
		detector.Close()
		return nil, nil, err
	}
	return p, detector, nil
}

// NewApp loads configuration and artifacts and wires every service. Any
// artifact failure aborts startup.
func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogDirectory, cfg.Mode)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: log, metrics: metrics.New()}

	p, detector, err := NewPipeline(cfg, log, a.metrics, true)
	if err != nil {
		log.Sync()
		return nil, err
	}
	a.detector = detector

	if cfg.HistoryEnabled {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		a.db = db
		a.repo = sqlite.NewClassificationRepository(db)
		a.bufferService = storage.NewBufferService(cfg, log, a.metrics, a.repo)
	}

	a.hubService = websocket.NewHubService(log, a.metrics)

	var resultCache cache.Cache
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			log.Warning("Redis at %s unreachable, result cache disabled: %v", cfg.RedisAddr, err)
			rc.Close()
		} else {
			a.cache = rc
			resultCache = rc
		}
	}

	a.manager = service.NewManager(p, a.bufferService, a.hubService, resultCache, a.metrics, log)
	return a, nil
}

// Run serves HTTP until ctx is done, then shuts down gracefully and
// flushes pending history.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if a.bufferService != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.bufferService.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.hubService.Run(ctx)
	}()

	router := route.SetupRoutes(a.manager, a.config, a.logger, a.metrics, a.repo, Version)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       a.config.ReadTimeout,
		WriteTimeout:      a.config.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	a.logger.Info("Face classification server %s", Version)
	a.logger.Info("URL: http://localhost:%d", a.config.Port)
	a.logger.Info("Detector: %s, model: %s (%s)", a.config.DetectorBackend, a.config.ModelPath, a.manager.Fingerprint())
	a.logger.Info("History: %t, cache: %t", a.bufferService != nil, a.cache != nil)

	select {
	case err := <-serveErr:
		cancel()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer stop()
	err := srv.Shutdown(shutdownCtx)

	cancel()
	wg.Wait()
	return err
}

// Close releases the detector, database, cache and log files.
func (a *App) Close() {
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Error("Error closing detector: %v", err)
		}
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Error closing database: %v", err)
		}
	}
	a.logger.Sync()
}
