package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Detector backends.
const (
	BackendOpenCV = "opencv"
	BackendPico   = "pico"
)

type Config struct {
	Port            int
	Mode            string // "debug" or "release"
	LogDirectory    string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	CORSOrigins     []string

	// Artifacts loaded once at startup.
	ModelPath  string
	LabelsPath string

	// Face/eye localization.
	DetectorBackend  string
	CascadeDir       string
	FaceCascade      string
	EyeCascade       string
	PicoFaceCascade  string
	PicoPupilCascade string
	FaceScaleFactor  float64
	FaceMinNeighbors int
	EyeScaleFactor   float64
	EyeMinNeighbors  int
	MinFaceSize      int
	MinEyes          int

	// Feature layout; must agree with the layout stored in the model artifact.
	FeatureWidth  int
	FeatureHeight int
	WaveletMode   string
	WaveletLevel  int

	// Classification history.
	DatabasePath         string
	HistoryEnabled       bool
	HistoryBufferLimit   int
	HistoryFlushInterval time.Duration
	ArchiveDirectory     string
	ArchiveCrops         bool

	// Result cache, disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// Load reads the optional .env file and builds the configuration from the environment.
func Load() *Config {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	artifacts := getEnv("ARTIFACT_DIR", filepath.Join(".", "artifacts"))

	return &Config{
		Port:            getEnvAsInt("PORT", 5000),
		Mode:            getEnv("APP_MODE", "debug"),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxBodyBytes:    getEnvAsInt64("MAX_BODY_BYTES", 10*1024*1024),
		CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"*"}),

		ModelPath:  getEnv("MODEL_PATH", filepath.Join(artifacts, "model.json")),
		LabelsPath: getEnv("LABELS_PATH", filepath.Join(artifacts, "class_dictionary.json")),

		DetectorBackend:  getEnv("DETECTOR_BACKEND", BackendOpenCV),
		CascadeDir:       getEnv("CASCADE_DIR", filepath.Join(artifacts, "haarcascades")),
		FaceCascade:      getEnv("FACE_CASCADE", "haarcascade_frontalface_default.xml"),
		EyeCascade:       getEnv("EYE_CASCADE", "haarcascade_eye.xml"),
		PicoFaceCascade:  getEnv("PICO_FACE_CASCADE", filepath.Join(artifacts, "pico", "facefinder")),
		PicoPupilCascade: getEnv("PICO_PUPIL_CASCADE", filepath.Join(artifacts, "pico", "puploc")),
		FaceScaleFactor:  getEnvAsFloat("FACE_SCALE_FACTOR", 1.3),
		FaceMinNeighbors: getEnvAsInt("FACE_MIN_NEIGHBORS", 5),
		EyeScaleFactor:   getEnvAsFloat("EYE_SCALE_FACTOR", 1.1),
		EyeMinNeighbors:  getEnvAsInt("EYE_MIN_NEIGHBORS", 3),
		MinFaceSize:      getEnvAsInt("MIN_FACE_SIZE", 30),
		MinEyes:          getEnvAsInt("MIN_EYES", 2),

		FeatureWidth:  getEnvAsInt("FEATURE_WIDTH", 32),
		FeatureHeight: getEnvAsInt("FEATURE_HEIGHT", 32),
		WaveletMode:   getEnv("WAVELET_MODE", "haar"),
		WaveletLevel:  getEnvAsInt("WAVELET_LEVEL", 1),

		DatabasePath:         getEnv("DB_PATH", filepath.Join(".", "data", "classifications.db")),
		HistoryEnabled:       getEnvAsBool("HISTORY_ENABLED", true),
		HistoryBufferLimit:   getEnvAsInt("HISTORY_BUFFER_LIMIT", 50),
		HistoryFlushInterval: getEnvAsDuration("HISTORY_FLUSH_INTERVAL", 30*time.Second),
		ArchiveDirectory:     getEnv("ARCHIVE_DIR", filepath.Join(".", "data", "faces")),
		ArchiveCrops:         getEnvAsBool("ARCHIVE_CROPS", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 24*time.Hour),
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.DetectorBackend {
	case BackendOpenCV, BackendPico:
	default:
		return fmt.Errorf("unknown detector backend %q", c.DetectorBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.FaceScaleFactor <= 1 || c.EyeScaleFactor <= 1 {
		return fmt.Errorf("scale factors must be greater than 1 (face %.2f, eye %.2f)", c.FaceScaleFactor, c.EyeScaleFactor)
	}
	if c.FaceMinNeighbors < 0 || c.EyeMinNeighbors < 0 {
		return fmt.Errorf("min neighbors must not be negative")
	}
	if c.MinEyes < 0 {
		return fmt.Errorf("min eyes must not be negative, got %d", c.MinEyes)
	}
	if c.FeatureWidth <= 0 || c.FeatureHeight <= 0 {
		return fmt.Errorf("feature size must be positive, got %dx%d", c.FeatureWidth, c.FeatureHeight)
	}
	if c.WaveletLevel < 1 {
		return fmt.Errorf("wavelet level must be at least 1, got %d", c.WaveletLevel)
	}
	if c.HistoryEnabled && c.HistoryBufferLimit <= 0 {
		return fmt.Errorf("history buffer limit must be positive, got %d", c.HistoryBufferLimit)
	}
	if c.HistoryEnabled && c.HistoryFlushInterval <= 0 {
		return fmt.Errorf("history flush interval must be positive")
	}
	return nil
}

// FaceCascadePath resolves the face cascade file against CascadeDir.
func (c *Config) FaceCascadePath() string {
	return resolve(c.CascadeDir, c.FaceCascade)
}

// EyeCascadePath resolves the eye cascade file against CascadeDir.
func (c *Config) EyeCascadePath() string {
	return resolve(c.CascadeDir, c.EyeCascade)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
