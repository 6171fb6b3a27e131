package storage

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

const cropTimeLayout = "2006-01-02_15-04-05.000"

var cropNamePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.\d{3})_(.+?)_(\d+)_(.+)\.jpg$`)

// CropInfo is what an archived crop's file name records.
type CropInfo struct {
	Timestamp time.Time
	RequestID string
	Index     int
	Label     string
}

// ParseCropFileName extracts the fields encoded by the buffer's crop naming scheme.
func ParseCropFileName(name string) (CropInfo, error) {
	m := cropNamePattern.FindStringSubmatch(name)
	if m == nil {
		return CropInfo{}, fmt.Errorf("unrecognized crop file name %q", name)
	}
	ts, err := time.ParseInLocation(cropTimeLayout, m[1], time.Local)
	if err != nil {
		return CropInfo{}, fmt.Errorf("bad timestamp in %q: %w", name, err)
	}
	idx, err := strconv.Atoi(m[3])
	if err != nil {
		return CropInfo{}, fmt.Errorf("bad face index in %q: %w", name, err)
	}
	return CropInfo{Timestamp: ts, RequestID: m[2], Index: idx, Label: m[4]}, nil
}

// ScanArchive rebuilds history records from the crops in dir. Files whose
// names do not parse, or that are not readable JPEGs, are counted as
// skipped. Face position and probability are not recoverable from a crop
// and are left zero.
func ScanArchive(dir string) ([]model.Classification, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var records []model.Classification
	skipped := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jpg") {
			continue
		}
		info, err := ParseCropFileName(e.Name())
		if err != nil {
			skipped++
			continue
		}
		width, height, err := cropSize(filepath.Join(dir, e.Name()))
		if err != nil {
			skipped++
			continue
		}
		records = append(records, model.Classification{
			RequestID: info.RequestID,
			Label:     info.Label,
			Width:     width,
			Height:    height,
			CropPath:  e.Name(),
			CreatedAt: info.Timestamp,
		})
	}
	return records, skipped, nil
}

func cropSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
