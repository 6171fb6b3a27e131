// Package opencv detects faces and eyes with OpenCV Haar cascades.
package opencv

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/service/ai"
)

var _ ai.Detector = (*CascadeDetector)(nil)

// Params are the detectMultiScale tuning values.
type Params struct {
	FaceScaleFactor  float64
	FaceMinNeighbors int
	EyeScaleFactor   float64
	EyeMinNeighbors  int
	MinFaceSize      int
}

// DefaultParams matches the values the classifier was trained with.
func DefaultParams() Params {
	return Params{
		FaceScaleFactor:  1.3,
		FaceMinNeighbors: 5,
		EyeScaleFactor:   1.1,
		EyeMinNeighbors:  3,
	}
}

// Directories searched when a cascade file is not found at its configured path.
var systemCascadeDirs = []string{
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv4/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// CascadeDetector wraps the face and eye classifiers. CascadeClassifier is
// not safe for concurrent use, so detection is serialized.
type CascadeDetector struct {
	faceCascade gocv.CascadeClassifier
	eyeCascade  gocv.CascadeClassifier
	params      Params
	mutex       sync.Mutex
	logger      *logger.Logger
}

// NewCascadeDetector loads both cascade files once.
func NewCascadeDetector(facePath, eyePath string, params Params, logger *logger.Logger) (*CascadeDetector, error) {
	d := &CascadeDetector{
		faceCascade: gocv.NewCascadeClassifier(),
		eyeCascade:  gocv.NewCascadeClassifier(),
		params:      params,
		logger:      logger,
	}

	if err := d.load(&d.faceCascade, facePath); err != nil {
		d.Close()
		return nil, fmt.Errorf("face cascade: %w", err)
	}
	if err := d.load(&d.eyeCascade, eyePath); err != nil {
		d.Close()
		return nil, fmt.Errorf("eye cascade: %w", err)
	}

	d.logger.Info("Haar cascades loaded (face scale %.2f/%d, eye scale %.2f/%d)",
		params.FaceScaleFactor, params.FaceMinNeighbors, params.EyeScaleFactor, params.EyeMinNeighbors)
	return d, nil
}

// load tries the configured path, then the bare file name in the usual
// OpenCV install locations.
func (d *CascadeDetector) load(c *gocv.CascadeClassifier, path string) error {
	candidates := []string{path}
	for _, dir := range systemCascadeDirs {
		candidates = append(candidates, filepath.Join(dir, filepath.Base(path)))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if c.Load(candidate) {
			if candidate != path {
				d.logger.Warning("Cascade %s not found, using %s", path, candidate)
			}
			return nil
		}
	}
	return fmt.Errorf("failed to load cascade classifier from %s or alternative paths", path)
}

// DetectFaces runs the face cascade over the whole image.
func (d *CascadeDetector) DetectFaces(gray *model.Gray) ([]image.Rectangle, error) {
	mat, err := toMat(gray)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	minSize := image.Pt(d.params.MinFaceSize, d.params.MinFaceSize)

	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.faceCascade.DetectMultiScaleWithParams(mat, d.params.FaceScaleFactor, d.params.FaceMinNeighbors, 0, minSize, image.Point{}), nil
}

// DetectEyes runs the eye cascade on the face region only and returns the
// eyes translated back to image coordinates.
func (d *CascadeDetector) DetectEyes(gray *model.Gray, face image.Rectangle) ([]image.Rectangle, error) {
	mat, err := toMat(gray)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	face = face.Intersect(gray.Bounds())
	if face.Empty() {
		return nil, nil
	}
	roi := mat.Region(face)
	defer roi.Close()

	d.mutex.Lock()
	eyes := d.eyeCascade.DetectMultiScaleWithParams(roi, d.params.EyeScaleFactor, d.params.EyeMinNeighbors, 0, image.Point{}, image.Point{})
	d.mutex.Unlock()

	for i := range eyes {
		eyes[i] = eyes[i].Add(face.Min)
	}
	return eyes, nil
}

// Close releases both classifiers.
func (d *CascadeDetector) Close() error {
	var firstErr error
	if err := d.faceCascade.Close(); err != nil {
		firstErr = err
	}
	if err := d.eyeCascade.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func toMat(gray *model.Gray) (gocv.Mat, error) {
	mat, err := gocv.NewMatFromBytes(gray.Rows, gray.Cols, gocv.MatTypeCV8U, gray.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to build grayscale mat: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("grayscale mat is empty")
	}
	return mat, nil
}
