// Package ai finds faces with at least two visible eyes and crops them.
// The detectors themselves live in the opencv and pico sub-packages.
package ai

import (
	"fmt"
	"image"

	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/model"
)

// DefaultMinEyes is the eye count a face needs to be classified.
const DefaultMinEyes = 2

// FaceDetector returns candidate face regions in detector order.
type FaceDetector interface {
	DetectFaces(gray *model.Gray) ([]image.Rectangle, error)
}

// EyeDetector returns eye regions inside face, in full-image coordinates.
type EyeDetector interface {
	DetectEyes(gray *model.Gray, face image.Rectangle) ([]image.Rectangle, error)
}

// Detector is a face and eye detector backed by loaded cascade files.
type Detector interface {
	FaceDetector
	EyeDetector
	Close() error
}

// Localization is the outcome of one Locate call.
type Localization struct {
	Faces      []model.Face
	Candidates int
}

// Rejected is the number of candidate faces dropped by the eye gate.
func (l *Localization) Rejected() int {
	return l.Candidates - len(l.Faces)
}

// Localizer finds faces with at least the required number of eyes and crops them.
type Localizer struct {
	faces   FaceDetector
	eyes    EyeDetector
	minEyes int
	logger  *logger.Logger
}

// NewLocalizer builds a Localizer. A negative minEyes selects DefaultMinEyes.
func NewLocalizer(faces FaceDetector, eyes EyeDetector, minEyes int, logger *logger.Logger) *Localizer {
	if minEyes < 0 {
		minEyes = DefaultMinEyes
	}
	return &Localizer{faces: faces, eyes: eyes, minEyes: minEyes, logger: logger}
}

// Locate detects faces in img and keeps those with enough eyes. Crops are
// copies of the color image. No faces is not an error.
func (l *Localizer) Locate(img *model.Image) (*Localization, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot locate faces in an empty image")
	}

	gray := img.Gray()
	regions, err := l.faces.DetectFaces(gray)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	out := &Localization{}
	bounds := img.Bounds()
	for _, r := range regions {
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		out.Candidates++

		eyes, err := l.eyes.DetectEyes(gray, r)
		if err != nil {
			return nil, fmt.Errorf("eye detection failed for face at %v: %w", r, err)
		}
		if len(eyes) < l.minEyes {
			l.logger.Debug("Dropping face at %v: %d eyes, need %d", r, len(eyes), l.minEyes)
			continue
		}

		out.Faces = append(out.Faces, model.Face{
			Region: r,
			Crop:   img.Crop(r),
			Eyes:   len(eyes),
		})
	}

	return out, nil
}
