// Package pico is a pure Go face and pupil detector built on pigo. It needs
// no OpenCV installation but its pupil localization perturbs the search
// window randomly, so eye counts may vary slightly between runs.
package pico

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/service/ai"
)

var _ ai.Detector = (*Detector)(nil)

// Params tune the face cascade and pupil search.
type Params struct {
	MinSize          int
	MaxSize          int
	ShiftFactor      float64
	ScaleFactor      float64
	IoUThreshold     float64
	QualityThreshold float32
	Perturbs         int
}

// DefaultParams are the values pigo's own examples use.
func DefaultParams() Params {
	return Params{
		MinSize:          30,
		MaxSize:          1000,
		ShiftFactor:      0.1,
		ScaleFactor:      1.1,
		IoUThreshold:     0.2,
		QualityThreshold: 5.0,
		Perturbs:         63,
	}
}

// Detector finds faces and pupils with pigo cascades.
type Detector struct {
	faces  *pigo.Pigo
	pupils *pigo.PuplocCascade
	params Params
}

// New reads and unpacks the facefinder and puploc cascade files.
func New(facePath, pupilPath string, params Params) (*Detector, error) {
	faceData, err := os.ReadFile(facePath)
	if err != nil {
		return nil, fmt.Errorf("error reading the facefinder cascade file: %w", err)
	}
	faces, err := pigo.NewPigo().Unpack(faceData)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the facefinder cascade file: %w", err)
	}

	pupilData, err := os.ReadFile(pupilPath)
	if err != nil {
		return nil, fmt.Errorf("error reading the puploc cascade file: %w", err)
	}
	pupils, err := pigo.NewPuplocCascade().UnpackCascade(pupilData)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the puploc cascade file: %w", err)
	}

	return &Detector{faces: faces, pupils: pupils, params: params}, nil
}

func imageParams(gray *model.Gray) pigo.ImageParams {
	return pigo.ImageParams{
		Pixels: gray.Pix,
		Rows:   gray.Rows,
		Cols:   gray.Cols,
		Dim:    gray.Cols,
	}
}

// DetectFaces returns clustered detections above the quality threshold as
// squares centered on each detection.
func (d *Detector) DetectFaces(gray *model.Gray) ([]image.Rectangle, error) {
	maxSize := d.params.MaxSize
	if side := min(gray.Rows, gray.Cols); maxSize <= 0 || maxSize > side {
		maxSize = side
	}
	cp := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: imageParams(gray),
	}

	dets := d.faces.RunCascade(cp, 0.0)
	dets = d.faces.ClusterDetections(dets, d.params.IoUThreshold)

	var faces []image.Rectangle
	for _, det := range dets {
		if det.Q < d.params.QualityThreshold {
			continue
		}
		half := det.Scale / 2
		faces = append(faces, image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half))
	}
	return faces, nil
}

// DetectEyes localizes the left and right pupils inside face. Each pupil
// found is reported as a square eye region.
func (d *Detector) DetectEyes(gray *model.Gray, face image.Rectangle) ([]image.Rectangle, error) {
	scale := float32(face.Dx())
	row := face.Min.Y + face.Dy()/2
	col := face.Min.X + face.Dx()/2
	img := imageParams(gray)

	var eyes []image.Rectangle
	for _, side := range []int{-1, 1} {
		guess := pigo.Puploc{
			Row:      row - int(0.085*scale),
			Col:      col + side*int(0.185*scale),
			Scale:    scale * 0.4,
			Perturbs: d.params.Perturbs,
		}
		pupil := d.pupils.RunDetector(guess, img, 0.0, false)
		if pupil == nil || pupil.Row <= 0 || pupil.Col <= 0 {
			continue
		}
		p := image.Pt(pupil.Col, pupil.Row)
		if !p.In(face) {
			continue
		}
		r := int(pupil.Scale / 2)
		if r < 1 {
			r = 1
		}
		eyes = append(eyes, image.Rect(p.X-r, p.Y-r, p.X+r, p.Y+r).Intersect(face))
	}
	return eyes, nil
}

// Close is a no-op; pigo cascades hold no native resources.
func (d *Detector) Close() error {
	return nil
}
