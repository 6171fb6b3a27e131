// Package features builds the fixed-length vector fed to the classifier.
package features

import (
	"fmt"

	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/service/wavelet"
)

// Assembler concatenates a resized color crop with its resized wavelet detail image.
type Assembler struct {
	layout  model.FeatureLayout
	wavelet wavelet.Config
}

// New validates the layout and returns an Assembler for it.
func New(layout model.FeatureLayout) (*Assembler, error) {
	if layout.Width <= 0 || layout.Height <= 0 {
		return nil, fmt.Errorf("invalid feature size %dx%d", layout.Width, layout.Height)
	}
	if layout.ColorChannels != 3 || layout.WaveletChannels != 1 {
		return nil, fmt.Errorf("unsupported channel layout color=%d wavelet=%d", layout.ColorChannels, layout.WaveletChannels)
	}
	if !wavelet.Supported(layout.Wavelet) {
		return nil, fmt.Errorf("unsupported wavelet %q", layout.Wavelet)
	}
	if layout.Level < 1 {
		return nil, fmt.Errorf("wavelet level must be at least 1, got %d", layout.Level)
	}
	if layout.Resampling() != model.InterpolationLinear {
		return nil, fmt.Errorf("unsupported interpolation %q", layout.Interpolation)
	}
	return &Assembler{
		layout:  layout,
		wavelet: wavelet.Config{Mode: layout.Wavelet, Level: layout.Level},
	}, nil
}

// Layout returns the layout vectors are built with.
func (a *Assembler) Layout() model.FeatureLayout {
	return a.layout
}

// Vector computes the wavelet detail image of crop and combines both.
func (a *Assembler) Vector(crop *model.Image) ([]float64, error) {
	detail, err := wavelet.W2D(crop, a.wavelet)
	if err != nil {
		return nil, fmt.Errorf("wavelet features: %w", err)
	}
	return a.Combine(crop, detail)
}

// Combine resizes both inputs to the layout size with bilinear resampling and
// flattens them row-major, color (interleaved B, G, R) first, then the detail image.
func (a *Assembler) Combine(crop *model.Image, detail *model.Gray) ([]float64, error) {
	if crop.Empty() {
		return nil, fmt.Errorf("empty face crop")
	}
	if crop.Channels != a.layout.ColorChannels {
		return nil, fmt.Errorf("face crop has %d channels, want %d", crop.Channels, a.layout.ColorChannels)
	}
	if detail == nil || detail.Rows == 0 || detail.Cols == 0 {
		return nil, fmt.Errorf("empty wavelet image")
	}

	w, h := a.layout.Width, a.layout.Height
	vec := make([]float64, 0, a.layout.Length())

	for _, v := range resizeLinear(crop.Pix, crop.Rows, crop.Cols, crop.Channels, h, w) {
		vec = append(vec, float64(v))
	}
	for _, v := range resizeLinear(detail.Pix, detail.Rows, detail.Cols, 1, h, w) {
		vec = append(vec, float64(v))
	}

	return vec, nil
}
