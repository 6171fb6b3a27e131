package wavelet

import (
	"fmt"
	"math"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

// Config selects the wavelet and decomposition depth.
type Config struct {
	Mode  string
	Level int
}

// DefaultConfig is a single-level Haar transform.
func DefaultConfig() Config {
	return Config{Mode: "haar", Level: 1}
}

// W2D returns the high-frequency detail image of img. The input is
// converted with GrayChannelOrder and normalized to [0,1]. It is then
// decomposed and stripped of its approximation band before being
// reconstructed and mapped back to 8 bits.
func W2D(img *model.Image, cfg Config) (*model.Gray, error) {
	if img.Empty() {
		return nil, fmt.Errorf("wavelet input is empty")
	}

	gray := img.GrayChannelOrder()
	p := NewPlane(gray.Rows, gray.Cols)
	for i, v := range gray.Pix {
		p.Data[i] = float32(v) / 255
	}

	coeffs, err := Decompose(p, cfg.Mode, cfg.Level)
	if err != nil {
		return nil, err
	}
	coeffs.Approx.Zero()

	rec, err := Reconstruct(coeffs)
	if err != nil {
		return nil, err
	}

	out := model.NewGray(gray.Rows, gray.Cols)
	for i, v := range rec.Data {
		out.Pix[i] = toUint8(v * 255)
	}
	return out, nil
}

// toUint8 clips to [0,255] and truncates toward zero.
func toUint8(v float32) uint8 {
	if v <= 0 || math.IsNaN(float64(v)) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
