package model

import "fmt"

// InterpolationLinear is bilinear resampling over the 2x2 source neighbourhood
// at half-pixel centers, the OpenCV INTER_LINEAR default.
const InterpolationLinear = "linear"

// FeatureLayout describes how a face crop is turned into a feature vector.
// The same layout is recorded in the classifier artifact at training time.
type FeatureLayout struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	ColorChannels   int    `json:"color_channels"`
	WaveletChannels int    `json:"wavelet_channels"`
	Wavelet         string `json:"wavelet"`
	Level           int    `json:"level"`
	// Interpolation names the resize filter. Empty means InterpolationLinear.
	Interpolation string `json:"interpolation,omitempty"`
}

// DefaultLayout is 32x32 BGR pixels followed by a 32x32 level-1 Haar detail image.
func DefaultLayout() FeatureLayout {
	return FeatureLayout{
		Width: 32, Height: 32,
		ColorChannels: 3, WaveletChannels: 1,
		Wavelet: "haar", Level: 1,
		Interpolation: InterpolationLinear,
	}
}

// Length is the number of values in a vector built with this layout.
func (l FeatureLayout) Length() int {
	return l.Width * l.Height * (l.ColorChannels + l.WaveletChannels)
}

// Resampling returns the interpolation with the empty default resolved.
func (l FeatureLayout) Resampling() string {
	if l.Interpolation == "" {
		return InterpolationLinear
	}
	return l.Interpolation
}

// Equal reports whether two layouts produce interchangeable vectors.
func (l FeatureLayout) Equal(o FeatureLayout) bool {
	l.Interpolation, o.Interpolation = l.Resampling(), o.Resampling()
	return l == o
}

func (l FeatureLayout) String() string {
	return fmt.Sprintf("%dx%d color=%d wavelet=%d %s/L%d %s", l.Width, l.Height, l.ColorChannels, l.WaveletChannels, l.Wavelet, l.Level, l.Resampling())
}
