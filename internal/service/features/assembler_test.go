package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

func gradientCrop(rows, cols int) *model.Image {
	img := model.NewImage(rows, cols, 3)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			o := (y*cols + x) * 3
			img.Pix[o] = uint8(x * 3)
			img.Pix[o+1] = uint8(y * 2)
			img.Pix[o+2] = uint8((x + y) % 256)
		}
	}
	return img
}

func TestVector_FixedLength(t *testing.T) {
	a, err := New(model.DefaultLayout())
	require.NoError(t, err)

	for _, size := range [][2]int{{80, 64}, {31, 33}, {32, 32}, {12, 200}} {
		vec, err := a.Vector(gradientCrop(size[0], size[1]))
		require.NoError(t, err)
		assert.Len(t, vec, 4096)
		assert.Len(t, vec, a.Layout().Length())
	}
}

func TestVector_Deterministic(t *testing.T) {
	a, err := New(model.DefaultLayout())
	require.NoError(t, err)
	crop := gradientCrop(70, 55)

	v1, err := a.Vector(crop)
	require.NoError(t, err)
	v2, err := a.Vector(crop)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestCombine_OrderColorThenWavelet(t *testing.T) {
	layout := model.FeatureLayout{Width: 2, Height: 1, ColorChannels: 3, WaveletChannels: 1, Wavelet: "haar", Level: 1}
	a, err := New(layout)
	require.NoError(t, err)

	crop := &model.Image{Rows: 1, Cols: 2, Channels: 3, Pix: []uint8{1, 2, 3, 4, 5, 6}}
	detail := &model.Gray{Rows: 1, Cols: 2, Pix: []uint8{9, 8}}

	vec, err := a.Combine(crop, detail)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 9, 8}, vec)
}

func TestCombine_Errors(t *testing.T) {
	a, err := New(model.DefaultLayout())
	require.NoError(t, err)

	_, err = a.Combine(model.NewImage(0, 0, 3), model.NewGray(4, 4))
	assert.Error(t, err)

	_, err = a.Combine(model.NewImage(4, 4, 1), model.NewGray(4, 4))
	assert.Error(t, err)

	_, err = a.Combine(model.NewImage(4, 4, 3), nil)
	assert.Error(t, err)
}

func TestNew_RejectsBadLayout(t *testing.T) {
	bad := model.DefaultLayout()
	bad.Wavelet = "sym5"
	_, err := New(bad)
	assert.Error(t, err)

	bad = model.DefaultLayout()
	bad.Width = 0
	_, err = New(bad)
	assert.Error(t, err)

	bad = model.DefaultLayout()
	bad.Interpolation = "lanczos"
	_, err = New(bad)
	assert.Error(t, err)

	legacy := model.DefaultLayout()
	legacy.Interpolation = ""
	_, err = New(legacy)
	assert.NoError(t, err)
}

func TestCombine_DownscaleSamplesTwoByTwo(t *testing.T) {
	layout := model.FeatureLayout{Width: 2, Height: 1, ColorChannels: 3, WaveletChannels: 1, Wavelet: "haar", Level: 1}
	a, err := New(layout)
	require.NoError(t, err)

	crop := model.NewImage(1, 8, 3)
	detail := &model.Gray{Rows: 1, Cols: 8, Pix: []uint8{100, 10, 30, 0, 0, 50, 70, 100}}

	vec, err := a.Combine(crop, detail)
	require.NoError(t, err)
	// The outer 100s lie outside both 2x2 neighbourhoods and do not leak in.
	assert.Equal(t, []float64{20, 60}, vec[6:])
}
