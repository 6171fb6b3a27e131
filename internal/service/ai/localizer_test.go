package ai

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/model"
)

type fakeDetector struct {
	faces   []image.Rectangle
	eyes    map[image.Rectangle]int
	faceErr error
	eyeErr  error
	used    []image.Rectangle
}

func (f *fakeDetector) DetectFaces(*model.Gray) ([]image.Rectangle, error) {
	return f.faces, f.faceErr
}

func (f *fakeDetector) DetectEyes(_ *model.Gray, face image.Rectangle) ([]image.Rectangle, error) {
	f.used = append(f.used, face)
	if f.eyeErr != nil {
		return nil, f.eyeErr
	}
	eyes := make([]image.Rectangle, f.eyes[face])
	for i := range eyes {
		eyes[i] = image.Rect(face.Min.X+i, face.Min.Y, face.Min.X+i+1, face.Min.Y+1)
	}
	return eyes, nil
}

func testImage() *model.Image {
	img := model.NewImage(100, 120, 3)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	return img
}

func TestLocate_EyeGate(t *testing.T) {
	a := image.Rect(10, 10, 40, 40)
	b := image.Rect(50, 10, 80, 40)
	c := image.Rect(60, 50, 90, 90)
	det := &fakeDetector{
		faces: []image.Rectangle{a, b, c},
		eyes:  map[image.Rectangle]int{a: 2, b: 1, c: 3},
	}

	loc, err := NewLocalizer(det, det, 2, logger.NewNop()).Locate(testImage())
	require.NoError(t, err)

	require.Len(t, loc.Faces, 2)
	assert.Equal(t, a, loc.Faces[0].Region)
	assert.Equal(t, c, loc.Faces[1].Region)
	assert.Equal(t, 3, loc.Faces[1].Eyes)
	assert.Equal(t, 3, loc.Candidates)
	assert.Equal(t, 1, loc.Rejected())
}

func TestLocate_CropMatchesRegion(t *testing.T) {
	r := image.Rect(5, 7, 25, 37)
	det := &fakeDetector{faces: []image.Rectangle{r}, eyes: map[image.Rectangle]int{r: 2}}
	img := testImage()

	loc, err := NewLocalizer(det, det, DefaultMinEyes, logger.NewNop()).Locate(img)
	require.NoError(t, err)
	require.Len(t, loc.Faces, 1)

	crop := loc.Faces[0].Crop
	assert.Equal(t, 30, crop.Rows)
	assert.Equal(t, 20, crop.Cols)
	assert.Equal(t, img.Crop(r), crop)
}

func TestLocate_ClipsAndDropsEmptyRegions(t *testing.T) {
	outside := image.Rect(500, 500, 600, 600)
	partial := image.Rect(100, 80, 140, 120)
	clipped := image.Rect(100, 80, 120, 100)
	det := &fakeDetector{
		faces: []image.Rectangle{outside, partial},
		eyes:  map[image.Rectangle]int{clipped: 2},
	}

	loc, err := NewLocalizer(det, det, 2, logger.NewNop()).Locate(testImage())
	require.NoError(t, err)

	require.Len(t, loc.Faces, 1)
	assert.Equal(t, clipped, loc.Faces[0].Region)
	assert.Equal(t, []image.Rectangle{clipped}, det.used)
}

func TestLocate_NoFaces(t *testing.T) {
	loc, err := NewLocalizer(&fakeDetector{}, &fakeDetector{}, 2, logger.NewNop()).Locate(testImage())
	require.NoError(t, err)
	assert.Empty(t, loc.Faces)
	assert.Zero(t, loc.Candidates)
}

func TestLocate_Errors(t *testing.T) {
	boom := errors.New("boom")
	r := image.Rect(0, 0, 10, 10)

	_, err := NewLocalizer(&fakeDetector{faceErr: boom}, &fakeDetector{}, 2, logger.NewNop()).Locate(testImage())
	assert.ErrorIs(t, err, boom)

	det := &fakeDetector{faces: []image.Rectangle{r}, eyeErr: boom}
	_, err = NewLocalizer(det, det, 2, logger.NewNop()).Locate(testImage())
	assert.ErrorIs(t, err, boom)

	_, err = NewLocalizer(det, det, 2, logger.NewNop()).Locate(model.NewImage(0, 0, 3))
	assert.Error(t, err)
}
