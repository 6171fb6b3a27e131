package pico

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_MissingCascade(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "facefinder"), filepath.Join(dir, "puploc"), DefaultParams())

	assert.ErrorContains(t, err, "facefinder")
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Greater(t, p.ScaleFactor, 1.0)
	assert.Positive(t, p.Perturbs)
	assert.Less(t, p.MinSize, p.MaxSize)
}
