package classifier

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

// Context is the immutable model state shared by all requests.
type Context struct {
	Model       *Model
	Labels      *LabelDictionary
	Layout      model.FeatureLayout
	Fingerprint string
}

// NewContext loads both artifacts and checks them against the feature
// layout the extractor produces.
func NewContext(modelPath, labelsPath string, layout model.FeatureLayout) (*Context, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	labels, err := LoadLabels(labelsPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, &ArtifactLoadError{Path: modelPath, Err: err}
	}
	sum := md5.Sum(data)

	return Assemble(m, labels, layout, hex.EncodeToString(sum[:]))
}

// Assemble validates already-loaded artifacts against layout.
func Assemble(m *Model, labels *LabelDictionary, layout model.FeatureLayout, fingerprint string) (*Context, error) {
	if labels.Len() != m.Classes() {
		return nil, &DimensionMismatchError{Expected: m.Classes(), Got: labels.Len(), Context: "label dictionary size"}
	}
	if m.InputDim() != layout.Length() {
		return nil, &DimensionMismatchError{Expected: m.InputDim(), Got: layout.Length(), Context: "feature layout " + layout.String()}
	}
	if stored := m.Layout(); stored != (model.FeatureLayout{}) && !stored.Equal(layout) {
		return nil, fmt.Errorf("model was trained with layout %s, extractor uses %s", stored, layout)
	}
	return &Context{Model: m, Labels: labels, Layout: layout, Fingerprint: fingerprint}, nil
}
