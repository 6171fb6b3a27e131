// Package classifier loads the exported linear model and label dictionary
// and scores feature vectors.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

// Multi-class strategies the exporter can emit.
const (
	Multinomial = "multinomial"
	OneVsRest   = "ovr"
)

// Scaler is a fitted standardization step applied before the linear model.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Artifact is the on-disk form of a trained model.
type Artifact struct {
	Version    string              `json:"version"`
	MultiClass string              `json:"multi_class"`
	InputDim   int                 `json:"input_dim"`
	Classes    int                 `json:"classes"`
	Layout     model.FeatureLayout `json:"layout"`
	Scaler     *Scaler             `json:"scaler,omitempty"`
	Coef       [][]float64         `json:"coef"`
	Intercept  []float64           `json:"intercept"`
}

// Model is an immutable, validated linear classifier.
type Model struct {
	artifact Artifact
}

// LoadModel reads and validates a model artifact.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: fmt.Errorf("invalid model artifact: %w", err)}
	}
	m, err := NewModel(a)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return m, nil
}

// NewModel validates an artifact built in memory.
func NewModel(a Artifact) (*Model, error) {
	if a.InputDim <= 0 {
		return nil, fmt.Errorf("input_dim must be positive, got %d", a.InputDim)
	}
	if a.Classes < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", a.Classes)
	}
	switch a.MultiClass {
	case "":
		a.MultiClass = Multinomial
	case Multinomial, OneVsRest:
	default:
		return nil, fmt.Errorf("unknown multi_class %q", a.MultiClass)
	}

	rows := a.Classes
	if a.Classes == 2 && len(a.Coef) == 1 {
		rows = 1
	}
	if len(a.Coef) != rows {
		return nil, fmt.Errorf("coef has %d rows, want %d", len(a.Coef), rows)
	}
	if len(a.Intercept) != rows {
		return nil, fmt.Errorf("intercept has %d values, want %d", len(a.Intercept), rows)
	}
	for i, row := range a.Coef {
		if len(row) != a.InputDim {
			return nil, &DimensionMismatchError{Expected: a.InputDim, Got: len(row), Context: fmt.Sprintf("coef row %d", i)}
		}
	}
	if a.Scaler != nil {
		if len(a.Scaler.Mean) != a.InputDim || len(a.Scaler.Scale) != a.InputDim {
			return nil, &DimensionMismatchError{Expected: a.InputDim, Got: len(a.Scaler.Mean), Context: "scaler"}
		}
	}
	if a.Layout != (model.FeatureLayout{}) && a.Layout.Length() != a.InputDim {
		return nil, &DimensionMismatchError{Expected: a.InputDim, Got: a.Layout.Length(), Context: "layout " + a.Layout.String()}
	}

	return &Model{artifact: a}, nil
}

// InputDim is the expected feature vector length.
func (m *Model) InputDim() int {
	return m.artifact.InputDim
}

// Classes is the number of output classes.
func (m *Model) Classes() int {
	return m.artifact.Classes
}

// Layout is the feature layout recorded at training time; zero if absent.
func (m *Model) Layout() model.FeatureLayout {
	return m.artifact.Layout
}

// Version is the exporter's version string.
func (m *Model) Version() string {
	return m.artifact.Version
}

// Predict returns the most probable class and the per-class probabilities
// ordered by class index.
func (m *Model) Predict(vec []float64) (int, []float64, error) {
	a := &m.artifact
	if len(vec) != a.InputDim {
		return -1, nil, &DimensionMismatchError{Expected: a.InputDim, Got: len(vec), Context: "feature vector"}
	}

	x := vec
	if a.Scaler != nil {
		x = make([]float64, len(vec))
		for i, v := range vec {
			s := a.Scaler.Scale[i]
			if s == 0 {
				s = 1
			}
			x[i] = (v - a.Scaler.Mean[i]) / s
		}
	}

	scores := make([]float64, len(a.Coef))
	for k, row := range a.Coef {
		z := a.Intercept[k]
		for i, w := range row {
			z += w * x[i]
		}
		scores[k] = z
	}

	var probs []float64
	switch {
	case len(scores) == 1:
		p := sigmoid(scores[0])
		probs = []float64{1 - p, p}
	case a.MultiClass == OneVsRest:
		probs = normalizedSigmoid(scores)
	default:
		probs = softmax(scores)
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best, probs, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(z []float64) []float64 {
	hi := z[0]
	for _, v := range z[1:] {
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func normalizedSigmoid(z []float64) []float64 {
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = sigmoid(v)
		sum += out[i]
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
