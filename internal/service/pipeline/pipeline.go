// Package pipeline runs decode, localization, feature extraction and
// classification for one request.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/metrics"
	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/service/ai"
	"github.com/fearless-dhbw/img-classification/internal/service/classifier"
	"github.com/fearless-dhbw/img-classification/internal/service/decoder"
	"github.com/fearless-dhbw/img-classification/internal/service/features"
)

// ErrNotReady is returned when no model context has been loaded.
var ErrNotReady = errors.New("classifier is not ready")

// Locator finds gated faces in an image.
type Locator interface {
	Locate(img *model.Image) (*ai.Localization, error)
}

// FaceFeatures is the feature vector extracted for one accepted face.
type FaceFeatures struct {
	Face   model.Face
	Vector []float64
}

// Pipeline turns an image into per-face feature vectors and classifies them.
type Pipeline struct {
	model     *classifier.Context
	locator   Locator
	assembler *features.Assembler
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// New wires a pipeline. The assembler layout must match the model context.
func New(mc *classifier.Context, locator Locator, assembler *features.Assembler, m *metrics.Metrics, logger *logger.Logger) (*Pipeline, error) {
	if locator == nil || assembler == nil {
		return nil, fmt.Errorf("pipeline needs a locator and an assembler")
	}
	if mc != nil && !mc.Layout.Equal(assembler.Layout()) {
		return nil, &classifier.DimensionMismatchError{
			Expected: mc.Layout.Length(),
			Got:      assembler.Layout().Length(),
			Context:  "assembler layout " + assembler.Layout().String(),
		}
	}
	return &Pipeline{model: mc, locator: locator, assembler: assembler, metrics: m, logger: logger}, nil
}

// Ready reports whether a model context is loaded.
func (p *Pipeline) Ready() bool {
	return p.model != nil
}

// Fingerprint identifies the loaded model artifact.
func (p *Pipeline) Fingerprint() string {
	if p.model == nil {
		return ""
	}
	return p.model.Fingerprint
}

// Dictionary returns the label to class index mapping.
func (p *Pipeline) Dictionary() (map[string]int, error) {
	if p.model == nil {
		return nil, ErrNotReady
	}
	return p.model.Labels.Map(), nil
}

// Classify decodes a base64 payload and classifies every accepted face.
func (p *Pipeline) Classify(ctx context.Context, imageData string) ([]model.Result, error) {
	if p.model == nil {
		return nil, ErrNotReady
	}
	img, err := decoder.Decode(imageData)
	if err != nil {
		return nil, err
	}
	return p.ClassifyImage(ctx, img)
}

// ClassifyImage classifies every accepted face in detector order. Any
// failure after localization fails the whole image.
func (p *Pipeline) ClassifyImage(ctx context.Context, img *model.Image) ([]model.Result, error) {
	if p.model == nil {
		return nil, ErrNotReady
	}

	extracted, err := p.Extract(ctx, img)
	if err != nil {
		return nil, err
	}

	results := make([]model.Result, 0, len(extracted))
	for i, f := range extracted {
		idx, probs, err := p.model.Model.Predict(f.Vector)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		label, ok := p.model.Labels.Name(idx)
		if !ok {
			return nil, fmt.Errorf("face %d: class index %d has no label", i, idx)
		}
		p.metrics.ObservePrediction(label)
		results = append(results, model.Result{
			Label:         label,
			Index:         idx,
			Probabilities: probs,
			Region:        f.Face.Region,
			Crop:          f.Face.Crop,
		})
	}
	return results, nil
}

// Extract localizes faces and builds one feature vector per accepted face.
// It does not need a model context.
func (p *Pipeline) Extract(ctx context.Context, img *model.Image) ([]FaceFeatures, error) {
	loc, err := p.locator.Locate(img)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveLocalization(loc.Candidates, len(loc.Faces))
	if loc.Rejected() > 0 {
		p.logger.Debug("Eye gate rejected %d of %d faces", loc.Rejected(), loc.Candidates)
	}

	out := make([]FaceFeatures, 0, len(loc.Faces))
	for i, face := range loc.Faces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := p.assembler.Vector(face.Crop)
		if err != nil {
			return nil, fmt.Errorf("face %d at %v: %w", i, face.Region, err)
		}
		out = append(out, FaceFeatures{Face: face, Vector: vec})
	}
	return out, nil
}
