package model

import "image"

// Face is a detected face that passed the eye gate.
type Face struct {
	Region image.Rectangle
	Crop   *Image
	Eyes   int
}

// Result is the classification of one accepted face.
type Result struct {
	Label         string          `json:"label"`
	Index         int             `json:"index"`
	Probabilities []float64       `json:"probabilities"`
	Region        image.Rectangle `json:"region"`
	Crop          *Image          `json:"-"`
}

// Probability returns the probability of the predicted class.
func (r Result) Probability() float64 {
	if r.Index < 0 || r.Index >= len(r.Probabilities) {
		return 0
	}
	return r.Probabilities[r.Index]
}
