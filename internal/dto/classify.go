package dto

import (
	"image"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

// ClassifyRequest is the body of POST /classify_image. ImageData is a
// pointer so a missing field can be told apart from an empty one.
type ClassifyRequest struct {
	ImageData *string `json:"image_data"`
}

// Region is a face bounding box in pixel coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func NewRegion(r image.Rectangle) Region {
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ClassificationResponse is one element of the classify response array.
type ClassificationResponse struct {
	Class            string         `json:"class"`
	ClassProbability []float64      `json:"class_probability"`
	ClassDictionary  map[string]int `json:"class_dictionary"`
	Region           Region         `json:"region"`
}

// NewClassificationResponses converts results, always returning a non-nil slice.
func NewClassificationResponses(results []model.Result, dictionary map[string]int) []ClassificationResponse {
	out := make([]ClassificationResponse, 0, len(results))
	for _, r := range results {
		out = append(out, ClassificationResponse{
			Class:            r.Label,
			ClassProbability: r.Probabilities,
			ClassDictionary:  dictionary,
			Region:           NewRegion(r.Region),
		})
	}
	return out
}

type ErrorResponse struct {
	Error string `json:"error"`
}
