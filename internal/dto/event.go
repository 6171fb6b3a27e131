package dto

import "time"

// ClassificationEvent is pushed to live-feed clients for every classified face.
type ClassificationEvent struct {
	RequestID   string    `json:"request_id"`
	Class       string    `json:"class"`
	Probability float64   `json:"probability"`
	Region      Region    `json:"region"`
	Cached      bool      `json:"cached"`
	Timestamp   time.Time `json:"timestamp"`
}
