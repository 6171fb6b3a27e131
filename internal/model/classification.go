package model

import "time"

// Classification is a stored history record for one classified face.
type Classification struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"request_id"`
	Label       string    `json:"label"`
	Probability float64   `json:"probability"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CropPath    string    `json:"crop_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassificationFilter narrows history queries.
type ClassificationFilter struct {
	Label     string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// LabelCount is the number of stored classifications for one label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
