package dto

import (
	"encoding/json"
	"time"
)

// HistoryFilters describe user-provided filters to narrow the history list.
type HistoryFilters struct {
	Label      string
	DateAfter  time.Time
	DateBefore time.Time
}

// HistoryItem is one stored classification as shown in the history view.
type HistoryItem struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"requestId"`
	Class       string    `json:"class"`
	Probability float64   `json:"probability"`
	Region      Region    `json:"region"`
	Crop        string    `json:"crop,omitempty"`
	Date        time.Time `json:"date"`
	TimeOfDay   time.Time `json:"timeOfDay"`
}

// MarshalJSON customizes JSON output for HistoryItem to format date and time-of-day.
func (h HistoryItem) MarshalJSON() ([]byte, error) {
	type Alias HistoryItem
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      h.Date.Format("02-01-2006"),
		TimeOfDay: h.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(h),
	})
}

// HistoryPage is a paginated response payload for the classification history.
type HistoryPage struct {
	Items       []HistoryItem `json:"items"`
	Length      int           `json:"length"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Limit       int           `json:"pageSize"`
}

// StatsResponse summarizes stored classifications.
type StatsResponse struct {
	Total       int            `json:"total"`
	PerLabel    map[string]int `json:"perLabel"`
	LiveClients int            `json:"liveClients"`
	Model       string         `json:"model"`
}
