package dto

import (
	"time"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

// BufferedClassification holds one classified face before it is flushed to the history store.
type BufferedClassification struct {
	RequestID string
	Index     int
	Timestamp time.Time
	Result    model.Result
}
