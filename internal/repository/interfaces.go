package repository

import (
	"github.com/fearless-dhbw/img-classification/internal/model"
)

// ClassificationRepository defines the interface for classification history operations.
type ClassificationRepository interface {
	// Create operations
	Insert(c *model.Classification) (int64, error)
	InsertBatch(records []model.Classification) error

	// Read operations
	GetByID(id int64) (*model.Classification, error)
	GetAll(filter *model.ClassificationFilter) ([]model.Classification, error)
	GetTotalCount(filter *model.ClassificationFilter) (int, error)
	GetLabelCounts() ([]model.LabelCount, error)

	// Delete operations
	Delete(id int64) error
	DeleteAll() error
}
