package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/repository"
)

var _ repository.ClassificationRepository = (*ClassificationRepository)(nil)

const classificationColumns = `id, request_id, label, probability, x, y, width, height, crop_path, created_at`

// ClassificationRepository implements repository.ClassificationRepository for SQLite.
type ClassificationRepository struct {
	db *DB
}

// NewClassificationRepository creates a new SQLite classification repository.
func NewClassificationRepository(db *DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

// Insert adds a new classification record to the database.
func (r *ClassificationRepository) Insert(c *model.Classification) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO classifications (request_id, label, probability, x, y, width, height, crop_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.RequestID, c.Label, c.Probability, c.X, c.Y, c.Width, c.Height, c.CropPath, normalizeTime(c.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert classification: %w", err)
	}

	return result.LastInsertId()
}

// InsertBatch adds multiple classifications in a single transaction.
func (r *ClassificationRepository) InsertBatch(records []model.Classification) error {
	if len(records) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO classifications (request_id, label, probability, x, y, width, height, crop_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range records {
		if _, err := stmt.Exec(c.RequestID, c.Label, c.Probability, c.X, c.Y, c.Width, c.Height, c.CropPath, normalizeTime(c.CreatedAt)); err != nil {
			return fmt.Errorf("failed to insert classification: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a classification by its ID. A missing record returns nil, nil.
func (r *ClassificationRepository) GetByID(id int64) (*model.Classification, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	c, err := scanClassification(r.db.Conn().QueryRow(`SELECT `+classificationColumns+` FROM classifications WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classification: %w", err)
	}
	return c, nil
}

// GetAll retrieves classifications based on filter criteria, newest first.
func (r *ClassificationRepository) GetAll(filter *model.ClassificationFilter) ([]model.Classification, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `SELECT ` + classificationColumns + ` FROM classifications` + where + ` ORDER BY created_at DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer rows.Close()

	var records []model.Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		records = append(records, *c)
	}

	return records, rows.Err()
}

// GetTotalCount returns the total count of classifications matching the filter.
func (r *ClassificationRepository) GetTotalCount(filter *model.ClassificationFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM classifications`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count classifications: %w", err)
	}

	return count, nil
}

// GetLabelCounts returns the number of stored classifications per label.
func (r *ClassificationRepository) GetLabelCounts() ([]model.LabelCount, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT label, COUNT(*) FROM classifications
		GROUP BY label ORDER BY COUNT(*) DESC, label
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query label counts: %w", err)
	}
	defer rows.Close()

	var counts []model.LabelCount
	for rows.Next() {
		var lc model.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts = append(counts, lc)
	}

	return counts, rows.Err()
}

// Delete removes a single classification.
func (r *ClassificationRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM classifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete classification: %w", err)
	}
	return nil
}

// DeleteAll removes every classification record.
func (r *ClassificationRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM classifications`); err != nil {
		return fmt.Errorf("failed to delete classifications: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClassification(row rowScanner) (*model.Classification, error) {
	var c model.Classification
	if err := row.Scan(&c.ID, &c.RequestID, &c.Label, &c.Probability, &c.X, &c.Y, &c.Width, &c.Height, &c.CropPath, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func buildWhere(filter *model.ClassificationFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return where, args
	}

	if filter.Label != "" {
		where += " AND label = ?"
		args = append(args, filter.Label)
	}

	if !filter.StartDate.IsZero() {
		where += " AND DATE(created_at) >= DATE(?)"
		args = append(args, normalizeTime(filter.StartDate))
	}

	if !filter.EndDate.IsZero() {
		where += " AND DATE(created_at) <= DATE(?)"
		args = append(args, normalizeTime(filter.EndDate))
	}

	return where, args
}

// normalizeTime stores timestamps in UTC at second precision so SQLite's
// date functions parse them.
func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Truncate(time.Second)
}
