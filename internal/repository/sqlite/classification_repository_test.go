package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase_Connection(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestClassificationRepository_InsertAndGet(t *testing.T) {
	repo := NewClassificationRepository(newTestDB(t))

	created := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	id, err := repo.Insert(&model.Classification{
		RequestID:   "req-1",
		Label:       "lionel_messi",
		Probability: 0.91,
		X:           10, Y: 20, Width: 64, Height: 64,
		CropPath:  "req-1_0.jpg",
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a record")
	}
	if got.Label != "lionel_messi" || got.RequestID != "req-1" || got.Width != 64 {
		t.Errorf("Unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt mismatch: expected %v, got %v", created, got.CreatedAt)
	}

	missing, err := repo.GetByID(id + 100)
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing record, got %v, %v", missing, err)
	}
}

func TestClassificationRepository_FiltersAndPagination(t *testing.T) {
	repo := NewClassificationRepository(newTestDB(t))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var records []model.Classification
	for i := 0; i < 6; i++ {
		label := "maria_sharapova"
		if i%2 == 0 {
			label = "roger_federer"
		}
		records = append(records, model.Classification{
			RequestID: fmt.Sprintf("req-%d", i),
			Label:     label,
			CreatedAt: base.AddDate(0, 0, i),
		})
	}
	if err := repo.InsertBatch(records); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	count, err := repo.GetTotalCount(&model.ClassificationFilter{Label: "roger_federer"})
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 roger_federer records, got %d", count)
	}

	page, err := repo.GetAll(&model.ClassificationFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 records on page, got %d", len(page))
	}
	// Newest first: offset 2 skips req-5 and req-4.
	if page[0].RequestID != "req-3" {
		t.Errorf("Expected req-3 first on page, got %s", page[0].RequestID)
	}

	ranged, err := repo.GetAll(&model.ClassificationFilter{
		StartDate: base.AddDate(0, 0, 1),
		EndDate:   base.AddDate(0, 0, 3),
	})
	if err != nil {
		t.Fatalf("GetAll with dates failed: %v", err)
	}
	if len(ranged) != 3 {
		t.Errorf("Expected 3 records in date range, got %d", len(ranged))
	}

	counts, err := repo.GetLabelCounts()
	if err != nil {
		t.Fatalf("GetLabelCounts failed: %v", err)
	}
	if len(counts) != 2 || counts[0].Count != 3 || counts[1].Count != 3 {
		t.Errorf("Unexpected label counts: %+v", counts)
	}
	if counts[0].Label != "maria_sharapova" {
		t.Errorf("Expected ties ordered by label, got %s first", counts[0].Label)
	}
}

func TestClassificationRepository_Delete(t *testing.T) {
	repo := NewClassificationRepository(newTestDB(t))

	id, err := repo.Insert(&model.Classification{RequestID: "a", Label: "x", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := repo.Insert(&model.Classification{RequestID: "b", Label: "y", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := repo.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if count, _ := repo.GetTotalCount(nil); count != 1 {
		t.Errorf("Expected 1 record after delete, got %d", count)
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if count, _ := repo.GetTotalCount(nil); count != 0 {
		t.Errorf("Expected 0 records after DeleteAll, got %d", count)
	}
}

func TestClassificationRepository_ConcurrentInserts(t *testing.T) {
	repo := NewClassificationRepository(newTestDB(t))

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			_, err := repo.Insert(&model.Classification{RequestID: fmt.Sprintf("c-%d", idx), Label: "z"})
			if err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	count, _ := repo.GetTotalCount(&model.ClassificationFilter{})
	if count != 10 {
		t.Errorf("Expected 10 records, got %d", count)
	}
}

func TestDatabase_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		db, err := New(dbPath)
		if err != nil {
			t.Fatalf("Open %d failed: %v", i+1, err)
		}
		version, err := db.SchemaVersion()
		if err != nil {
			t.Fatalf("Failed to read schema version: %v", err)
		}
		if version != len(migrations) {
			t.Errorf("Expected schema version %d, got %d", len(migrations), version)
		}
		db.Close()
	}
}
