package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Runoi/itemstore/internal/model"
)

func newSQLiteTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "items.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() unexpected error: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	return s, path
}

func TestNewSQLiteStore_CreatesFileAndSchema(t *testing.T) {
	// Arrange & Act
	s, _ := newSQLiteTestStore(t)

	// Assert: schema is usable immediately
	if _, err := s.List(context.Background()); err != nil {
		t.Errorf("List() on fresh database unexpected error: %v", err)
	}
}

func TestNewSQLiteStore_SchemaInitIsIdempotent(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "items.db")

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() unexpected error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}

	// Act: opening the same file again re-runs the schema statement
	second, err := NewSQLiteStore(path)

	// Assert
	if err != nil {
		t.Fatalf("reopening store unexpected error: %v", err)
	}
	_ = second.Close()
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	// Arrange
	s, _ := newSQLiteTestStore(t)
	ctx := context.Background()

	// Act
	created, err := s.Create(ctx, &model.Item{
		Name:        "Laptop",
		Description: "A powerful computing device",
		Price:       1200.50,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	got, err := s.Get(ctx, created.ID)

	// Assert
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.ID != created.ID || got.Name != created.Name ||
		got.Description != created.Description || got.Price != created.Price {
		t.Errorf("Get() = %+v, want %+v", got, created)
	}
}

func TestSQLiteStore_Get_NotFound(t *testing.T) {
	// Arrange
	s, _ := newSQLiteTestStore(t)

	// Act
	_, err := s.Get(context.Background(), 9999)

	// Assert
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_List_OrderedByID(t *testing.T) {
	// Arrange
	s, _ := newSQLiteTestStore(t)
	ctx := context.Background()

	names := []string{"First", "Second", "Third"}
	for _, name := range names {
		if _, err := s.Create(ctx, &model.Item{Name: name, Price: 1}); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
	}

	// Act
	items, err := s.List(ctx)

	// Assert
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(items) != len(names) {
		t.Fatalf("List() returned %d items, want %d", len(items), len(names))
	}
	for i, item := range items {
		if item.Name != names[i] {
			t.Errorf("items[%d].Name = %s, want %s", i, item.Name, names[i])
		}
		if i > 0 && items[i-1].ID >= item.ID {
			t.Errorf("items not ordered by ascending ID: %d before %d", items[i-1].ID, item.ID)
		}
	}
}

func TestSQLiteStore_Update(t *testing.T) {
	// Arrange
	s, _ := newSQLiteTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, &model.Item{Name: "Original", Price: 10})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	// Act
	updated, err := s.Update(ctx, created.ID, &model.Item{Name: "Replaced", Price: 20})

	// Assert
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.Name != "Replaced" || updated.Price != 20 {
		t.Errorf("Update() = %+v, want name Replaced price 20", updated)
	}
}

func TestSQLiteStore_Update_MissDoesNotCreate(t *testing.T) {
	// Arrange
	s, _ := newSQLiteTestStore(t)
	ctx := context.Background()

	// Act
	_, err := s.Update(ctx, 42, &model.Item{Name: "Ghost", Price: 1})

	// Assert
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}

	items, listErr := s.List(ctx)
	if listErr != nil {
		t.Fatalf("List() unexpected error: %v", listErr)
	}
	if len(items) != 0 {
		t.Errorf("update miss created an item: %d items", len(items))
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	// Arrange
	s, _ := newSQLiteTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, &model.Item{Name: "Doomed", Price: 1})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	// Act: first delete succeeds, second reports not found
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if err := s.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	// Assert
	if _, err := s.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

// Items created before a close must be retrievable after reopening the
// same file, including after more IDs were handed out.
func TestSQLiteStore_PersistenceAcrossReopen(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "items.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() unexpected error: %v", err)
	}

	created, err := first.Create(ctx, &model.Item{
		Name:        "Survivor",
		Description: "outlives the process",
		Price:       3.50,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}

	// Act
	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening store unexpected error: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, created.ID)

	// Assert
	if err != nil {
		t.Fatalf("Get() after reopen unexpected error: %v", err)
	}
	if got.Name != created.Name || got.Price != created.Price {
		t.Errorf("Get() after reopen = %+v, want %+v", got, created)
	}

	next, err := second.Create(ctx, &model.Item{Name: "Later", Price: 1})
	if err != nil {
		t.Fatalf("Create() after reopen unexpected error: %v", err)
	}
	if next.ID <= created.ID {
		t.Errorf("ID after reopen = %d, want > %d", next.ID, created.ID)
	}
}

func TestSQLiteStore_InvalidID(t *testing.T) {
	// Arrange
	s, _ := newSQLiteTestStore(t)
	ctx := context.Background()

	// Act & Assert
	if _, err := s.Get(ctx, 0); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Get(0) error = %v, want ErrInvalidID", err)
	}
	if _, err := s.Update(ctx, -1, &model.Item{Name: "X", Price: 1}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Update(-1) error = %v, want ErrInvalidID", err)
	}
	if err := s.Delete(ctx, 0); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Delete(0) error = %v, want ErrInvalidID", err)
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	// Arrange
	s, _ := newSQLiteTestStore(t)

	// Act & Assert
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() unexpected error: %v", err)
	}
}
