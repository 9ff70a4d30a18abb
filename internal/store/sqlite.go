package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Runoi/itemstore/internal/model"
)

// SQLiteStore implements Store on a single-file SQLite database. Data
// survives process restarts. The *sql.DB handle is opened once and
// scoped to the application's lifetime.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	description TEXT,
	price       REAL NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// Timestamps are stored as RFC 3339 text.
const sqliteTimeFormat = time.RFC3339Nano

// NewSQLiteStore opens (or creates) the database file at path and
// ensures the schema exists. Schema initialization is idempotent.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w: %w", ErrUnavailable, err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w: %w", ErrUnavailable, err)
	}

	return &SQLiteStore{db: db}, nil
}

// List returns all items from the store, ordered by ascending ID.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, price, created_at, updated_at
		 FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", mapSQLiteErr(err))
	}

	return items, nil
}

// Get retrieves an item by its ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, created_at, updated_at
		 FROM items WHERE id = ?`, id,
	)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

// Create adds a new item; SQLite assigns the ID via AUTOINCREMENT.
func (s *SQLiteStore) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	if item == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilItem)
	}

	now := time.Now().UTC()
	nowStr := now.Format(sqliteTimeFormat)
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO items (name, description, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Price, nowStr, nowStr,
	)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", mapSQLiteErr(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create item: reading insert id: %w", err)
	}

	return &model.Item{
		ID:          id,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update fully replaces an existing item.
func (s *SQLiteStore) Update(ctx context.Context, id int64, item *model.Item) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	if item == nil {
		return nil, fmt.Errorf("update item: %w", ErrNilItem)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, price = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name, item.Description, item.Price,
		time.Now().UTC().Format(sqliteTimeFormat), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", mapSQLiteErr(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update item: reading rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes an item from the store by its ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", mapSQLiteErr(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: reading rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping verifies the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.Item, error) {
	var (
		item                 model.Item
		description          sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&item.ID, &item.Name, &description, &item.Price,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Description = description.String

	if item.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if item.UpdatedAt, err = time.Parse(sqliteTimeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &item, nil
}

// mapSQLiteErr translates driver failures into the store error taxonomy.
// Constraint violations mean an identity collision; busy, locked, and
// I/O errors mean the medium is unavailable.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed"):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "unable to open"):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
