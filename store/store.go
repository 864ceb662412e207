// Package store persists tileui application instances in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phanxgames/tileui"
)

// Store is a tileui.Saver backed by a SQLite database.
type Store struct {
	db *sql.DB
}

var _ tileui.Saver = (*Store)(nil)

func openDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Open migrates the database at path and opens it.
func Open(path string) (*Store, error) {
	if err := Migrate(path); err != nil {
		return nil, err
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveInstances replaces the stored instances of appType in worldID.
func (s *Store) SaveInstances(ctx context.Context, worldID, appType string, records []tileui.InstanceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM application_instances WHERE world_id = ? AND app_type = ?`,
		worldID, appType); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear %s: %w", appType, err)
	}
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO application_instances (world_id, app_type, idx, x, y) VALUES (?, ?, ?, ?, ?)`,
			worldID, appType, rec.Index, rec.X, rec.Y); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s %d: %w", appType, rec.Index, err)
		}
	}
	return tx.Commit()
}

// LoadInstances returns the stored instances of appType in worldID ordered
// by index.
func (s *Store) LoadInstances(ctx context.Context, worldID, appType string) ([]tileui.InstanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, x, y FROM application_instances WHERE world_id = ? AND app_type = ? ORDER BY idx`,
		worldID, appType)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", appType, err)
	}
	defer rows.Close()

	var out []tileui.InstanceRecord
	for rows.Next() {
		var rec tileui.InstanceRecord
		if err := rows.Scan(&rec.Index, &rec.X, &rec.Y); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AppTypes returns the application types with stored instances in worldID.
func (s *Store) AppTypes(ctx context.Context, worldID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT app_type FROM application_instances WHERE world_id = ? ORDER BY app_type`, worldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
