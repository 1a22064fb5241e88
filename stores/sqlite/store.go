package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"tienda-web/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}
	// A single connection keeps writes serialized and lets ":memory:" work.
	db.SetMaxOpenConns(1)

	exportTableStmt := `CREATE TABLE IF NOT EXISTS exports (id TEXT PRIMARY KEY, content_type TEXT NOT NULL, data BLOB);`
	if _, err = db.Exec(exportTableStmt); err != nil {
		log.Fatalf("failed to create exports table: %v", err)
	}

	itemTableStmt := `
	CREATE TABLE IF NOT EXISTS items (
		visitor_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB,
		created_at DATETIME,
		updated_at DATETIME,
		PRIMARY KEY (visitor_id, key)
	);`
	if _, err = db.Exec(itemTableStmt); err != nil {
		log.Fatalf("failed to create items table: %v", err)
	}

	return &sqliteStore{db}
}

// ExportStore implementation
func (s *sqliteStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	log := logrus.WithField("export_id", id)
	var export core.Export
	err := s.db.QueryRowContext(ctx, "SELECT content_type, data FROM exports WHERE id = ?", id).Scan(&export.ContentType, &export.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Export with specified ID not found")
			return nil, fmt.Errorf("export %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve export")
		return nil, err
	}
	return &export, nil
}

func (s *sqliteStore) Create(ctx context.Context, export *core.Export) (string, error) {
	id := ulid.Make().String()
	log := logrus.WithFields(logrus.Fields{
		"export_id":   id,
		"data_length": len(export.Data),
	})

	_, err := s.db.ExecContext(ctx, "INSERT INTO exports (id, content_type, data) VALUES (?, ?, ?)", id, export.ContentType, export.Data)
	if err != nil {
		log.WithError(err).Error("Failed to create export")
		return "", err
	}
	log.Info("Export created successfully")
	return id, nil
}

// ItemStore implementation
func (s *sqliteStore) List(ctx context.Context, visitorID string) ([]*core.Item, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, created_at, updated_at FROM items WHERE visitor_id = ? ORDER BY key", visitorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*core.Item{}
	for rows.Next() {
		item := core.Item{VisitorID: visitorID}
		if err := rows.Scan(&item.Key, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, visitorID, key string) (*core.Item, error) {
	item := core.Item{VisitorID: visitorID, Key: key}
	err := s.db.QueryRowContext(ctx, "SELECT value, created_at, updated_at FROM items WHERE visitor_id = ? AND key = ?", visitorID, key).Scan(&item.Value, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s for visitor %s: %w", key, visitorID, core.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

func (s *sqliteStore) Save(ctx context.Context, item *core.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	var createdAt time.Time
	err = tx.QueryRowContext(ctx, "SELECT created_at FROM items WHERE visitor_id = ? AND key = ?", item.VisitorID, item.Key).Scan(&createdAt)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	now := time.Now().UTC()
	if exists {
		_, err = tx.ExecContext(ctx, "UPDATE items SET value = ?, updated_at = ? WHERE visitor_id = ? AND key = ?", item.Value, now, item.VisitorID, item.Key)
		item.CreatedAt = createdAt
	} else {
		_, err = tx.ExecContext(ctx, "INSERT INTO items (visitor_id, key, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)", item.VisitorID, item.Key, item.Value, now, now)
		item.CreatedAt = now
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"visitor_id": item.VisitorID, "key": item.Key}).WithError(err).Error("Failed to save item")
		return err
	}
	item.UpdatedAt = now

	return tx.Commit()
}

func (s *sqliteStore) Delete(ctx context.Context, visitorID, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE visitor_id = ? AND key = ?", visitorID, key)
	return err
}

// Close releases the database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}
