// Package sqlite persists the document in a single-row SQLite table. The
// document stays one JSON blob; SQLite contributes durability and a
// monotonically increasing revision counter.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"waterworks/internal/core"
	"waterworks/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*core.AppData, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		slog.InfoContext(ctx, "No document row yet, starting with empty document")
		return store.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	data, err := store.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, data *core.AppData) error {
	body, err := store.Encode(data)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, body, revision, updated_at)
		VALUES (1, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			body = excluded.body,
			revision = documents.revision + 1,
			updated_at = CURRENT_TIMESTAMP`,
		string(body))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	slog.DebugContext(ctx, "Document saved to sqlite", "bytes", len(body))
	return nil
}

// Revision reports how many saves the stored document has seen. Zero means
// no document has been written yet.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM documents WHERE id = 1`).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read document revision: %w", err)
	}
	return rev, nil
}
