// Package file persists the document as a JSON file on local disk, the
// development backend.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"waterworks/internal/core"
	"waterworks/internal/store"
)

type Store struct {
	path string
}

// New creates a file-backed document store at the given path. The parent
// directory is created if missing.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Load reads the document. A missing file is a fresh installation and
// yields an empty document rather than an error.
func (s *Store) Load(ctx context.Context) (*core.AppData, error) {
	body, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.InfoContext(ctx, "Data file missing, starting with empty document", "path", s.path)
		return store.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	data, err := store.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	return data, nil
}

// Save overwrites the document. The write goes through a temp file and
// rename so a crash mid-write never truncates the only copy.
func (s *Store) Save(ctx context.Context, data *core.AppData) error {
	body, err := store.Encode(data)
	if err != nil {
		return fmt.Errorf("write data file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}

	slog.DebugContext(ctx, "Document saved", "path", s.path, "bytes", len(body))
	return nil
}
