// Package backend selects and constructs the document store named by the
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"waterworks/internal/config"
	"waterworks/internal/store"
	"waterworks/internal/store/file"
	"waterworks/internal/store/github"
	"waterworks/internal/store/memory"
	"waterworks/internal/store/sqlite"
)

// Type names a document-store backend.
type Type string

const (
	FileBackend   Type = "file"
	GitHubBackend Type = "github"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case FileBackend, GitHubBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result carries a constructed store and its optional cleanup.
type Result struct {
	Store   store.DocumentStore
	Cleanup CleanupFunc
}

// Factory builds document stores from application config.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create constructs the store named by cfg.DataBackend.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case FileBackend:
		s, err := file.New(cfg.DataFilePath)
		if err != nil {
			return nil, fmt.Errorf("initialize file backend: %w", err)
		}
		f.logger.Info("Initialized file backend", "path", cfg.DataFilePath)
		return &Result{Store: s}, nil

	case GitHubBackend:
		s := github.New(github.Options{
			BaseURL: cfg.GitHubAPIURL,
			Repo:    cfg.GitHubRepo,
			Path:    cfg.GitHubFilePath,
			Token:   cfg.GitHubToken,
		})
		f.logger.Info("Initialized github backend", "repo", cfg.GitHubRepo, "path", cfg.GitHubFilePath)
		return &Result{Store: s}, nil

	case SQLiteBackend:
		s, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		f.logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: s, Cleanup: s.Close}, nil

	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}
