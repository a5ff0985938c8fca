package backend

import (
	"path/filepath"
	"testing"

	"waterworks/internal/config"
)

func TestTypeIsValid(t *testing.T) {
	for _, valid := range []Type{FileBackend, GitHubBackend, SQLiteBackend, MemoryBackend} {
		if !valid.IsValid() {
			t.Errorf("%s should be valid", valid)
		}
	}
	if Type("postgres").IsValid() {
		t.Errorf("postgres should not be valid")
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	f := NewFactory(nil)
	result, err := f.Create(&config.Config{DataBackend: "memory"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Store == nil {
		t.Fatalf("expected store")
	}
	if result.Cleanup != nil {
		t.Fatalf("memory backend needs no cleanup")
	}
}

func TestCreateFileBackend(t *testing.T) {
	f := NewFactory(nil)
	result, err := f.Create(&config.Config{
		DataBackend:  "file",
		DataFilePath: filepath.Join(t.TempDir(), "data.json"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Store == nil {
		t.Fatalf("expected store")
	}
}

func TestCreateSQLiteBackendHasCleanup(t *testing.T) {
	f := NewFactory(nil)
	result, err := f.Create(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "waterworks.db"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Cleanup == nil {
		t.Fatalf("sqlite backend must expose cleanup")
	}
	if err := result.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestCreateRejectsUnknownBackend(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.Create(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
