// Package services orchestrates document reads and writes across the
// configured store and the optional AMQP sync channel.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"waterworks/internal/core"
	"waterworks/internal/store"
)

// SyncPublisher announces saved document revisions to the mirror worker.
type SyncPublisher interface {
	PublishDocumentSync(ctx context.Context, revision int64) error
	Close() error
}

// DocumentService serializes access to the single document. Reads come from
// an in-memory copy; writes go to the store first and only then replace the
// copy, so a failed save never leaves readers with unsaved state.
type DocumentService struct {
	mu        sync.RWMutex
	store     store.DocumentStore
	publisher SyncPublisher
	data      *core.AppData
	revision  int64
	loaded    bool
}

func NewDocumentService(st store.DocumentStore, publisher SyncPublisher) *DocumentService {
	return &DocumentService{
		store:     st,
		publisher: publisher,
	}
}

// load fills the in-memory copy on first use. Callers hold at least a read
// lock; the write path upgrades it.
func (s *DocumentService) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	data, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	s.data = data
	s.loaded = true
	slog.InfoContext(ctx, "Document loaded",
		"properties", len(data.Properties),
		"readings", len(data.Readings),
		"payments", len(data.Payments))
	return nil
}

// Get returns a copy of the current document.
func (s *DocumentService) Get(ctx context.Context) (*core.AppData, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Clone(s.data)
}

// Revision reports how many saves this process has performed.
func (s *DocumentService) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Update applies mutate to a copy of the document and persists the result.
// The in-memory document only advances when the save succeeds.
func (s *DocumentService) Update(ctx context.Context, mutate func(*core.AppData) error) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working, err := store.Clone(s.data)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if err := mutate(working); err != nil {
		return err
	}
	if err := s.store.Save(ctx, working); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	s.data = working
	s.revision++
	s.publishSync(ctx, s.revision)
	return nil
}

// Replace persists an entire document, the write half of the raw data API.
func (s *DocumentService) Replace(ctx context.Context, data *core.AppData) error {
	return s.Update(ctx, func(current *core.AppData) error {
		copied, err := store.Clone(data)
		if err != nil {
			return err
		}
		*current = *copied
		return nil
	})
}

// publishSync is best-effort: the document is already saved locally, so a
// publish failure degrades mirroring, not the request.
func (s *DocumentService) publishSync(ctx context.Context, revision int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDocumentSync(ctx, revision); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"revision", revision, "error", err)
	}
}

// Close releases the publisher connection if one is attached.
func (s *DocumentService) Close() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			return fmt.Errorf("close document service: %w", err)
		}
	}
	return nil
}
