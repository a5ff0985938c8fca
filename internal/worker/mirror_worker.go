// Package worker mirrors the primary document store to a remote one. The
// worker reacts to sync messages from the web app and also runs a periodic
// full mirror as a backup in case messages are lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"waterworks/internal/amqp"
	"waterworks/internal/core"
	"waterworks/internal/store"
)

// SyncConsumer delivers document sync messages until the context ends.
type SyncConsumer interface {
	ConsumeDocumentSync(ctx context.Context, handler func(*amqp.DocumentSyncMessage) error) error
}

// LedgerExporter pushes a snapshot of the document to an external ledger.
// Optional; nil disables the export.
type LedgerExporter interface {
	ExportLedger(ctx context.Context, data *core.AppData) error
}

type MirrorWorker struct {
	source store.DocumentStore
	target store.DocumentStore
	ledger LedgerExporter

	mu           sync.Mutex
	lastRevision int64
}

func NewMirrorWorker(source, target store.DocumentStore, ledger LedgerExporter) *MirrorWorker {
	return &MirrorWorker{
		source: source,
		target: target,
		ledger: ledger,
	}
}

// HandleSyncMessage mirrors the document in response to a saved revision.
// Revisions at or below the last mirrored one are stale deliveries and skip.
func (w *MirrorWorker) HandleSyncMessage(ctx context.Context, msg *amqp.DocumentSyncMessage) error {
	w.mu.Lock()
	if msg.Revision != 0 && msg.Revision <= w.lastRevision {
		w.mu.Unlock()
		slog.InfoContext(ctx, "Skipping stale sync message",
			"revision", msg.Revision, "last_mirrored", w.lastRevision)
		return nil
	}
	w.mu.Unlock()

	if err := w.MirrorOnce(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	if msg.Revision > w.lastRevision {
		w.lastRevision = msg.Revision
	}
	w.mu.Unlock()
	return nil
}

// MirrorOnce copies the current document from the primary store to the
// remote one, and to the ledger export when configured.
func (w *MirrorWorker) MirrorOnce(ctx context.Context) error {
	data, err := w.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document for mirror: %w", err)
	}

	if err := w.target.Save(ctx, data); err != nil {
		return fmt.Errorf("mirror document: %w", err)
	}

	slog.InfoContext(ctx, "Document mirrored",
		"properties", len(data.Properties),
		"readings", len(data.Readings),
		"payments", len(data.Payments))

	if w.ledger != nil {
		if err := w.ledger.ExportLedger(ctx, data); err != nil {
			// ledger export is best-effort, the mirror itself succeeded
			slog.ErrorContext(ctx, "Ledger export failed", "error", err)
		}
	}

	return nil
}

// Run consumes sync messages and runs the periodic backup mirror until the
// context is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer SyncConsumer, interval time.Duration) error {
	// catch up on anything missed while the worker was down
	if err := w.MirrorOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup mirror failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeDocumentSync(ctx, func(msg *amqp.DocumentSyncMessage) error {
				return w.HandleSyncMessage(ctx, msg)
			})
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.MirrorOnce(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic mirror failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
