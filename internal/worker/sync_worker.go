package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hotelpro/internal/amqp"
	"hotelpro/internal/remote"
)

// RecordWriter is the persistence the worker applies mutations to.
type RecordWriter interface {
	UpsertAt(ctx context.Context, table, id string, payload []byte, at time.Time) error
	DeleteAt(ctx context.Context, table, id string, at time.Time) error
	Applied(ctx context.Context, mutationID string) (bool, error)
	MarkApplied(ctx context.Context, mutationID string) (bool, error)
	PruneApplied(ctx context.Context, cutoff time.Time) (int64, error)
	PruneTombstones(ctx context.Context, cutoff time.Time) (int64, error)
}

// SyncWorker applies queued ledger mutations to the remote store.
type SyncWorker struct {
	store     RecordWriter
	retention time.Duration
}

func NewSyncWorker(store RecordWriter, retention time.Duration) *SyncWorker {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &SyncWorker{store: store, retention: retention}
}

// HandleMutation applies one message. Redelivered messages are skipped; a
// returned error makes the consumer requeue the message.
func (w *SyncWorker) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	if err := remote.CheckTable(msg.Table); err != nil {
		// a message for an unknown table will never succeed
		slog.WarnContext(ctx, "Dropping mutation for unknown table",
			"message_id", msg.ID, "table", msg.Table)
		return nil
	}

	seen, err := w.store.Applied(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("check applied: %w", err)
	}
	if seen {
		slog.DebugContext(ctx, "Skipping redelivered mutation", "message_id", msg.ID)
		return nil
	}

	switch msg.Op {
	case amqp.OpUpsert:
		if err := w.store.UpsertAt(ctx, msg.Table, msg.RecordID, msg.Payload, msg.Timestamp); err != nil {
			return fmt.Errorf("apply upsert: %w", err)
		}
	case amqp.OpDelete:
		if err := w.store.DeleteAt(ctx, msg.Table, msg.RecordID, msg.Timestamp); err != nil {
			return fmt.Errorf("apply delete: %w", err)
		}
	default:
		slog.WarnContext(ctx, "Dropping mutation with unknown op", "message_id", msg.ID, "op", msg.Op)
		return nil
	}

	if _, err := w.store.MarkApplied(ctx, msg.ID); err != nil {
		// the write itself landed; a redelivery re-applies it idempotently
		slog.ErrorContext(ctx, "Failed to record applied mutation", "message_id", msg.ID, "error", err)
	}

	slog.InfoContext(ctx, "Applied ledger mutation",
		"message_id", msg.ID,
		"op", msg.Op,
		"table", msg.Table,
		"record_id", msg.RecordID)
	return nil
}

// Prune forgets applied mutation ids and tombstones older than the
// retention window.
func (w *SyncWorker) Prune(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-w.retention)
	n, err := w.store.PruneApplied(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune applied mutations: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned applied mutation ids", "count", n)
	}
	n, err = w.store.PruneTombstones(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune tombstones: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned tombstones", "count", n)
	}
	return nil
}

// RunPruner calls Prune every interval until ctx ends.
func (w *SyncWorker) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := w.Prune(ctx, now); err != nil {
				slog.ErrorContext(ctx, "Prune failed", "error", err)
			}
		}
	}
}
