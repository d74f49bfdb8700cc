package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	watchtower "github.com/obsidianops/watchtower/internal"
)

const (
	auditChanSize   = 1000
	auditBatchSize  = 100
	auditFlushEvery = 5 * time.Second
	auditDrainTime  = 10 * time.Second
)

// AuditStore is the persistence interface consumed by AuditRecorder.
type AuditStore interface {
	InsertAudit(ctx context.Context, records []watchtower.AuditRecord) error
}

// AuditRecorder buffers tool invocation records and batch-flushes them to
// the store. Records are dropped if the channel is full (back-pressure on
// slow DB); auditing must never stall a tool call.
type AuditRecorder struct {
	ch    chan watchtower.AuditRecord
	store AuditStore
}

// NewAuditRecorder creates an AuditRecorder backed by store.
func NewAuditRecorder(store AuditStore) *AuditRecorder {
	return &AuditRecorder{
		ch:    make(chan watchtower.AuditRecord, auditChanSize),
		store: store,
	}
}

// Name returns the worker identifier.
func (a *AuditRecorder) Name() string { return "audit_recorder" }

// Record enqueues an audit record. It never blocks; drops on full channel.
func (a *AuditRecorder) Record(r watchtower.AuditRecord) {
	select {
	case a.ch <- r:
	default:
		slog.Warn("audit record dropped, channel full")
	}
}

// Run processes records until ctx is cancelled, then drains remaining records.
func (a *AuditRecorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(auditFlushEvery)
	defer ticker.Stop()

	buf := make([]watchtower.AuditRecord, 0, auditBatchSize)

	for {
		select {
		case r := <-a.ch:
			buf = append(buf, r)
			if len(buf) >= auditBatchSize {
				a.flush(ctx, buf)
				buf = buf[:0]
			}

		case <-ticker.C:
			if len(buf) > 0 {
				a.flush(ctx, buf)
				buf = buf[:0]
			}

		case <-ctx.Done():
			a.drain(buf)
			return nil
		}
	}
}

func (a *AuditRecorder) drain(buf []watchtower.AuditRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), auditDrainTime)
	defer cancel()

	for {
		select {
		case r := <-a.ch:
			buf = append(buf, r)
			if len(buf) >= auditBatchSize {
				a.flush(ctx, buf)
				buf = buf[:0]
			}
		default:
			if len(buf) > 0 {
				a.flush(ctx, buf)
			}
			return
		}
	}
}

func (a *AuditRecorder) flush(ctx context.Context, buf []watchtower.AuditRecord) {
	// Copy to avoid aliasing the caller's slice.
	batch := make([]watchtower.AuditRecord, len(buf))
	copy(batch, buf)

	// Assign IDs off the hot path; callers leave ID empty.
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.Must(uuid.NewV7()).String()
		}
		if batch[i].CreatedAt.IsZero() {
			batch[i].CreatedAt = time.Now()
		}
	}

	if err := a.store.InsertAudit(ctx, batch); err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "audit flush failed",
			slog.Int("count", len(batch)),
			slog.String("error", err.Error()),
		)
	}
}
