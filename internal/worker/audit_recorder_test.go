package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	watchtower "github.com/obsidianops/watchtower/internal"
)

type fakeAuditStore struct {
	mu      sync.Mutex
	records []watchtower.AuditRecord
}

func (f *fakeAuditStore) InsertAudit(_ context.Context, records []watchtower.AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeAuditStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func TestAuditRecorder_DrainsOnShutdown(t *testing.T) {
	t.Parallel()

	store := &fakeAuditStore{}
	rec := NewAuditRecorder(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	for range 5 {
		rec.Record(watchtower.AuditRecord{Tool: "monitor_host_get", Endpoint: "host.get"})
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder did not stop")
	}

	if got := store.count(); got != 5 {
		t.Errorf("flushed records = %d, want 5", got)
	}

	// IDs and timestamps are assigned at flush time.
	store.mu.Lock()
	defer store.mu.Unlock()
	for i, r := range store.records {
		if r.ID == "" {
			t.Errorf("record %d has no ID", i)
		}
		if r.CreatedAt.IsZero() {
			t.Errorf("record %d has no timestamp", i)
		}
	}
}

func TestAuditRecorder_BatchFlush(t *testing.T) {
	t.Parallel()

	store := &fakeAuditStore{}
	rec := NewAuditRecorder(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)

	// Exceed a full batch so a flush happens without waiting for the ticker.
	for range auditBatchSize + 1 {
		rec.Record(watchtower.AuditRecord{Tool: "risk_rating"})
	}

	deadline := time.Now().Add(5 * time.Second)
	for store.count() < auditBatchSize {
		if time.Now().After(deadline) {
			t.Fatalf("flushed records = %d, want >= %d", store.count(), auditBatchSize)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunner_StopsOnCancel(t *testing.T) {
	t.Parallel()

	rec := NewAuditRecorder(&fakeAuditStore{})
	runner := NewRunner(rec)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("runner err = %v, want nil on cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}
