// Package storage defines the persistence interfaces for the audit trail.
package storage

import (
	"context"

	watchtower "github.com/obsidianops/watchtower/internal"
)

// AuditStore persists tool invocation records.
type AuditStore interface {
	// InsertAudit writes a batch of records in one transaction.
	InsertAudit(ctx context.Context, records []watchtower.AuditRecord) error
	// RecentAudit returns the newest records, most recent first.
	RecentAudit(ctx context.Context, limit int) ([]watchtower.AuditRecord, error)
	// Ping verifies connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying resources.
	Close() error
}
