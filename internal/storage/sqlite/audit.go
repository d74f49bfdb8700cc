package sqlite

import (
	"context"
	"fmt"
	"time"

	watchtower "github.com/obsidianops/watchtower/internal"
)

// InsertAudit writes a batch of audit records in one transaction.
func (s *Store) InsertAudit(ctx context.Context, records []watchtower.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_log (id, tool, endpoint, cache_hit, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare audit insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		hit := 0
		if r.CacheHit {
			hit = 1
		}
		_, err := stmt.ExecContext(ctx, r.ID, r.Tool, r.Endpoint, hit, r.DurationMS, r.Error,
			r.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert audit record: %w", err)
		}
	}

	return tx.Commit()
}

// RecentAudit returns the newest audit records, most recent first.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]watchtower.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.read.QueryContext(ctx, `
		SELECT id, tool, endpoint, cache_hit, duration_ms, error, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []watchtower.AuditRecord
	for rows.Next() {
		var r watchtower.AuditRecord
		var hit int
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Tool, &r.Endpoint, &hit, &r.DurationMS, &r.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.CacheHit = hit != 0
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
