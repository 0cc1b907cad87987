package repo

import (
	"context"
	"database/sql"
	"fmt"
)

type RetentionRepo struct {
	db *sql.DB
}

func NewRetentionRepo(db *sql.DB) *RetentionRepo {
	return &RetentionRepo{db: db}
}

func (r *RetentionRepo) RecordRun(ctx context.Context, startedAt, archived, deleted, messagesDeleted int64) error {
	const query = `
		INSERT INTO retention_runs (started_at, conversations_archived, conversations_deleted, messages_deleted)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, startedAt, archived, deleted, messagesDeleted)
	return err
}

func (r *RetentionRepo) LastRunAt(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(MAX(started_at), 0) FROM retention_runs`
	var last int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&last); err != nil {
		return 0, err
	}
	return last, nil
}

// RefreshStats re-collects planner statistics after bulk deletes. Space
// reclamation itself is left to autovacuum.
func (r *RetentionRepo) RefreshStats(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := r.db.ExecContext(ctx, fmt.Sprintf("ANALYZE %s", table)); err != nil {
			return err
		}
	}
	return nil
}
