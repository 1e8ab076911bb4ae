package services

import (
	"context"

	"github.com/dimitrije/sitecms/internal/database"
	"github.com/dimitrije/sitecms/internal/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)

type AuditService struct {
	db *database.DB
}

func NewAuditService(db *database.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Record(ctx context.Context, entry models.CommitEntry) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO commit_log (id, kind, editor, old_version, new_version, record_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, string(entry.Kind), entry.Editor, entry.OldVersion, entry.NewVersion, entry.RecordCount, entry.CreatedAt)
	return err
}

// List returns the most recent commits of a collection, newest first.
func (s *AuditService) List(ctx context.Context, kind models.Kind, limit int) ([]models.CommitEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, kind, editor, old_version, new_version, record_count, created_at
		FROM commit_log WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.CommitEntry, 0)
	for rows.Next() {
		var e models.CommitEntry
		var k string
		if err := rows.Scan(&e.ID, &k, &e.Editor, &e.OldVersion, &e.NewVersion, &e.RecordCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = models.Kind(k)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
