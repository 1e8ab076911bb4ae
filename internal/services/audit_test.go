package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/sitecms/internal/database"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuditService(t *testing.T) (*AuditService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewAuditService(db), mock
}

func TestAuditService_Record(t *testing.T) {
	svc, mock := setupAuditService(t)
	entry := models.CommitEntry{
		ID:          uuid.New(),
		Kind:        models.KindEvents,
		Editor:      "octocat",
		OldVersion:  "aaa",
		NewVersion:  "bbb",
		RecordCount: 2,
		CreatedAt:   time.Now(),
	}

	mock.ExpectExec(`INSERT INTO commit_log`).
		WithArgs(entry.ID, "events", "octocat", "aaa", "bbb", 2, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := svc.Record(context.Background(), entry)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_List(t *testing.T) {
	svc, mock := setupAuditService(t)
	now := time.Now()
	id1, id2 := uuid.New(), uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "kind", "editor", "old_version", "new_version", "record_count", "created_at",
	}).
		AddRow(id1, "news", "octocat", "v2", "v3", 4, now).
		AddRow(id2, "news", "octocat", "v1", "v2", 3, now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM commit_log WHERE kind`).
		WithArgs("news", DefaultHistoryLimit).
		WillReturnRows(rows)

	entries, err := svc.List(context.Background(), models.KindNews, 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id1, entries[0].ID)
	assert.Equal(t, models.KindNews, entries[0].Kind)
	assert.Equal(t, "v3", entries[0].NewVersion)
	assert.Equal(t, 3, entries[1].RecordCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_List_CapsLimit(t *testing.T) {
	svc, mock := setupAuditService(t)

	mock.ExpectQuery(`SELECT .+ FROM commit_log`).
		WithArgs("events", MaxHistoryLimit).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "kind", "editor", "old_version", "new_version", "record_count", "created_at",
		}))

	entries, err := svc.List(context.Background(), models.KindEvents, 5000)

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
