package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/sitecms/internal/database"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/services"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// EventRecord builds a complete events record
func (f *Fixtures) EventRecord(id int64) models.Record {
	f.counter++
	return models.NewRecord(id, map[string]any{
		"title":       fmt.Sprintf("Event %d", f.counter),
		"date":        "2025-05-01",
		"displayDate": "May 1, 2025",
		"location":    "Main Hall",
		"description": fmt.Sprintf("Description %d", f.counter),
	})
}

// NewsRecord builds a complete news record
func (f *Fixtures) NewsRecord(id int64, featured bool) models.Record {
	f.counter++
	return models.NewRecord(id, map[string]any{
		"date":     "2025-05-01",
		"category": "Announcements",
		"title":    fmt.Sprintf("News %d", f.counter),
		"excerpt":  "Short excerpt",
		"author":   "Editor",
		"featured": featured,
		"content":  "First paragraph.\n\nSecond paragraph.",
	})
}

// SeedCollection stores records directly and returns the new version
func (f *Fixtures) SeedCollection(t *testing.T, kind models.Kind, records []models.Record) string {
	t.Helper()
	ctx := context.Background()

	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("failed to encode records: %v", err)
	}

	var version int
	err = f.db.Pool.QueryRow(ctx, `
		UPDATE collection_documents SET records = $1, version = version + 1
		WHERE kind = $2
		RETURNING version
	`, data, string(kind)).Scan(&version)
	if err != nil {
		t.Fatalf("failed to seed collection %s: %v", kind, err)
	}
	return fmt.Sprintf("%d", version)
}

// CreateRefreshToken stores a refresh token for login and returns its raw value
func (f *Fixtures) CreateRefreshToken(t *testing.T, login string, expiresAt time.Time) string {
	t.Helper()
	f.counter++

	raw := fmt.Sprintf("refresh-token-%d-%s", f.counter, uuid.NewString())
	svc := services.NewTokenService(f.db)
	if err := svc.StoreRefreshToken(context.Background(), login, services.HashToken(raw), expiresAt); err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
	return raw
}
