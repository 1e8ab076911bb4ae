package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dimitrije/sitecms/internal/codec"
	"github.com/dimitrije/sitecms/internal/database"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/jackc/pgx/v5"
)

// PostgresBackend stores each collection as a JSONB array in
// collection_documents. The version token is the row's integer version.
type PostgresBackend struct {
	db *database.DB
}

func NewPostgresBackend(db *database.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func documentPath(kind models.Kind) string {
	return "collection_documents/" + string(kind)
}

func (b *PostgresBackend) Read(ctx context.Context, kind models.Kind) (*models.Document, error) {
	if _, err := codec.For(kind); err != nil {
		return nil, err
	}

	var data []byte
	var version int
	err := b.db.Pool.QueryRow(ctx, `
		SELECT records, version FROM collection_documents WHERE kind = $1
	`, string(kind)).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, documentPath(kind))
		}
		return nil, err
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrMalformedLiteral, documentPath(kind), err)
	}
	if records == nil {
		records = []models.Record{}
	}
	models.SortByIDDesc(records)

	return &models.Document{
		Kind:    kind,
		Path:    documentPath(kind),
		Records: records,
		Version: strconv.Itoa(version),
	}, nil
}

func (b *PostgresBackend) Write(ctx context.Context, kind models.Kind, records []models.Record, expectedVersion, _ string) (*models.Document, error) {
	schema, err := codec.For(kind)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := schema.Validate(r); err != nil {
			return nil, err
		}
	}

	sorted := make([]models.Record, len(records))
	copy(sorted, records)
	models.SortByIDDesc(sorted)

	data, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}

	var expected int
	if expectedVersion == "" {
		err := b.db.Pool.QueryRow(ctx, `SELECT version FROM collection_documents WHERE kind = $1`, string(kind)).Scan(&expected)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", models.ErrNotFound, documentPath(kind))
			}
			return nil, err
		}
	} else {
		expected, err = strconv.Atoi(expectedVersion)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid version %q", models.ErrVersionConflict, expectedVersion)
		}
	}

	var version int
	err = b.db.Pool.QueryRow(ctx, `
		UPDATE collection_documents
		SET records = $1, version = version + 1, updated_at = NOW()
		WHERE kind = $2 AND version = $3
		RETURNING version
	`, data, string(kind), expected).Scan(&version)
	if err != nil {
		return nil, b.checkVersionConflict(ctx, kind, expected, err)
	}

	return &models.Document{
		Kind:    kind,
		Path:    documentPath(kind),
		Records: sorted,
		Version: strconv.Itoa(version),
		Parent:  strconv.Itoa(expected),
	}, nil
}

func (b *PostgresBackend) checkVersionConflict(ctx context.Context, kind models.Kind, expectedVersion int, originalErr error) error {
	var currentVersion int
	err := b.db.Pool.QueryRow(ctx, `SELECT version FROM collection_documents WHERE kind = $1`, string(kind)).Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("%w: %s", models.ErrNotFound, documentPath(kind))
	}
	if currentVersion != expectedVersion {
		return fmt.Errorf("%w: %s is at %d, expected %d", models.ErrVersionConflict, documentPath(kind), currentVersion, expectedVersion)
	}
	return originalErr
}
