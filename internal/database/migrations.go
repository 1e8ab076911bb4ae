package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		login VARCHAR(255) NOT NULL,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_login ON refresh_tokens(login)`,

	// Structured store used when STORE_BACKEND=postgres
	`CREATE TABLE IF NOT EXISTS collection_documents (
		kind VARCHAR(50) PRIMARY KEY,
		records JSONB NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`INSERT INTO collection_documents (kind) VALUES ('events'), ('news') ON CONFLICT (kind) DO NOTHING`,

	`CREATE TABLE IF NOT EXISTS commit_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		kind VARCHAR(50) NOT NULL,
		editor VARCHAR(255) NOT NULL,
		old_version VARCHAR(255) NOT NULL,
		new_version VARCHAR(255) NOT NULL,
		record_count INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_commit_log_kind_created_at ON commit_log(kind, created_at DESC)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
