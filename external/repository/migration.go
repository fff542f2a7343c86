package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS lexicon_entries (
		original_text TEXT NOT NULL,
		original_lang TEXT NOT NULL,
		translations JSONB NOT NULL DEFAULT '{}'::jsonb,
		usage_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (original_text, original_lang)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lexicon_entries_usage ON lexicon_entries (usage_count DESC)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		room_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		content_encrypted BYTEA NOT NULL,
		detected_lang TEXT NOT NULL DEFAULT '',
		translations JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages (room_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS room_keys (
		room_id TEXT PRIMARY KEY,
		secret BYTEA NOT NULL
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
