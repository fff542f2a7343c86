package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lingoroom/captiond/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) UpsertTranslation(ctx context.Context, input repository.UpsertLexiconInput) error {
	patch, err := json.Marshal(map[string]string{input.TargetLang: input.Translated})
	if err != nil {
		return fmt.Errorf("marshal translation patch: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin lexicon upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO lexicon_entries (original_text, original_lang, translations, usage_count)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (original_text, original_lang)
		 DO UPDATE SET translations = lexicon_entries.translations || EXCLUDED.translations,
		               updated_at = NOW()`,
		input.OriginalText, input.OriginalLang, patch)
	if err != nil {
		return fmt.Errorf("upsert lexicon entry: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) AddUsage(ctx context.Context, counts map[repository.UsageKey]int64) error {
	if len(counts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for key, n := range counts {
		batch.Queue(
			`UPDATE lexicon_entries SET usage_count = usage_count + $3, updated_at = NOW()
			 WHERE original_text = $1 AND original_lang = $2`,
			key.OriginalText, key.OriginalLang, n)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *PostgresRepository) ListMostUsed(ctx context.Context, limit int) ([]repository.LexiconEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT original_text, original_lang, translations, usage_count, created_at, updated_at
		 FROM lexicon_entries ORDER BY usage_count DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.LexiconEntry
	for rows.Next() {
		var e repository.LexiconEntry
		var translations []byte
		if err := rows.Scan(&e.OriginalText, &e.OriginalLang, &translations, &e.UsageCount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(translations, &e.Translations); err != nil {
			return nil, fmt.Errorf("decode translations for %q: %w", e.OriginalText, err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GetMessage(ctx context.Context, messageID string) (*repository.ChatMessage, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, room_id, sender_id, content_encrypted, detected_lang, translations, created_at
		 FROM messages WHERE id = $1`,
		messageID)
	var m repository.ChatMessage
	var translations []byte
	err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.ContentEncrypted, &m.DetectedLang, &translations, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(translations, &m.Translations); err != nil {
		return nil, fmt.Errorf("decode message translations: %w", err)
	}
	return &m, nil
}

func (r *PostgresRepository) MergeMessageTranslations(ctx context.Context, messageID string, translations map[string]string) error {
	if len(translations) == 0 {
		return nil
	}
	patch, err := json.Marshal(translations)
	if err != nil {
		return fmt.Errorf("marshal message translations: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE messages SET translations = translations || $2 WHERE id = $1`,
		messageID, patch)
	return err
}

func (r *PostgresRepository) GetRoomKey(ctx context.Context, roomID string) ([]byte, error) {
	row := r.pool.QueryRow(ctx, `SELECT secret FROM room_keys WHERE room_id = $1`, roomID)
	var secret []byte
	if err := row.Scan(&secret); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return secret, nil
}
