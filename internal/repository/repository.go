package repository

import "context"

type UpsertLexiconInput struct {
	OriginalText string
	OriginalLang string
	TargetLang   string
	Translated   string
}

type UsageKey struct {
	OriginalText string
	OriginalLang string
}

type LexiconRepository interface {
	// UpsertTranslation merges one translation into the entry's translations
	// map, last writer wins, creating the entry when absent. Each call is its
	// own commit/rollback boundary.
	UpsertTranslation(ctx context.Context, input UpsertLexiconInput) error

	// AddUsage applies drained phrase-cache use counts in one batch.
	AddUsage(ctx context.Context, counts map[UsageKey]int64) error

	// ListMostUsed returns up to limit entries ordered by usage, for cache
	// warming at startup.
	ListMostUsed(ctx context.Context, limit int) ([]LexiconEntry, error)
}

type MessageRepository interface {
	GetMessage(ctx context.Context, messageID string) (*ChatMessage, error)

	// MergeMessageTranslations merges the given per-language ciphertexts into
	// the message's translations map without discarding existing entries.
	MergeMessageTranslations(ctx context.Context, messageID string, translations map[string]string) error
}

type RoomKeyRepository interface {
	// GetRoomKey returns the room's shared secret, or nil when the room has
	// no key provisioned.
	GetRoomKey(ctx context.Context, roomID string) ([]byte, error)
}

type Repository interface {
	LexiconRepository
	MessageRepository
	RoomKeyRepository
}
