package repository

import "time"

// LexiconEntry is the durable counterpart of a phrase-cache entry.
type LexiconEntry struct {
	OriginalText string
	OriginalLang string
	Translations map[string]string
	UsageCount   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChatMessage is a persisted room message. Content and per-language
// translations are stored encrypted with the room secret; this layer treats
// them as opaque.
type ChatMessage struct {
	ID               string
	RoomID           string
	SenderID         string
	ContentEncrypted []byte
	DetectedLang     string
	Translations     map[string]string
	CreatedAt        time.Time
}
