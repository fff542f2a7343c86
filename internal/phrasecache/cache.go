package phrasecache

// Key identifies a cached phrase: the normalized source language plus the
// normalized phrase text.
type Key struct {
	SourceLang string
	Phrase     string
}

// Entry is a warm-load unit: all known target translations of one phrase.
type Entry struct {
	SourceLang   string
	Phrase       string
	Translations map[string]string
	UsageCount   int64
}

// Cache is the shared phrase-translation store the hybrid translator
// segments against. Lookups and stores run on the hot path; usage counting
// is fire-and-forget and flushed out of band.
type Cache interface {
	Lookup(sourceLang, phrase, targetLang string) (string, bool)
	Store(sourceLang, phrase, targetLang, translation string)
	RecordUse(sourceLang, phrase string)

	// DrainUsage returns the per-key use counts accumulated since the last
	// drain and resets them.
	DrainUsage() map[Key]int64

	// Warm bulk-loads entries, typically from the durable lexicon at startup.
	Warm(entries []Entry)

	Len() int
}
