package phrasecache

import (
	"hash/fnv"
	"sync"

	"github.com/lingoroom/captiond/internal/phrasecache"
)

const shardCount = 32

// MemoryCache is a sharded in-memory phrase cache. Entries are never evicted
// on the hot path; eviction is a periodic maintenance concern outside this
// process.
type MemoryCache struct {
	shards [shardCount]*shard
}

type shard struct {
	mu      sync.RWMutex
	entries map[phrasecache.Key]*cacheEntry
}

type cacheEntry struct {
	translations map[string]string
	pendingUses  int64
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[phrasecache.Key]*cacheEntry)}
	}
	return c
}

func (c *MemoryCache) shardFor(key phrasecache.Key) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.SourceLang))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key.Phrase))
	return c.shards[h.Sum32()%shardCount]
}

func (c *MemoryCache) Lookup(sourceLang, phrase, targetLang string) (string, bool) {
	key := phrasecache.Key{SourceLang: sourceLang, Phrase: phrase}
	s := c.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", false
	}
	translated, ok := entry.translations[targetLang]
	if !ok || translated == "" {
		return "", false
	}
	return translated, true
}

func (c *MemoryCache) Store(sourceLang, phrase, targetLang, translation string) {
	if phrase == "" || translation == "" {
		return
	}
	key := phrasecache.Key{SourceLang: sourceLang, Phrase: phrase}
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		entry = &cacheEntry{translations: make(map[string]string)}
		s.entries[key] = entry
	}
	entry.translations[targetLang] = translation
}

func (c *MemoryCache) RecordUse(sourceLang, phrase string) {
	key := phrasecache.Key{SourceLang: sourceLang, Phrase: phrase}
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key]; ok {
		entry.pendingUses++
	}
}

func (c *MemoryCache) DrainUsage() map[phrasecache.Key]int64 {
	drained := make(map[phrasecache.Key]int64)
	for _, s := range c.shards {
		s.mu.Lock()
		for key, entry := range s.entries {
			if entry.pendingUses > 0 {
				drained[key] = entry.pendingUses
				entry.pendingUses = 0
			}
		}
		s.mu.Unlock()
	}
	return drained
}

func (c *MemoryCache) Warm(entries []phrasecache.Entry) {
	for _, e := range entries {
		if e.Phrase == "" || len(e.Translations) == 0 {
			continue
		}
		key := phrasecache.Key{SourceLang: e.SourceLang, Phrase: e.Phrase}
		s := c.shardFor(key)
		s.mu.Lock()
		entry, ok := s.entries[key]
		if !ok {
			entry = &cacheEntry{translations: make(map[string]string, len(e.Translations))}
			s.entries[key] = entry
		}
		for target, translated := range e.Translations {
			if translated == "" {
				continue
			}
			if _, exists := entry.translations[target]; !exists {
				entry.translations[target] = translated
			}
		}
		s.mu.Unlock()
	}
}

func (c *MemoryCache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}
