package phrasecache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/lingoroom/captiond/internal/phrasecache"
)

func TestLookup_MissThenStoreThenHit(t *testing.T) {
	c := NewMemoryCache()
	if _, ok := c.Lookup("en", "hello world", "vi"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Store("en", "hello world", "vi", "xin chào thế giới")
	got, ok := c.Lookup("en", "hello world", "vi")
	if !ok || got != "xin chào thế giới" {
		t.Fatalf("expected hit, got %q ok=%v", got, ok)
	}
	if _, ok := c.Lookup("en", "hello world", "ja"); ok {
		t.Fatal("expected miss for uncached target language")
	}
}

func TestStore_IgnoresEmpty(t *testing.T) {
	c := NewMemoryCache()
	c.Store("en", "", "vi", "x")
	c.Store("en", "hello", "vi", "")
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestDrainUsage(t *testing.T) {
	c := NewMemoryCache()
	c.Store("en", "hello", "vi", "xin chào")
	c.RecordUse("en", "hello")
	c.RecordUse("en", "hello")
	c.RecordUse("en", "unknown phrase")

	drained := c.DrainUsage()
	key := phrasecache.Key{SourceLang: "en", Phrase: "hello"}
	if drained[key] != 2 {
		t.Fatalf("expected 2 uses drained, got %d", drained[key])
	}
	if len(drained) != 1 {
		t.Fatalf("expected only tracked entries, got %v", drained)
	}
	if again := c.DrainUsage(); len(again) != 0 {
		t.Fatalf("expected drain to reset counters, got %v", again)
	}
}

func TestWarm_DoesNotOverwriteHotEntries(t *testing.T) {
	c := NewMemoryCache()
	c.Store("en", "hello", "vi", "xin chào")
	c.Warm([]phrasecache.Entry{
		{SourceLang: "en", Phrase: "hello", Translations: map[string]string{"vi": "chào", "ja": "こんにちは"}},
		{SourceLang: "en", Phrase: "goodbye", Translations: map[string]string{"vi": "tạm biệt"}},
	})
	if got, _ := c.Lookup("en", "hello", "vi"); got != "xin chào" {
		t.Fatalf("warm overwrote live translation: %q", got)
	}
	if got, _ := c.Lookup("en", "hello", "ja"); got != "こんにちは" {
		t.Fatalf("warm should fill missing targets, got %q", got)
	}
	if got, _ := c.Lookup("en", "goodbye", "vi"); got != "tạm biệt" {
		t.Fatalf("warm should add new entries, got %q", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				phrase := fmt.Sprintf("phrase-%d", i%50)
				c.Store("en", phrase, "vi", "bản dịch")
				c.Lookup("en", phrase, "vi")
				c.RecordUse("en", phrase)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() != 50 {
		t.Fatalf("expected 50 entries, got %d", c.Len())
	}
}
