package translator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lingoroom/captiond/internal/language"
	"github.com/lingoroom/captiond/internal/phrasecache"
	"github.com/lingoroom/captiond/internal/repository"
)

const (
	// maxPhraseWindow caps the longest-match window during segmentation.
	maxPhraseWindow = 8

	// cacheTokenCeiling keeps whole paragraphs out of the phrase cache;
	// only tier results at or below this token count are written back.
	cacheTokenCeiling = 12

	// Coverage the phrase-cache result must reach before it is trusted
	// without a tier call. Short inputs get no slack.
	shortInputTokens = 2
	coverageShort    = 1.0
	coverageLong     = 0.85
	dumpLengthRatio  = 3

	lexiconWriteTimeout = 5 * time.Second
)

// Hybrid translates free text by segmenting it against the phrase cache and
// falling back to external model tiers when cache coverage is too thin.
// Translation is best-effort: Translate never returns an error to its
// caller; the worst case is the original text coming back untranslated.
type Hybrid struct {
	cache       phrasecache.Cache
	lexicon     repository.LexiconRepository
	tiers       []Tier
	detector    Detector
	defaultLang string
}

func NewHybrid(cache phrasecache.Cache, lexicon repository.LexiconRepository, tiers []Tier, detector Detector, defaultLang string) *Hybrid {
	return &Hybrid{
		cache:       cache,
		lexicon:     lexicon,
		tiers:       tiers,
		detector:    detector,
		defaultLang: defaultLang,
	}
}

// Translate returns the translated text plus the resolved source language.
func (h *Hybrid) Translate(ctx context.Context, text, sourceLangHint, targetLang string) (string, string) {
	if strings.TrimSpace(text) == "" {
		return "", language.NormalizeOr(sourceLangHint, h.defaultLang)
	}

	source := h.resolveSource(ctx, text, sourceLangHint)
	target := language.NormalizeOr(targetLang, h.defaultLang)
	if source == target {
		return text, source
	}

	tokens := language.Tokenize(text, source)
	if len(tokens) == 0 {
		return text, source
	}

	seg := h.segment(source, target, tokens)
	if h.trustworthy(seg, text, tokens) {
		return seg.text, source
	}

	if translated, detected, ok := h.translateViaTiers(ctx, text, source, target, tokens); ok {
		return translated, detected
	}

	// Every tier failed; the partial cache result still beats nothing.
	return seg.text, source
}

func (h *Hybrid) resolveSource(ctx context.Context, text, hint string) string {
	if normalized := language.Normalize(hint); normalized != "" {
		return normalized
	}
	detected, err := h.detector.DetectLanguage(ctx, text)
	if err != nil {
		slog.Warn("language detection failed; using default", "error", err, "default", h.defaultLang)
		return h.defaultLang
	}
	return language.NormalizeOr(detected, h.defaultLang)
}

type segmentation struct {
	text     string
	coverage float64
}

// segment runs the greedy longest-prefix match over the token stream:
// at each position the widest cached phrase wins, unmatched tokens pass
// through verbatim.
func (h *Hybrid) segment(source, target string, tokens []string) segmentation {
	var parts []string
	matched := 0
	for i := 0; i < len(tokens); {
		window := len(tokens) - i
		if window > maxPhraseWindow {
			window = maxPhraseWindow
		}
		hit := false
		for n := window; n >= 1; n-- {
			phrase := joinTokens(tokens[i:i+n], source)
			translated, ok := h.cache.Lookup(source, phrase, target)
			if !ok {
				continue
			}
			parts = append(parts, translated)
			matched += n
			i += n
			hit = true
			h.cache.RecordUse(source, phrase)
			break
		}
		if !hit {
			parts = append(parts, tokens[i])
			i++
		}
	}
	return segmentation{
		text:     joinTranslated(parts, target),
		coverage: float64(matched) / float64(len(tokens)),
	}
}

// trustworthy decides whether the cache-only result can be returned without
// consulting a tier. A result that ballooned far past the input length is a
// dictionary dump, not a translation.
func (h *Hybrid) trustworthy(seg segmentation, input string, tokens []string) bool {
	if len(tokens) >= shortInputTokens && len([]rune(seg.text)) > len([]rune(input))*dumpLengthRatio {
		return false
	}
	threshold := coverageLong
	if len(tokens) <= shortInputTokens {
		threshold = coverageShort
	}
	return seg.coverage >= threshold
}

func (h *Hybrid) translateViaTiers(ctx context.Context, text, source, target string, tokens []string) (string, string, bool) {
	var lastErr error
	for _, tier := range h.tiers {
		result, err := tier.Translate(ctx, text, source, target)
		if err != nil {
			if errors.Is(err, ErrTierUnavailable) {
				slog.Info("translation tier unavailable; falling through", "tier", tier.Name(), "error", err)
			} else {
				slog.Warn("translation tier failed", "tier", tier.Name(), "error", err)
				lastErr = err
			}
			continue
		}
		if result.TranslatedText == "" {
			continue
		}

		detected := language.NormalizeOr(result.DetectedSourceLang, source)
		h.storeResult(detected, target, tokens, result.TranslatedText)
		return result.TranslatedText, detected, true
	}
	if lastErr != nil {
		slog.Error("all translation tiers exhausted", "error", lastErr, "source", source, "target", target)
	}
	return "", "", false
}

// storeResult writes a fresh tier translation back for future cache-only
// hits. Store failures never disturb the translation path.
func (h *Hybrid) storeResult(source, target string, tokens []string, translated string) {
	if len(tokens) > cacheTokenCeiling {
		return
	}
	phrase := joinTokens(tokens, source)
	h.cache.Store(source, phrase, target, translated)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), lexiconWriteTimeout)
		defer cancel()
		err := h.lexicon.UpsertTranslation(ctx, repository.UpsertLexiconInput{
			OriginalText: phrase,
			OriginalLang: source,
			TargetLang:   target,
			Translated:   translated,
		})
		if err != nil {
			slog.Warn("lexicon upsert failed", "error", err, "phrase", phrase, "source", source, "target", target)
		}
	}()
}

func joinTokens(tokens []string, lang string) string {
	if language.IsCJK(lang) {
		return strings.Join(tokens, "")
	}
	return strings.Join(tokens, " ")
}

func joinTranslated(parts []string, targetLang string) string {
	if language.IsCJK(targetLang) {
		return strings.Join(parts, "")
	}
	return strings.Join(parts, " ")
}
