// Package language holds the language-code and tokenization rules shared by
// the utterance assembler and the hybrid translator.
package language

import (
	"strings"
	"unicode"
)

// aliases maps recognizer-reported primary subtags onto the ISO 639-1 codes
// the rest of the pipeline is keyed on.
var aliases = map[string]string{
	"cmn": "zh",
	"yue": "zh",
	"fil": "tl",
	"iw":  "he",
}

var cjkLanguages = map[string]struct{}{
	"zh": {},
	"ja": {},
	"ko": {},
}

// Normalize reduces a BCP 47 tag or recognizer language code to a bare
// lowercase primary code ("en-US" -> "en", "cmn-Hans-CN" -> "zh").
// Returns the empty string for empty input; callers apply their own default.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "auto" || code == "und" {
		return ""
	}
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		code = code[:idx]
	}
	if mapped, ok := aliases[code]; ok {
		return mapped
	}
	return code
}

// NormalizeOr is Normalize with a fallback for empty or auto codes.
func NormalizeOr(code, fallback string) string {
	if n := Normalize(code); n != "" {
		return n
	}
	return fallback
}

func IsCJK(lang string) bool {
	_, ok := cjkLanguages[Normalize(lang)]
	return ok
}

// Tokenize splits text into the units phrase matching operates on:
// individual characters for CJK scripts, whitespace-separated words
// elsewhere. Tokens are lowercased with surrounding punctuation removed.
func Tokenize(text, lang string) []string {
	if IsCJK(lang) {
		return tokenizeCJK(text)
	}
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(stripPunct(f))
		if w != "" {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

func tokenizeCJK(text string) []string {
	var tokens []string
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		tokens = append(tokens, string(r))
	}
	return tokens
}

func stripPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// terminalRunes are the sentence-ending marks the assembler treats as a
// completed sentence, across Latin and CJK scripts.
const terminalRunes = ".!?…。！？"

func EndsInTerminalPunctuation(s string) bool {
	trimmed := strings.TrimRight(s, " ")
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	return strings.ContainsRune(terminalRunes, runes[len(runes)-1])
}
