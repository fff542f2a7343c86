package subtitle

import (
	"strings"
	"sync"
	"time"

	"github.com/lingoroom/captiond/internal/language"
)

const (
	// FillerMarker replaces filler-only final utterances so clients can show
	// that a speaker is talking without captioning the filler itself.
	FillerMarker = "…"

	maxSentenceLength = 200
	idleTimeout       = 3 * time.Second
)

// Update is what the assembler hands back for broadcast.
type Update struct {
	Text         string
	DetectedLang string
	IsFinal      bool
	IsFillerOnly bool
}

type utteranceBuffer struct {
	assembled  string
	lastFinal  string
	lastSpeech time.Time
}

// Assembler turns raw recognizer emissions into displayable utterances, one
// buffer per (room, speaker) key. Buffers are created lazily and dropped
// with Forget when the speaker's room goes away.
type Assembler struct {
	mu      sync.Mutex
	buffers map[string]*utteranceBuffer
	now     func() time.Time
}

func NewAssembler() *Assembler {
	return &Assembler{
		buffers: make(map[string]*utteranceBuffer),
		now:     time.Now,
	}
}

// Process applies one recognizer event. The returned bool is false when the
// event should not be broadcast at all: empty input, filler-only interims,
// and echoed duplicate finals.
func (a *Assembler) Process(speakerKey, rawText, detectedLang string, isFinal bool) (Update, bool) {
	normalized := strings.Join(strings.Fields(rawText), " ")
	if normalized == "" {
		return Update{}, false
	}

	tokens := language.Tokenize(normalized, detectedLang)
	fillerOnly := language.IsFillerOnly(tokens, detectedLang)

	if !isFinal {
		if fillerOnly {
			return Update{}, false
		}
		// Interims carry the processed raw text, never the growing sentence.
		return Update{Text: normalized, DetectedLang: detectedLang}, true
	}

	if fillerOnly {
		// The buffer is left alone: a filler burst must not break an
		// in-progress sentence.
		return Update{Text: FillerMarker, DetectedLang: detectedLang, IsFinal: true, IsFillerOnly: true}, true
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	buf, ok := a.buffers[speakerKey]
	if !ok {
		buf = &utteranceBuffer{}
		a.buffers[speakerKey] = buf
	}

	// Recognizers occasionally re-emit the final they just delivered.
	if strings.EqualFold(normalized, buf.lastFinal) {
		return Update{}, false
	}

	now := a.now()
	if !buf.lastSpeech.IsZero() && now.Sub(buf.lastSpeech) > idleTimeout {
		buf.assembled = ""
	}

	if buf.assembled == "" {
		buf.assembled = normalized
	} else {
		buf.assembled += " " + normalized
	}
	buf.lastFinal = normalized
	buf.lastSpeech = now

	text := buf.assembled
	if language.EndsInTerminalPunctuation(text) || len([]rune(text)) > maxSentenceLength {
		buf.assembled = ""
	}

	return Update{Text: text, DetectedLang: detectedLang, IsFinal: true}, true
}

// Forget drops every buffer whose speaker key starts with the given prefix.
// Keys are "roomID:speakerID", so passing "roomID:" clears a whole room.
func (a *Assembler) Forget(prefix string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.buffers {
		if strings.HasPrefix(key, prefix) {
			delete(a.buffers, key)
		}
	}
}

// SpeakerKey builds the buffer key for a speaker within a room.
func SpeakerKey(roomID, speakerID string) string {
	return roomID + ":" + speakerID
}
