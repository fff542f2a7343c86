package subtitle

import (
	"strings"
	"testing"
	"time"
)

func newTestAssembler(start time.Time) (*Assembler, *time.Time) {
	now := start
	a := NewAssembler()
	a.now = func() time.Time { return now }
	return a, &now
}

func TestProcess_EmptyInputIsNoOp(t *testing.T) {
	a := NewAssembler()
	if _, ok := a.Process("r:s", "   ", "en", true); ok {
		t.Fatal("expected whitespace-only input to be dropped")
	}
	if _, ok := a.Process("r:s", "", "en", false); ok {
		t.Fatal("expected empty interim to be dropped")
	}
}

func TestProcess_InterimReturnsRawText(t *testing.T) {
	a := NewAssembler()
	a.Process("r:s", "Hello", "en", true)

	update, ok := a.Process("r:s", "  how   are ", "en", false)
	if !ok {
		t.Fatal("expected interim to pass through")
	}
	if update.Text != "how are" {
		t.Fatalf("interim must carry processed raw text, got %q", update.Text)
	}
	if update.IsFinal {
		t.Fatal("interim marked final")
	}
}

func TestProcess_FillerOnlyInterimSuppressed(t *testing.T) {
	a := NewAssembler()
	if _, ok := a.Process("r:s", "um uh", "en", false); ok {
		t.Fatal("expected filler-only interim to be suppressed")
	}
}

func TestProcess_FillerOnlyFinalYieldsMarker(t *testing.T) {
	a := NewAssembler()
	update, ok := a.Process("r:s", "um uh hmm", "en", true)
	if !ok {
		t.Fatal("expected filler-only final to produce an update")
	}
	if update.Text != FillerMarker {
		t.Fatalf("expected canonical marker, got %q", update.Text)
	}
	if !update.IsFillerOnly || !update.IsFinal {
		t.Fatalf("unexpected flags: %+v", update)
	}
}

func TestProcess_FillerFinalDoesNotBreakSentence(t *testing.T) {
	a := NewAssembler()
	a.Process("r:s", "I was thinking", "en", true)
	a.Process("r:s", "um", "en", true)
	update, _ := a.Process("r:s", "about dinner.", "en", true)
	if update.Text != "I was thinking about dinner." {
		t.Fatalf("filler burst corrupted the buffer: %q", update.Text)
	}
}

func TestProcess_EchoGuard(t *testing.T) {
	a := NewAssembler()
	if _, ok := a.Process("r:s", "Hello world", "en", true); !ok {
		t.Fatal("first final should broadcast")
	}
	if _, ok := a.Process("r:s", "hello WORLD", "en", true); ok {
		t.Fatal("case-insensitive duplicate final must be dropped")
	}
	if _, ok := a.Process("r:s", "Hello world again", "en", true); !ok {
		t.Fatal("distinct final should broadcast")
	}
}

func TestProcess_ContinuityConcatenatesWithSingleSpace(t *testing.T) {
	a := NewAssembler()
	a.Process("r:s", "Hi there", "en", true)
	update, _ := a.Process("r:s", "how are you", "en", true)
	if update.Text != "Hi there how are you" {
		t.Fatalf("expected single-space concatenation, got %q", update.Text)
	}
	if strings.Contains(update.Text, "  ") {
		t.Fatalf("double space in %q", update.Text)
	}
}

func TestProcess_IdleTimeoutResetsBuffer(t *testing.T) {
	a, now := newTestAssembler(time.Unix(1000, 0))
	a.Process("r:s", "Hi there", "en", true)
	*now = now.Add(4 * time.Second)
	update, _ := a.Process("r:s", "How are you", "en", true)
	if update.Text != "How are you" {
		t.Fatalf("expected buffer reset after idle, got %q", update.Text)
	}
}

func TestProcess_TerminalPunctuationClearsBuffer(t *testing.T) {
	a := NewAssembler()
	update, _ := a.Process("r:s", "See you later.", "en", true)
	if update.Text != "See you later." {
		t.Fatalf("completed sentence must still broadcast, got %q", update.Text)
	}
	next, _ := a.Process("r:s", "New sentence", "en", true)
	if next.Text != "New sentence" {
		t.Fatalf("expected fresh buffer after terminal punctuation, got %q", next.Text)
	}
}

func TestProcess_MaxLengthClearsBuffer(t *testing.T) {
	a := NewAssembler()
	long := strings.Repeat("wordy ", 40) // > 200 chars, no terminal punctuation
	update, _ := a.Process("r:s", long, "en", true)
	if update.Text == "" {
		t.Fatal("overlong utterance must still broadcast")
	}
	next, _ := a.Process("r:s", "short", "en", true)
	if next.Text != "short" {
		t.Fatalf("expected fresh buffer after max length, got %q", next.Text)
	}
}

func TestProcess_SpeakersAreIndependent(t *testing.T) {
	a := NewAssembler()
	a.Process("r:alice", "Hello", "en", true)
	update, _ := a.Process("r:bob", "Goodbye", "en", true)
	if update.Text != "Goodbye" {
		t.Fatalf("speaker buffers bled into each other: %q", update.Text)
	}
}

func TestForget_DropsRoomBuffers(t *testing.T) {
	a := NewAssembler()
	a.Process(SpeakerKey("room1", "alice"), "Hello", "en", true)
	a.Process(SpeakerKey("room2", "carol"), "Hi", "en", true)
	a.Forget("room1:")

	// A duplicate of the forgotten final must now pass the echo guard.
	if _, ok := a.Process(SpeakerKey("room1", "alice"), "Hello", "en", true); !ok {
		t.Fatal("expected buffer for room1 to be forgotten")
	}
	if _, ok := a.Process(SpeakerKey("room2", "carol"), "Hi", "en", true); ok {
		t.Fatal("room2 buffer should have survived")
	}
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("user-1", Update{Text: "Hello.", DetectedLang: "en", IsFinal: true})
	if ev.Type != "subtitle" || ev.Status != StatusComplete || ev.OriginalFull != "Hello." {
		t.Fatalf("unexpected event: %+v", ev)
	}
	interim := NewEvent("user-1", Update{Text: "Hel", DetectedLang: "en"})
	if interim.Status != StatusProcessing {
		t.Fatalf("expected processing status, got %s", interim.Status)
	}
}
