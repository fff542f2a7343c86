package recognizer

import "context"

// Result is one recognizer emission: interim hypotheses stream in with
// IsFinal false, then a final stabilizes the segment. DetectedLang is the
// recognizer's language tag for the segment.
type Result struct {
	Text         string
	DetectedLang string
	IsFinal      bool
}

// EventReceiver takes recognizer callbacks. They arrive on the recognizer's
// own goroutine; implementations must hand them off rather than mutate
// shared state directly.
type EventReceiver interface {
	OnResult(result Result)

	// OnCancelled signals a hard stream failure. The recognition session is
	// over; the connection itself stays up.
	OnCancelled(reason error)
}

type StreamWriter interface {
	Write(pcm []byte) error
	Close() error
}

// Recognizer is the continuous speech-recognition boundary. At most four
// candidate languages may be supplied per stream.
type Recognizer interface {
	StartStreaming(ctx context.Context, sessionID string, candidateLanguages []string, receiver EventReceiver) (StreamWriter, error)
}
