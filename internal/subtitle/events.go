package subtitle

// Wire events delivered to room connections. Fast path first, then one
// translation event per distinct target language, correlated by
// OriginalFull plus SenderID.

type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
)

type Event struct {
	Type         string `json:"type"`
	Status       Status `json:"status"`
	SenderID     string `json:"senderId"`
	OriginalFull string `json:"originalFull"`
	OriginalLang string `json:"originalLang"`
	IsFiller     bool   `json:"isFiller"`
}

type TranslationEvent struct {
	Type         string `json:"type"`
	OriginalFull string `json:"originalFull"`
	SenderID     string `json:"senderId"`
	Translated   string `json:"translated"`
	TargetLang   string `json:"targetLang"`
}

func NewEvent(senderID string, update Update) Event {
	status := StatusProcessing
	if update.IsFinal {
		status = StatusComplete
	}
	return Event{
		Type:         "subtitle",
		Status:       status,
		SenderID:     senderID,
		OriginalFull: update.Text,
		OriginalLang: update.DetectedLang,
		IsFiller:     update.IsFillerOnly,
	}
}

func NewTranslationEvent(senderID, originalFull, translated, targetLang string) TranslationEvent {
	return TranslationEvent{
		Type:         "subtitle_translation",
		OriginalFull: originalFull,
		SenderID:     senderID,
		Translated:   translated,
		TargetLang:   targetLang,
	}
}
