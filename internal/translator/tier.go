package translator

import (
	"context"
	"errors"
)

// ErrTierUnavailable marks a tier failure that is expected under load:
// rate limiting, permission denial, or an unknown model. The hybrid
// translator falls through to the next tier without treating these as
// faults worth remembering.
var ErrTierUnavailable = errors.New("translation tier unavailable")

// TierResult is the structured response of one external translation model.
type TierResult struct {
	TranslatedText     string
	DetectedSourceLang string
}

// Tier is one external translation model, ordered fastest and cheapest
// first in the fallback chain.
type Tier interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string) (TierResult, error)
}

// Detector resolves an "auto" source-language hint before translation.
type Detector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}
