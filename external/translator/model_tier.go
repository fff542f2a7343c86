package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lingoroom/captiond/internal/translator"
)

const tierRequestTimeout = 10 * time.Second

// ModelTier calls one hosted translation model over HTTP. Tiers share the
// same endpoint and differ only in the model they request, ordered
// fastest and cheapest first by configuration.
type ModelTier struct {
	model   string
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewModelTier(model, baseURL, apiKey string) *ModelTier {
	return &ModelTier{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: tierRequestTimeout},
	}
}

func (t *ModelTier) Name() string { return t.model }

type translateRequest struct {
	Model      string `json:"model"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Text       string `json:"text"`
}

type translateResponse struct {
	TranslatedText     string `json:"translated_text"`
	DetectedSourceLang string `json:"detected_source_lang"`
}

func (t *ModelTier) Translate(ctx context.Context, text, sourceLang, targetLang string) (translator.TierResult, error) {
	body, err := t.post(ctx, "/translate", translateRequest{
		Model:      t.model,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Text:       text,
	})
	if err != nil {
		return translator.TierResult{}, err
	}

	var resp translateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return translator.TierResult{}, fmt.Errorf("tier %s returned malformed JSON: %w", t.model, err)
	}
	return translator.TierResult{
		TranslatedText:     strings.TrimSpace(resp.TranslatedText),
		DetectedSourceLang: resp.DetectedSourceLang,
	}, nil
}

func (t *ModelTier) post(ctx context.Context, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tier %s request failed: %w", t.model, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusForbidden, http.StatusUnauthorized, http.StatusNotFound:
		return nil, fmt.Errorf("tier %s returned status %d: %w", t.model, resp.StatusCode, translator.ErrTierUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tier %s returned status %d", t.model, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Language string `json:"language"`
}

// HTTPDetector resolves "auto" source hints against the same translation
// service.
type HTTPDetector struct {
	tier *ModelTier
}

func NewHTTPDetector(model, baseURL, apiKey string) *HTTPDetector {
	return &HTTPDetector{tier: NewModelTier(model, baseURL, apiKey)}
}

func (d *HTTPDetector) DetectLanguage(ctx context.Context, text string) (string, error) {
	body, err := d.tier.post(ctx, "/detect", detectRequest{Text: text})
	if err != nil {
		return "", err
	}
	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("detect returned malformed JSON: %w", err)
	}
	if resp.Language == "" {
		return "", fmt.Errorf("detect returned no language")
	}
	return resp.Language, nil
}
