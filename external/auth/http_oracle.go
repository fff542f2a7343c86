package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lingoroom/captiond/internal/auth"
)

const verifyTimeout = 5 * time.Second

// HTTPVerifier asks the platform's auth service to resolve a bearer token.
type HTTPVerifier struct {
	verifyURL string
	client    *http.Client
}

func NewHTTPVerifier(verifyURL string) auth.Verifier {
	return &HTTPVerifier{
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: verifyTimeout},
	}
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	NativeLang  string `json:"native_lang"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	b, err := json.Marshal(verifyRequest{Token: token})
	if err != nil {
		return auth.Identity{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(b))
	if err != nil {
		return auth.Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("auth verify request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return auth.Identity{}, fmt.Errorf("auth verify returned status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return auth.Identity{}, fmt.Errorf("decode auth verify response: %w", err)
	}
	if body.UserID == "" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return auth.Identity{
		UserID:      body.UserID,
		DisplayName: body.DisplayName,
		NativeLang:  body.NativeLang,
	}, nil
}
