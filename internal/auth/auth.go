package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when the oracle rejects a bearer credential.
var ErrInvalidToken = errors.New("invalid token")

// Identity is what the authentication oracle resolves a bearer token into.
type Identity struct {
	UserID      string
	DisplayName string
	NativeLang  string
}

// Verifier is the authentication boundary. Token issuance and JWT mechanics
// live in a separate service; this side only exchanges a credential for an
// identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
