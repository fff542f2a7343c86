package auth

import (
	"context"
	"log/slog"

	"github.com/lingoroom/captiond/internal/auth"
	"github.com/lingoroom/captiond/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (auth.Verifier, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.AuthVerifyURL == "" && cfg.IsDevelopment() {
			slog.Warn("AUTH_VERIFY_URL not set; accepting any token as its own user id (development only)")
			return insecureVerifier{}, nil
		}
		return NewHTTPVerifier(cfg.AuthVerifyURL), nil
	})
}

// insecureVerifier treats the token itself as the user id. Development only.
type insecureVerifier struct{}

func (insecureVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return auth.Identity{UserID: token, DisplayName: token}, nil
}
