package ws

import (
	"github.com/lingoroom/captiond/internal/auth"
	"github.com/lingoroom/captiond/internal/config"
	"github.com/lingoroom/captiond/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		verifier := do.MustInvoke[auth.Verifier](i)
		manager := do.MustInvoke[*session.Manager](i)
		return NewServer(cfg, verifier, manager), nil
	})
}
