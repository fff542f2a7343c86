package dispatch

import (
	"github.com/lingoroom/captiond/internal/bus"
	"github.com/lingoroom/captiond/internal/config"
	"github.com/lingoroom/captiond/internal/repository"
	"github.com/lingoroom/captiond/internal/room"
	"github.com/lingoroom/captiond/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Worker, error) {
		cfg := do.MustInvoke[*config.Config](i)
		queue := do.MustInvoke[bus.Queue](i)
		repo := do.MustInvoke[repository.Repository](i)
		hybrid := do.MustInvoke[*translator.Hybrid](i)
		registry := do.MustInvoke[*room.Registry](i)
		publisher := do.MustInvoke[bus.Publisher](i)
		return NewWorker(queue, repo, hybrid, registry, publisher, cfg.DispatchConcurrency), nil
	})
}
