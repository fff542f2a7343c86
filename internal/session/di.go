package session

import (
	"github.com/lingoroom/captiond/internal/audio"
	"github.com/lingoroom/captiond/internal/config"
	"github.com/lingoroom/captiond/internal/recognizer"
	"github.com/lingoroom/captiond/internal/room"
	"github.com/lingoroom/captiond/internal/subtitle"
	"github.com/lingoroom/captiond/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*room.Registry, error) {
		return room.NewRegistry(), nil
	})
	do.Provide(injector, func(i do.Injector) (*subtitle.Assembler, error) {
		return subtitle.NewAssembler(), nil
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		registry := do.MustInvoke[*room.Registry](i)
		assembler := do.MustInvoke[*subtitle.Assembler](i)
		rec := do.MustInvoke[recognizer.Recognizer](i)
		hybrid := do.MustInvoke[*translator.Hybrid](i)
		newDecoder := do.MustInvoke[audio.DecoderFactory](i)
		return NewManager(cfg, registry, assembler, rec, hybrid, newDecoder), nil
	})
}
