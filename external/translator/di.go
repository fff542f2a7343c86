package translator

import (
	"github.com/lingoroom/captiond/internal/config"
	"github.com/lingoroom/captiond/internal/phrasecache"
	"github.com/lingoroom/captiond/internal/repository"
	"github.com/lingoroom/captiond/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) ([]translator.Tier, error) {
		cfg := do.MustInvoke[*config.Config](i)
		tiers := make([]translator.Tier, 0, len(cfg.TranslationTierModels))
		for _, model := range cfg.TranslationTierModels {
			tiers = append(tiers, NewModelTier(model, cfg.TranslationAPIURL, cfg.TranslationAPIKey))
		}
		return tiers, nil
	})
	do.Provide(injector, func(i do.Injector) (translator.Detector, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewHTTPDetector(cfg.TranslationTierModels[0], cfg.TranslationAPIURL, cfg.TranslationAPIKey), nil
	})
	do.Provide(injector, func(i do.Injector) (*translator.Hybrid, error) {
		cfg := do.MustInvoke[*config.Config](i)
		cache := do.MustInvoke[phrasecache.Cache](i)
		repo := do.MustInvoke[repository.Repository](i)
		tiers := do.MustInvoke[[]translator.Tier](i)
		detector := do.MustInvoke[translator.Detector](i)
		return translator.NewHybrid(cache, repo, tiers, detector, cfg.DefaultLanguage), nil
	})
}
