package phrasecache

import (
	"github.com/lingoroom/captiond/internal/phrasecache"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (phrasecache.Cache, error) {
		return NewMemoryCache(), nil
	})
}
