package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoroom/captiond/internal/bus"
	"github.com/lingoroom/captiond/internal/config"
	"github.com/samber/do/v2"
)

const redisInitTimeout = 10 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*RedisBus, error) {
		cfg := do.MustInvoke[*config.Config](i)
		b, err := NewRedisBus(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), redisInitTimeout)
		defer cancel()
		if err := b.Ping(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return b, nil
	})
	do.Provide(injector, func(i do.Injector) (bus.Queue, error) {
		return do.MustInvoke[*RedisBus](i), nil
	})
	do.Provide(injector, func(i do.Injector) (bus.Publisher, error) {
		return do.MustInvoke[*RedisBus](i), nil
	})
}
