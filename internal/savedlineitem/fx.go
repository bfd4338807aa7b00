package savedlineitem

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/claimdocs/internal/config"
	docdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/savedlineitem/cache"
	savedlineitemdomain "github.com/smallbiznis/claimdocs/internal/savedlineitem/domain"
	"github.com/smallbiznis/claimdocs/internal/savedlineitem/repository"
	"github.com/smallbiznis/claimdocs/internal/savedlineitem/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("savedlineitem.service",
	fx.Provide(provideRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(s savedlineitemdomain.Service) docdomain.SavedItemSource { return s }),
)

// provideRepository wraps the table in the Redis cache when REDIS_ADDR is set.
func provideRepository(lc fx.Lifecycle, db *gorm.DB, cfg config.Config, log *zap.Logger) savedlineitemdomain.Repository {
	base := repository.NewRepository(db)
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return base
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return cache.NewRepository(base, client, cfg.Redis.CacheTTL, log)
}
