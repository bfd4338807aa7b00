package db

import (
	"context"

	obslogger "github.com/smallbiznis/claimdocs/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("db",
	fx.Provide(FromAppConfig),
	fx.Provide(provideDB),
)

func provideDB(lc fx.Lifecycle, cfg Config, log *zap.Logger) (*gorm.DB, error) {
	conn, err := Open(cfg, Options{
		Logger:  obslogger.NewGormLogger(log, obslogger.DefaultGormLoggerConfig()),
		Tracing: true,
		Metrics: cfg.Type != TypeSQLite,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return conn, nil
}

