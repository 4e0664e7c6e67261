package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/api"
	"github.com/jengzang/quota-backend-go/internal/cache"
	"github.com/jengzang/quota-backend-go/internal/config"
	"github.com/jengzang/quota-backend-go/internal/database"
	"github.com/jengzang/quota-backend-go/internal/logger"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"github.com/jengzang/quota-backend-go/internal/repository"
	"github.com/jengzang/quota-backend-go/internal/service"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.Load,              // 加载配置
			newLogger,                // 日志
			newLocation,              // 业务时区
			openDatabase,             // SQLite
			observability.NewMetrics, // Prometheus 指标
			newCache,                 // 缓存后端
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		repository.Module,
		service.Module,
		api.Module,
	)
	app.Run()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel)
}

func newLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Location()
}

func openDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*sql.DB, error) {
	db, err := database.Open(database.Config{Path: cfg.DBPath}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

// newCache selects the response cache backend: memory, redis or none
func newCache(lc fx.Lifecycle, cfg *config.Config, metrics *observability.Metrics, log *zap.Logger) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case "memory", "":
		mem := cache.NewMemory(cfg.CacheTTL, metrics)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				mem.Close()
				return nil
			},
		})
		return mem, nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
		return cache.NewRedis(client, cfg.CacheTTL, metrics, log), nil
	case "none":
		return cache.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
