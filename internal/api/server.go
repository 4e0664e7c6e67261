package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/jengzang/quota-backend-go/internal/config"
	"github.com/jengzang/quota-backend-go/internal/handler"
	"github.com/jengzang/quota-backend-go/internal/middleware"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerParams 服务器依赖
type ServerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Analytics *handler.AnalyticsHandler
	Priority  *handler.PriorityHandler
	Activity  *handler.ActivityHandler
}

// NewHTTPServer 创建 HTTP 服务器并注册生命周期
func NewHTTPServer(p ServerParams) *http.Server {
	var limiter *middleware.RateLimiter
	if p.Config.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(p.Config.RateLimit, p.Config.RateLimitWindow)
	}

	router := SetupRouter(p.Config, p.Logger, p.Metrics, limiter, Handlers{
		Analytics: p.Analytics,
		Priority:  p.Priority,
		Activity:  p.Activity,
	})

	server := &http.Server{
		Addr:    p.Config.Port,
		Handler: router,
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			p.Logger.Info("server starting", zap.String("addr", server.Addr))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if limiter != nil {
				limiter.Close()
			}
			return server.Shutdown(ctx)
		},
	})

	return server
}

// Module 提供 handler 并启动 HTTP 服务器
var Module = fx.Module("api",
	fx.Provide(
		handler.NewAnalyticsHandler,
		handler.NewPriorityHandler,
		handler.NewActivityHandler,
	),
	fx.Invoke(NewHTTPServer),
)
