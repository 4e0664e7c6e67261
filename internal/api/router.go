package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/quota-backend-go/internal/config"
	"github.com/jengzang/quota-backend-go/internal/handler"
	"github.com/jengzang/quota-backend-go/internal/middleware"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"go.uber.org/zap"
)

// Handlers 路由依赖的全部 handler
type Handlers struct {
	Analytics *handler.AnalyticsHandler
	Priority  *handler.PriorityHandler
	Activity  *handler.ActivityHandler
}

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Metrics,
	limiter *middleware.RateLimiter,
	h Handlers,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger), metrics.Middleware())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Quota Backend API is running",
		})
	})

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API 路由组（需要登录）
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}
	{
		// 统计分析
		analytics := api.Group("/analytics")
		{
			analytics.GET("/overview", h.Analytics.GetOverview)
			analytics.GET("/sliding-window", h.Analytics.GetSlidingWindow)
			analytics.GET("/quota", h.Analytics.GetQuota)
		}

		// 任务优先级
		api.POST("/priorities/refresh", h.Priority.Refresh)
		api.GET("/tasks/sorted", h.Priority.GetSortedTasks)
		api.PUT("/tasks/:type/:id/active", h.Activity.SetTaskActive)

		// 工作记录
		records := api.Group("/work-records")
		{
			records.POST("", h.Activity.CreateWorkRecord)
			records.PUT("/:id", h.Activity.UpdateWorkRecord)
			records.DELETE("/:id", h.Activity.DeleteWorkRecord)
		}

		// 会议与例行任务
		api.POST("/meetings/:id/complete", h.Activity.CompleteMeeting)
		api.PUT("/routine-instances/:id/status", h.Activity.SetRoutineStatus)
	}

	return r
}
