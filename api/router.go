package api

import (
	"net/http"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/auth"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/leaderboard"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/health"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/metrics"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/realtime"
	"github.com/SlpAus/nebula-leaderboard-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handlers 汇集注册路由所需的全部处理器。
// 所有依赖都在main中构造后注入，路由层不持有任何全局状态。
type Handlers struct {
	Leaderboard *leaderboard.Handler
	Auth        *auth.Handler
	Realtime    *realtime.Handler
	Metrics     *metrics.Collector
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h Handlers) {
	// 根路由：服务信息
	router.GET("/", func(c *gin.Context) {
		response.JSON(c, http.StatusOK, gin.H{"service": "nebula-leaderboard"}, "ok")
	})

	// 健康检查：存储不可达时报503
	router.GET("/healthz", func(c *gin.Context) {
		if health.GetState() == health.StateHealthy {
			response.JSON(c, http.StatusOK, nil, "healthy")
			return
		}
		response.JSON(c, http.StatusServiceUnavailable, nil, "degraded")
	})

	// 排行榜相关的路由组 /leaderboard
	leaderboardRoutes := router.Group("/leaderboard")
	{
		leaderboardRoutes.POST("/score", h.Leaderboard.SubmitScore)
		leaderboardRoutes.DELETE("/score/:id", h.Leaderboard.DeleteScore)
		leaderboardRoutes.GET("/top", h.Leaderboard.TopScore)
		leaderboardRoutes.GET("/all", h.Leaderboard.ListScores)
	}

	// 认证相关的路由组 /auth
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/confirm", h.Auth.Confirm)
	}

	// 实时推送接入（仅内置网关模式下注册）
	if h.Realtime != nil {
		router.GET("/realtime/connect", h.Realtime.Connect)
	}

	// Prometheus指标
	if h.Metrics != nil {
		router.GET("/metrics", h.Metrics.Handler())
	}
}
