package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/nebula-leaderboard-backend/api"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/auth"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/identity"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/leaderboard"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/notify"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/config"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/database"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/health"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/logger"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/metrics"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/search"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/shutdown"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/realtime"
	"github.com/SlpAus/nebula-leaderboard-backend/pkg/lifecycle"
	"github.com/SlpAus/nebula-leaderboard-backend/pkg/sessioncrypto"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 1. 加载.env和配置文件
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败，无法启动: %v", err))
	}
	logger.Init(cfg.Server.Mode)
	gin.SetMode(cfg.Server.Mode)

	// 2. 连接外部存储并执行一次启动健康检查
	if err := database.InitRedis(cfg.Database.Redis); err != nil {
		panic("无法连接到Redis: " + err.Error())
	}
	logger.Log.Info().Str("address", cfg.Database.Redis.Address).Msg("Redis连接成功")
	health.PerformCheck()

	// 3. 创建两阶段停机的生命周期管理器
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	// 4. 启动后台健康检查器
	healthHandle, err := gracefulMgr.NewServiceHandle("health-checker")
	if err != nil {
		panic(err)
	}
	go health.StartStoreHealthCheck(healthHandle)

	// 5. 可选：访问日志外送到搜索索引
	var sink logger.AccessSink
	if cfg.Search.Active {
		searchClient := search.NewClient(cfg.Search.URL, cfg.Search.Username, cfg.Search.Password, 10*time.Second)
		shipper := search.NewShipper(searchClient, cfg.Search.IndexPrefix)
		shipperHandle, err := gracefulMgr.NewServiceHandle("access-log-shipper")
		if err != nil {
			panic(err)
		}
		go shipper.Run(shipperHandle)
		sink = shipper
		logger.Log.Info().Str("url", cfg.Search.URL).Msg("访问日志外送已启用")
	}

	// 6. 实时推送通道：内置Hub或托管网关管理接口
	var poster notify.ConnectionPoster
	var realtimeHandler *realtime.Handler
	if cfg.Realtime.Mode == "gateway" && cfg.Realtime.Endpoint != "" {
		poster = realtime.NewManagementClient(cfg.Realtime.Endpoint, 10*time.Second)
		logger.Log.Info().Str("endpoint", cfg.Realtime.Endpoint).Msg("使用托管网关投递高分通知")
	} else {
		hub := realtime.NewHub()
		poster = hub
		realtimeHandler = realtime.NewHandler(hub)
		logger.Log.Info().Msg("使用内置websocket网关投递高分通知")
	}

	// 7. 装配通知分发、排行榜和认证组件
	collector := metrics.NewCollector()
	dispatcher := notify.NewDispatcher(notify.NewNotifier(poster, collector))
	dispatcherHandle, err := gracefulMgr.NewServiceHandle("notify-dispatcher")
	if err != nil {
		panic(err)
	}
	go dispatcher.RunUntilShutdown(dispatcherHandle)

	leaderboardHandler := leaderboard.NewHandler(
		leaderboard.NewService(leaderboard.NewRepository(database.RDB), dispatcher))

	sealer, err := sessioncrypto.NewSealer(cfg.Session.EncryptionKey)
	if err != nil {
		panic("初始化会话加密失败: " + err.Error())
	}
	authHandler := auth.NewHandler(identity.NewClient(cfg.Identity), sealer)

	// 8. 组装gin引擎和中间件
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.AccessLogMiddleware(sink))
	r.Use(collector.Middleware())

	allowedOrigins := cfg.Server.Cors.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "connectionId", "userid", "username"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r, api.Handlers{
		Leaderboard: leaderboardHandler,
		Auth:        authHandler,
		Realtime:    realtimeHandler,
		Metrics:     collector,
	})

	// 9. 启动HTTP服务器并等待停机信号
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}
	go func() {
		logger.Log.Info().Str("address", cfg.Server.Address).Msg("服务器已准备就绪，开始监听")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic("Failed to start server: " + err.Error())
		}
	}()

	shutdown.NewCoordinator(gracefulMgr, forcefulMgr).ListenForSignalsAndShutdown(server)
}
