// Package routers 组装 HTTP 与 WebSocket 路由
package routers

import (
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/app"
	"github.com/haierkeys/pd-clipper-service/internal/domain"
	"github.com/haierkeys/pd-clipper-service/internal/middleware"
	"github.com/haierkeys/pd-clipper-service/internal/routers/api_router"
	"github.com/haierkeys/pd-clipper-service/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/pd-clipper-service/pkg/app"
	"github.com/haierkeys/pd-clipper-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/api/topic",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
	limiter.BucketRule{
		Key:          "/api/image/extract",
		FillInterval: time.Second,
		Capacity:     5,
		Quantum:      5,
	},
)

// NewRouter 创建路由，注入 App Container 与翻译器
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:  true,
			ParallelEnabled:   true,                                 // 开启并行消息处理
			Recovery:          gws.Recovery,                         // 开启异常恢复
			PermessageDeflate: gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:   8,
		},
	})

	// 创建 WebSocket Handler（注入 App Container），同时订阅导出事件
	consoleWSHandler := websocket_router.NewConsoleWSHandler(appContainer, wss)

	// 导出状态拉取
	wss.Use("ExportStatus", consoleWSHandler.ExportStatus)
	// 画板快照拉取
	wss.Use("Board", consoleWSHandler.Board)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(gin.Logger())
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		boardHandler := api_router.NewBoardHandler(appContainer, wss)
		imageHandler := api_router.NewImageHandler(appContainer, wss)
		exportHandler := api_router.NewExportHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		// 控制台事件流
		api.GET("/console", wss.Run())

		// 画板与主题
		api.POST("/topic", boardHandler.Search)
		api.DELETE("/topic", boardHandler.Remove)
		api.POST("/topic/select", boardHandler.Select)
		api.GET("/board", boardHandler.Board)

		// 单图抠图
		api.POST("/image/extract", imageHandler.Extract)

		// 批量导出
		api.POST("/export", exportHandler.Start)
		api.GET("/export/status", exportHandler.Status)
		api.GET("/export/download", exportHandler.Download)

		// 系统信息
		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	// 启动时自动检索演示主题
	appContainer.SeedBootstrapTopic(func(topic domain.Topic) {
		wss.Broadcast("TopicResolved", topic)
	})

	return r
}
