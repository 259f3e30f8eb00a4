// internal/api/router.go
package api

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/SceneWriter/internal/config"
	"github.com/Corphon/SceneWriter/internal/di"
	"github.com/Corphon/SceneWriter/internal/services"
	"github.com/Corphon/SceneWriter/internal/utils"
)

// RouterOptions 路由配置
type RouterOptions struct {
	StaticDir        string
	AssistRatePerMin int
	AssistBurst      int
	Logging          bool
}

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()

	// 获取依赖注入容器
	container := di.GetContainer()

	documents, err := di.Resolve[*services.DocumentService](container, "documents")
	if err != nil {
		return nil, err
	}
	exports, err := di.Resolve[*services.ExportService](container, "exports")
	if err != nil {
		return nil, err
	}
	assist, err := di.Resolve[*services.AssistService](container, "assist")
	if err != nil {
		return nil, err
	}
	llmService, err := di.Resolve[*services.LLMService](container, "llm")
	if err != nil {
		return nil, err
	}
	hub, err := di.Resolve[*EventHub](container, "hub")
	if err != nil {
		return nil, err
	}
	metrics, _ := container.GetTyped("metrics", utils.NewEditorMetrics(nil)).(*utils.EditorMetrics)

	handler := NewHandler(documents, exports, assist, llmService, hub, metrics)
	handler.StoreBackend = cfg.StoreBackend

	router := NewRouter(handler, RouterOptions{
		StaticDir:        cfg.StaticDir,
		AssistRatePerMin: cfg.AssistRatePerMin,
		Logging:          cfg.DebugMode,
	})
	container.Register("api", handler)
	return router, nil
}

// NewRouter registers every route on a fresh engine. The handler owns the
// assist rate limiter; call handler.Close when the router is retired.
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	if opts.Logging {
		r.Use(gin.Logger())
	}
	r.Use(RequestLogMiddleware(handler.Metrics))

	// 启用CORS
	r.Use(corsMiddleware())

	// 静态文件服务
	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			r.Static("/static", opts.StaticDir)
			r.StaticFile("/", filepath.Join(opts.StaticDir, "index.html"))
		}
	}

	if opts.AssistRatePerMin <= 0 {
		opts.AssistRatePerMin = config.DefaultAssistRatePerMin
	}
	if opts.AssistBurst <= 0 {
		opts.AssistBurst = 5
	}
	handler.Close()
	handler.assistLimiter = NewRateLimiter(opts.AssistRatePerMin, opts.AssistBurst)
	assistLimiter := RateLimitByIP(handler.assistLimiter)

	// WebSocket 支持
	r.GET("/ws/editor", handler.EditorWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/metrics", handler.GetMetrics)

		// 文档
		documentGroup := api.Group("/document")
		{
			documentGroup.GET("", handler.LoadDocument)
			documentGroup.PUT("", handler.SaveDocument)
			documentGroup.DELETE("", handler.ClearDocument)
			documentGroup.DELETE("/saved", handler.DiscardSaved)
			documentGroup.GET("/current", handler.GetCurrentDocument)
			documentGroup.PUT("/current", handler.UpdateCurrentDocument)
		}

		// 分类与导出
		api.POST("/classify", handler.Classify)
		exportGroup := api.Group("/export")
		{
			exportGroup.GET("/saved/:format", handler.ExportSaved)
			exportGroup.POST("/:format", handler.Export)
		}

		// AI 协作
		assistGroup := api.Group("/assist")
		{
			assistGroup.POST("", assistLimiter, handler.Ask)
			assistGroup.POST("/tasks", assistLimiter, handler.SubmitAssistTask)
			assistGroup.GET("/tasks", handler.ListAssistTasks)
			assistGroup.GET("/tasks/:id", handler.GetAssistTask)
			assistGroup.POST("/tasks/:id/cancel", handler.CancelAssistTask)
		}
		api.GET("/personas", handler.GetPersonas)

		// LLM配置
		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/status", handler.GetLLMStatus)
			llmGroup.PUT("/config", handler.UpdateLLMConfig)
		}

		api.GET("/ws/status", handler.GetWebSocketStatus)
	}

	return r
}
