// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Corphon/SceneWriter/internal/api"
	"github.com/Corphon/SceneWriter/internal/config"
	"github.com/Corphon/SceneWriter/internal/di"
	_ "github.com/Corphon/SceneWriter/internal/llm/providers/openai"
	_ "github.com/Corphon/SceneWriter/internal/llm/providers/openrouter"
	"github.com/Corphon/SceneWriter/internal/services"
	"github.com/Corphon/SceneWriter/internal/storage"
	"github.com/Corphon/SceneWriter/internal/utils"
)

// Assist task bookkeeping
const (
	taskCleanupInterval = 5 * time.Minute
	taskMaxAge          = 30 * time.Minute
	shutdownTimeout     = 30 * time.Second
)

// httpServer is the part of *http.Server the app drives.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用程序结构
type App struct {
	config   *config.AppConfig
	router   http.Handler
	server   httpServer
	stopChan chan os.Signal

	ctx    context.Context
	cancel context.CancelFunc
}

var (
	instance   *App
	instanceMu sync.Mutex
)

// GetApp 获取应用实例（单例）
func GetApp() *App {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		ctx, cancel := context.WithCancel(context.Background())
		instance = &App{
			stopChan: make(chan os.Signal, 1),
			ctx:      ctx,
			cancel:   cancel,
		}
	}
	return instance
}

// InitServices 按依赖顺序创建服务并注册到容器
func InitServices(base *config.Config) error {
	app := GetApp()
	cfg := config.GetCurrentConfig()
	app.config = cfg
	if app.ctx == nil {
		app.ctx, app.cancel = context.WithCancel(context.Background())
	}

	container := di.GetContainer()

	// 1. 指标与事件
	metrics := utils.NewEditorMetrics(nil)
	container.Register("metrics", metrics)

	hub := api.NewEventHub()
	go hub.Run(app.ctx)
	container.Register("hub", hub)

	// 2. 存储
	store, err := storage.OpenDocumentStore(cfg.StoreBackend, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	container.Register("store", store)

	// 3. LLM服务
	llmService := services.NewLLMService()
	container.Register("llm", llmService)
	if ready, state := llmService.GetProviderStatus(); !ready {
		utils.GetLogger().Warn("LLM service in standby", utils.Fields{"state": state})
	}

	// 4. 文档与导出
	documents := services.NewDocumentService(store, hub, metrics)
	container.Register("documents", documents)

	exports, err := services.NewExportService(documents, services.ExportOptions{
		ExportDir: cfg.ExportDir,
		Credit:    cfg.FDXCredit,
	}, metrics)
	if err != nil {
		return fmt.Errorf("create export service: %w", err)
	}
	container.Register("exports", exports)

	// 5. AI 协作
	timeout := cfg.AssistTimeout
	if base != nil && base.AssistTimeout > 0 {
		timeout = base.AssistTimeout
	}
	assist := services.NewAssistService(llmService, hub, metrics, timeout)
	assist.StartCleanup(app.ctx, taskCleanupInterval, taskMaxAge)
	container.Register("assist", assist)

	utils.GetLogger().Info("services initialized", utils.Fields{
		"store_backend": cfg.StoreBackend,
		"services":      len(container.GetNames()),
	})
	return nil
}

// Initialize wires services, the router and the HTTP server.
func Initialize(base *config.Config) error {
	if err := InitServices(base); err != nil {
		return err
	}

	router, err := api.SetupRouter()
	if err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	app := GetApp()
	app.router = router
	app.server = &http.Server{
		Addr:              ":" + app.config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run 启动服务器并等待停止信号
func Run() error {
	app := GetApp()
	if app.server == nil {
		return errors.New("application not initialized")
	}

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(app.stopChan)

	serveErr := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		app.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-app.stopChan:
		utils.GetLogger().Info("shutting down", utils.Fields{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := app.server.Shutdown(ctx)
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Stop asks a running Run to shut down.
func Stop() {
	app := GetApp()
	select {
	case app.stopChan <- syscall.SIGTERM:
	default:
	}
}

// cleanup 释放资源
func (a *App) cleanup() {
	if a.cancel != nil {
		a.cancel()
	}

	container := di.GetContainer()
	if handler, ok := container.Get("api").(*api.Handler); ok {
		handler.Close()
	}
	if hub, ok := container.Get("hub").(*api.EventHub); ok {
		hub.Close()
	}
	if exports, ok := container.Get("exports").(*services.ExportService); ok {
		if err := exports.Close(); err != nil {
			utils.GetLogger().Warn("failed to close export storage", utils.Fields{"error": err.Error()})
		}
	}
	if store, ok := container.Get("store").(storage.DocumentStore); ok {
		if err := store.Close(); err != nil {
			utils.GetLogger().Warn("failed to close document store", utils.Fields{"error": err.Error()})
		}
	}
	utils.GetLogger().Info("resources released", nil)
}

// Router returns the HTTP handler built by Initialize.
func (a *App) Router() http.Handler {
	return a.router
}

// GetConfig 获取应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// GetDIContainer 获取依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 检查是否为调试模式
func IsDebugMode() bool {
	instanceMu.Lock()
	app := instance
	instanceMu.Unlock()

	if app == nil || app.config == nil {
		return false
	}
	return app.config.DebugMode
}
