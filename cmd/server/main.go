// cmd/server/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/SceneWriter/internal/app"
	"github.com/Corphon/SceneWriter/internal/config"
	"github.com/Corphon/SceneWriter/internal/di"
	"github.com/Corphon/SceneWriter/internal/utils"
)

func main() {
	log.Println("🚀 启动 SceneWriter 服务器...")

	// 1. 首先加载基础配置
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	log.Printf("✅ 基础配置加载完成，端口: %s", baseConfig.Port)

	if !baseConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 创建必要的目录
	if err := createDirectories(baseConfig); err != nil {
		log.Fatalf("创建目录失败: %v", err)
	}

	// 3. 日志
	logger := utils.GetLogger()
	logger.SetLogLevel(utils.ParseLogLevel(baseConfig.LogLevel))
	logFile := filepath.Join(baseConfig.LogDir, fmt.Sprintf("server_%s.log", time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		log.Printf("⚠️ 无法写入日志文件，仅输出到控制台: %v", err)
	}
	defer logger.Close()

	// 4. 初始化配置系统
	if err := config.InitConfig(baseConfig); err != nil {
		log.Fatalf("初始化配置系统失败: %v", err)
	}
	log.Println("✅ 配置系统初始化完成")

	// 5. 初始化服务与路由
	if err := app.Initialize(baseConfig); err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	if err := performHealthCheck(); err != nil {
		log.Printf("⚠️ 服务健康检查警告: %v", err)
	}

	log.Printf("🌐 服务器启动在端口 %s (存储: %s)", baseConfig.Port, baseConfig.StoreBackend)
	log.Printf("🔗 访问地址: http://localhost:%s", baseConfig.Port)

	// 6. 运行直到收到停止信号
	if err := app.Run(); err != nil {
		log.Fatalf("❌ 服务器异常退出: %v", err)
	}
	log.Println("✅ 服务器优雅关闭完成")
}

// 健康检查函数
func performHealthCheck() error {
	container := di.GetContainer()

	for _, name := range []string{"store", "llm", "documents", "exports", "assist", "hub"} {
		if !container.Has(name) {
			return fmt.Errorf("关键服务未注册: %s", name)
		}
	}
	return nil
}

// createDirectories 创建应用所需的目录结构
func createDirectories(cfg *config.Config) error {
	dirs := []string{cfg.DataDir, cfg.LogDir}
	if cfg.ExportDir != "" {
		dirs = append(dirs, cfg.ExportDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%s: %w", dir, err)
		}
	}
	return nil
}
