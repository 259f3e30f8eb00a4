// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// SettingsFileName is the persisted settings file inside the data directory.
const SettingsFileName = "settings.toml"

// DefaultAssistRatePerMin is the per-client assist request allowance.
const DefaultAssistRatePerMin = 30

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig is the runtime configuration; the LLM section is persisted to
// settings.toml and survives restarts.
type AppConfig struct {
	Port         string `toml:"-"`
	DataDir      string `toml:"-"`
	StaticDir    string `toml:"-"`
	LogDir       string `toml:"-"`
	ExportDir    string `toml:"-"`
	DebugMode    bool   `toml:"-"`
	StoreBackend string `toml:"-"`

	AssistRatePerMin int           `toml:"-"`
	AssistTimeout    time.Duration `toml:"-"`

	LLMProvider string            `toml:"llm_provider"`
	LLMConfig   map[string]string `toml:"llm_config"`
	FDXCredit   string            `toml:"fdx_credit"`
}

// Config 存储从环境变量读取的基础配置
type Config struct {
	Port             string
	DataDir          string
	StaticDir        string
	LogDir           string
	LogLevel         string
	ExportDir        string
	DebugMode        bool
	StoreBackend     string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	LLMModel         string
	FDXCredit        string
	AssistRatePerMin int
	AssistTimeout    time.Duration
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DataDir:          getEnvPath("DATA_DIR", "data"),
		StaticDir:        getEnv("STATIC_DIR", "static"),
		LogDir:           getEnvPath("LOG_DIR", "logs"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ExportDir:        getEnv("EXPORT_DIR", ""),
		DebugMode:        getEnvBool("DEBUG_MODE", true),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", StoreFile)),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o-mini"),
		FDXCredit:        getEnv("FDX_CREDIT", ""),
		AssistRatePerMin: getEnvInt("ASSIST_RATE_PER_MIN", DefaultAssistRatePerMin),
		AssistTimeout:    getEnvDuration("ASSIST_TIMEOUT", 60*time.Second),
	}

	if cfg.StoreBackend != StoreFile && cfg.StoreBackend != StoreSQLite {
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q (want %s or %s)", cfg.StoreBackend, StoreFile, StoreSQLite)
	}
	if cfg.AssistRatePerMin <= 0 {
		return nil, fmt.Errorf("ASSIST_RATE_PER_MIN must be positive, got %d", cfg.AssistRatePerMin)
	}

	return cfg, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取路径类环境变量并确保目录存在
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)
	if err := os.MkdirAll(path, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create directory %s: %v\n", path, err)
	}
	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// InitConfig builds the runtime configuration from base and merges the LLM
// settings saved in <DataDir>/settings.toml. Environment keys fill gaps the
// settings file leaves.
func InitConfig(base *Config) error {
	configFile = filepath.Join(base.DataDir, SettingsFileName)

	cfg := &AppConfig{
		Port:         base.Port,
		DataDir:      base.DataDir,
		StaticDir:    base.StaticDir,
		LogDir:       base.LogDir,
		ExportDir:    base.ExportDir,
		DebugMode:    base.DebugMode,
		StoreBackend: base.StoreBackend,

		AssistRatePerMin: base.AssistRatePerMin,
		AssistTimeout:    base.AssistTimeout,

		LLMProvider: "openai",
		LLMConfig: map[string]string{
			"api_key":       base.OpenAIAPIKey,
			"base_url":      base.OpenAIBaseURL,
			"default_model": base.LLMModel,
		},
		FDXCredit: base.FDXCredit,
	}

	if _, err := os.Stat(configFile); err == nil {
		var saved AppConfig
		if _, err := toml.DecodeFile(configFile, &saved); err != nil {
			return fmt.Errorf("failed to decode %s: %w", configFile, err)
		}
		if saved.LLMProvider != "" {
			cfg.LLMProvider = saved.LLMProvider
		}
		for k, v := range saved.LLMConfig {
			if v != "" {
				cfg.LLMConfig[k] = v
			}
		}
		if saved.FDXCredit != "" {
			cfg.FDXCredit = saved.FDXCredit
		}
	}

	configMutex.Lock()
	currentConfig = cfg
	configMutex.Unlock()

	return SaveConfig()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		return &AppConfig{
			Port:         "8080",
			DataDir:      "data",
			StoreBackend: StoreFile,
			LLMProvider:  "openai",
			LLMConfig:    map[string]string{},

			AssistRatePerMin: DefaultAssistRatePerMin,
			AssistTimeout:    60 * time.Second,
		}
	}

	configCopy := *currentConfig
	configCopy.LLMConfig = make(map[string]string, len(currentConfig.LLMConfig))
	for k, v := range currentConfig.LLMConfig {
		configCopy.LLMConfig[k] = v
	}
	return &configCopy
}

// UpdateLLMConfig 更新LLM配置并保存
func UpdateLLMConfig(provider string, llmConfig map[string]string) error {
	configMutex.Lock()
	if currentConfig == nil {
		configMutex.Unlock()
		return fmt.Errorf("configuration not initialized")
	}
	currentConfig.LLMProvider = provider
	currentConfig.LLMConfig = make(map[string]string, len(llmConfig))
	for k, v := range llmConfig {
		currentConfig.LLMConfig[k] = v
	}
	configMutex.Unlock()

	return SaveConfig()
}

// SaveConfig writes the persisted part of the configuration. The API key is
// never written to disk; it stays in the environment.
func SaveConfig() error {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		return fmt.Errorf("no configuration to save")
	}
	if configFile == "" {
		return fmt.Errorf("configuration file path not set")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	persisted := AppConfig{
		LLMProvider: currentConfig.LLMProvider,
		LLMConfig:   make(map[string]string, len(currentConfig.LLMConfig)),
		FDXCredit:   currentConfig.FDXCredit,
	}
	for k, v := range currentConfig.LLMConfig {
		if k == "api_key" {
			continue
		}
		persisted.LLMConfig[k] = v
	}

	tmp := configFile + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open settings file: %w", err)
	}
	if err := toml.NewEncoder(file).Encode(persisted); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	return os.Rename(tmp, configFile)
}
