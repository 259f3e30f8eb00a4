// internal/services/llm_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Corphon/SceneWriter/internal/config"
	"github.com/Corphon/SceneWriter/internal/llm"
	"github.com/Corphon/SceneWriter/internal/utils"
)

var ErrLLMNotReady = errors.New("llm service not ready")

// LLMService 提供统一的大语言模型调用接口
type LLMService struct {
	providerMutex      sync.RWMutex
	provider           llm.Provider
	providerName       string
	hasAPIKey          bool
	readyState         string
	activeDefaultModel string
}

// LLMStatus is the provider state reported to the settings panel.
type LLMStatus struct {
	Provider     string   `json:"provider"`
	Ready        bool     `json:"ready"`
	State        string   `json:"state"`
	HasAPIKey    bool     `json:"has_api_key"`
	DefaultModel string   `json:"default_model"`
	Models       []string `json:"models"`
	Providers    []string `json:"providers"`
}

// NewLLMService builds the service from the current configuration. A failed
// provider setup leaves the service in standby instead of failing startup.
func NewLLMService() *LLMService {
	service := &LLMService{readyState: "Uninitialized"}

	cfg := config.GetCurrentConfig()
	if cfg.LLMProvider == "" {
		service.readyState = "LLM provider not configured"
		return service
	}

	if err := service.UpdateProvider(cfg.LLMProvider, cfg.LLMConfig); err != nil {
		utils.GetLogger().Warn("LLM provider initialization failed", utils.Fields{
			"provider": cfg.LLMProvider,
			"error":    err.Error(),
		})
	}
	return service
}

// UpdateProvider swaps in a freshly initialized provider.
func (s *LLMService) UpdateProvider(providerName string, cfg map[string]string) error {
	provider, err := llm.GetProvider(providerName, cfg)
	if err != nil {
		s.providerMutex.Lock()
		s.provider = nil
		s.readyState = fmt.Sprintf("Configuration failed: %v", err)
		s.providerMutex.Unlock()
		return err
	}

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()

	s.provider = provider
	s.providerName = providerName
	s.activeDefaultModel = extractDefaultModel(cfg)
	s.hasAPIKey = strings.TrimSpace(cfg["api_key"]) != ""
	if s.hasAPIKey {
		s.readyState = "Ready"
	} else {
		s.readyState = "API key not configured"
	}
	return nil
}

// IsReady reports whether a provider is set and can be called without a
// per-request key.
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil && s.hasAPIKey
}

// HasProvider reports whether a provider is set, key or not.
func (s *LLMService) HasProvider() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil
}

// GetProviderStatus 返回服务是否就绪以及可读描述
func (s *LLMService) GetProviderStatus() (bool, string) {
	if s == nil {
		return false, "LLM service not initialized"
	}
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil && s.hasAPIKey, s.readyState
}

// Status collects everything the settings panel shows.
func (s *LLMService) Status() LLMStatus {
	ready, state := s.GetProviderStatus()

	s.providerMutex.RLock()
	name := s.providerName
	hasKey := s.hasAPIKey
	var supported []string
	if s.provider != nil {
		supported = append(supported, s.provider.GetSupportedModels()...)
	}
	s.providerMutex.RUnlock()

	return LLMStatus{
		Provider:     name,
		Ready:        ready,
		State:        state,
		HasAPIKey:    hasKey,
		DefaultModel: s.GetDefaultModel(),
		Models:       supported,
		Providers:    llm.ListProviders(),
	}
}

// GetProviderName returns the registry name of the active provider.
func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// CompleteText forwards one request to the active provider.
func (s *LLMService) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.providerMutex.RLock()
	provider := s.provider
	state := s.readyState
	s.providerMutex.RUnlock()

	if provider == nil {
		return nil, fmt.Errorf("%w: %s", ErrLLMNotReady, state)
	}

	req.Model = s.resolveModel(req.Model)
	return provider.CompleteText(ctx, req)
}

// GetDefaultModel 获取当前配置的默认模型
func (s *LLMService) GetDefaultModel() string {
	return s.resolveModel("")
}

func (s *LLMService) resolveModel(requestedModel string) string {
	if trimmed := strings.TrimSpace(requestedModel); trimmed != "" {
		return trimmed
	}

	s.providerMutex.RLock()
	activeDefault := s.activeDefaultModel
	s.providerMutex.RUnlock()

	if activeDefault != "" {
		return activeDefault
	}
	return AssistModel
}

func extractDefaultModel(cfg map[string]string) string {
	if cfg == nil {
		return ""
	}
	if model := strings.TrimSpace(cfg["default_model"]); model != "" {
		return model
	}
	return strings.TrimSpace(cfg["model"])
}
