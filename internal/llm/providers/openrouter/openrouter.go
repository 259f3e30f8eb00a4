// internal/llm/providers/openrouter/openrouter.go
package openrouter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Corphon/SceneWriter/internal/llm"
	"github.com/Corphon/SceneWriter/internal/llm/providers/openai"
)

// Name is the registry key of this provider.
const Name = "openrouter"

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-4o-mini"

	defaultReferer = "https://github.com/Corphon/SceneWriter"
	defaultAppName = "SceneWriter"
)

func init() {
	llm.Register(Name, func() llm.Provider {
		return New()
	})
}

// Provider routes chat completions through OpenRouter, which speaks the
// OpenAI protocol plus two attribution headers.
type Provider struct {
	*openai.Provider
}

func New() *Provider {
	return &Provider{
		Provider: openai.NewCompatible("OpenRouter", DefaultBaseURL, DefaultModel, []string{
			"openai/gpt-4o-mini",
			"openai/gpt-4o",
			"anthropic/claude-3.5-haiku",
			"google/gemma-3-27b-it:free",
			"mistralai/mistral-small-3.1-24b-instruct:free",
		}),
	}
}

// Initialize accepts the OpenAI keys plus app_name, http_referer and
// custom_models (a JSON array of model IDs).
func (p *Provider) Initialize(config map[string]string) error {
	if err := p.Provider.Initialize(config); err != nil {
		return err
	}

	p.SetHeader("HTTP-Referer", valueOr(config["http_referer"], defaultReferer))
	p.SetHeader("X-Title", valueOr(config["app_name"], defaultAppName))

	// 自定义模型列表
	if raw := strings.TrimSpace(config["custom_models"]); raw != "" {
		var models []string
		if err := json.Unmarshal([]byte(raw), &models); err != nil {
			return fmt.Errorf("invalid custom_models: %w", err)
		}
		if len(models) > 0 {
			p.SetSupportedModels(models)
		}
	}
	return nil
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
