// internal/llm/providers/openai/openai.go
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Corphon/SceneWriter/internal/llm"
)

// Name is the registry key of this provider.
const Name = "openai"

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	// NoResponseText stands in for an empty answer.
	NoResponseText = "No response."
	// RequestFailedText is used when an error body carries no message.
	RequestFailedText = "API request failed"
)

// ErrMissingAPIKey means neither the configuration nor the request had a key.
var ErrMissingAPIKey = errors.New("OpenAI API key not provided")

func init() {
	llm.Register(Name, func() llm.Provider {
		return NewCompatible("OpenAI", DefaultBaseURL, DefaultModel, []string{
			"gpt-4o-mini",
			"gpt-4o",
			"gpt-4.1-mini",
			"gpt-4.1",
		})
	})
}

// Provider talks to an OpenAI compatible chat completions endpoint.
type Provider struct {
	displayName     string
	apiKey          string
	baseURL         string
	defaultModel    string
	supportedModels []string
	headers         map[string]string
	client          *http.Client
}

// NewCompatible builds a provider for any endpoint speaking the OpenAI chat
// completions protocol.
func NewCompatible(displayName, baseURL, defaultModel string, models []string) *Provider {
	return &Provider{
		displayName:     displayName,
		baseURL:         baseURL,
		defaultModel:    defaultModel,
		supportedModels: models,
		headers:         map[string]string{},
	}
}

// SetHeader adds a header sent with every request.
func (p *Provider) SetHeader(key, value string) {
	if p.headers == nil {
		p.headers = map[string]string{}
	}
	p.headers[key] = value
}

// SetSupportedModels replaces the advertised model list.
func (p *Provider) SetSupportedModels(models []string) {
	p.supportedModels = models
}

// Initialize accepts api_key, base_url, default_model and timeout. The key
// may stay empty when every request brings its own.
func (p *Provider) Initialize(config map[string]string) error {
	p.apiKey = strings.TrimSpace(config["api_key"])

	if baseURL := strings.TrimSpace(config["base_url"]); baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
	if model := strings.TrimSpace(config["default_model"]); model != "" {
		p.defaultModel = model
	}

	timeout := 60 * time.Second
	if raw := config["timeout"]; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", raw, err)
		}
		timeout = d
	}
	p.client = &http.Client{Timeout: timeout}
	return nil
}

func (p *Provider) GetName() string {
	if p.displayName == "" {
		return "OpenAI"
	}
	return p.displayName
}

func (p *Provider) GetSupportedModels() []string {
	return p.supportedModels
}

// HasAPIKey reports whether a key was configured.
func (p *Provider) HasAPIKey() bool {
	return p.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CompleteText performs one non-streaming chat completion.
func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = p.apiKey
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	jsonData, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	client := p.client
	if client == nil {
		client = http.DefaultClient
	}
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		var errResp errorResponse
		message := RequestFailedText
		if json.Unmarshal(body, &errResp) == nil && strings.TrimSpace(errResp.Error.Message) != "" {
			message = errResp.Error.Message
		}
		return nil, &llm.APIError{StatusCode: httpResp.StatusCode, Message: message}
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &llm.CompletionResponse{
		Text:         NoResponseText,
		ModelName:    model,
		ProviderName: p.GetName(),
		TokensUsed:   response.Usage.TotalTokens,
	}
	if response.Model != "" {
		result.ModelName = response.Model
	}
	if len(response.Choices) > 0 {
		result.FinishReason = response.Choices[0].FinishReason
		if text := strings.TrimSpace(response.Choices[0].Message.Content); text != "" {
			result.Text = text
		}
	}
	return result, nil
}
