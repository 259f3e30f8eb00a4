package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/Corphon/SceneWriter/internal/llm/providers/openai"
	"github.com/Corphon/SceneWriter/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// capturedChat is what the fake chat endpoint received.
type capturedChat struct {
	Auth string
	Body struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
}

// fakeChatServer answers every chat completion with handler, recording requests.
func fakeChatServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, func() []capturedChat) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []capturedChat
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c capturedChat
		c.Auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&c.Body)
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, func() []capturedChat {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedChat(nil), seen...)
	}
}

func replyWith(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": text}}},
		})
		w.Write(body)
	}
}

func newTestLLM(t *testing.T, baseURL, key string) *LLMService {
	t.Helper()
	s := &LLMService{}
	require.NoError(t, s.UpdateProvider("openai", map[string]string{
		"api_key":       key,
		"base_url":      baseURL,
		"default_model": "gpt-4o-mini",
	}))
	return s
}

func newTestDocuments(t *testing.T, events EventPublisher) *DocumentService {
	t.Helper()
	store, err := storage.NewFileDocumentStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewDocumentService(store, events, nil)
}

var bg = context.Background()
