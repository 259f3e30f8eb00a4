package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/SceneWriter/internal/errors"
	"github.com/Corphon/SceneWriter/internal/models"
)

func TestPersonaFor(t *testing.T) {
	pro := PersonaFor(models.ModeProfessional)
	assert.InDelta(t, 0.5, pro.Temperature, 1e-6)
	assert.Contains(t, pro.SystemPrompt, "experienced screenplay consultant")

	for _, mode := range []string{models.ModeCreative, "", "Professional", "anything"} {
		p := PersonaFor(mode)
		assert.Equal(t, models.ModeCreative, p.Mode, mode)
		assert.InDelta(t, 0.9, p.Temperature, 1e-6)
		assert.Contains(t, p.SystemPrompt, "CineMate")
	}
}

func TestAssist_AskSendsPersona(t *testing.T) {
	server, seen := fakeChatServer(t, replyWith("  Try a cold open.  "))
	s := NewAssistService(newTestLLM(t, server.URL, ""), nil, nil, time.Second)

	result := s.Ask(bg, models.AssistRequest{Prompt: "How to start?", Mode: "professional", APIKey: "sk-user"})
	require.True(t, result.Succeeded(), result.Reason)
	assert.Equal(t, "Try a cold open.", result.Text)
	assert.Equal(t, "Try a cold open.", result.Display())

	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer sk-user", reqs[0].Auth)
	assert.Equal(t, "gpt-4o-mini", reqs[0].Body.Model)
	assert.Equal(t, AssistMaxTokens, reqs[0].Body.MaxTokens)
	assert.InDelta(t, 0.5, reqs[0].Body.Temperature, 1e-6)
	require.Len(t, reqs[0].Body.Messages, 2)
	assert.Equal(t, "system", reqs[0].Body.Messages[0].Role)
	assert.Equal(t, "How to start?", reqs[0].Body.Messages[1].Content)
}

func TestAssist_Validation(t *testing.T) {
	server, seen := fakeChatServer(t, replyWith("unused"))

	noKey := NewAssistService(newTestLLM(t, server.URL, ""), nil, nil, time.Second)
	result := noKey.Ask(bg, models.AssistRequest{Prompt: "hi"})
	assert.Equal(t, models.AssistFailed, result.Status)
	assert.Equal(t, MsgMissingAPIKey, result.Reason)

	// key is checked before the prompt
	err := noKey.Validate(models.AssistRequest{})
	assert.Equal(t, MsgMissingAPIKey, apperrors.MessageOf(err))

	withKey := NewAssistService(newTestLLM(t, server.URL, "sk-config"), nil, nil, time.Second)
	err = withKey.Validate(models.AssistRequest{Prompt: "   "})
	assert.True(t, apperrors.IsValidationError(err))
	assert.Equal(t, MsgMissingPrompt, apperrors.MessageOf(err))

	_, err = withKey.Submit(models.AssistRequest{})
	assert.Error(t, err)
	assert.Empty(t, seen())
}

func TestAssist_ProviderErrorIsVerbatim(t *testing.T) {
	server, _ := fakeChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided: sk-bad."}}`))
	})
	s := NewAssistService(newTestLLM(t, server.URL, "sk-bad"), nil, nil, time.Second)

	result := s.Ask(bg, models.AssistRequest{Prompt: "hi"})
	assert.Equal(t, models.AssistFailed, result.Status)
	assert.Equal(t, "Incorrect API key provided: sk-bad.", result.Reason)
	assert.Equal(t, "Error: Incorrect API key provided: sk-bad.", result.Display())
}

func TestAssist_SubmitCompletes(t *testing.T) {
	server, _ := fakeChatServer(t, replyWith("FADE IN."))
	events := &recordingPublisher{}
	s := NewAssistService(newTestLLM(t, server.URL, "sk"), events, nil, time.Second)

	task, err := s.Submit(models.AssistRequest{Prompt: "open", Mode: "creative"})
	require.NoError(t, err)
	_, ok := task.Result()
	assert.False(t, ok)

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish")
	}

	result, ok := task.Result()
	require.True(t, ok)
	assert.Equal(t, "FADE IN.", result.Text)

	view := task.View()
	assert.Equal(t, models.AssistSucceeded, view.Status)
	assert.NotNil(t, view.FinishedAt)

	got, ok := s.Get(task.ID)
	require.True(t, ok)
	assert.Same(t, task, got)
	assert.Equal(t, []string{EventAssistStarted, EventAssistCompleted}, events.types())
}

func TestAssist_CancelRunningTask(t *testing.T) {
	release := make(chan struct{})
	server, _ := fakeChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	events := &recordingPublisher{}
	s := NewAssistService(newTestLLM(t, server.URL, "sk"), events, nil, 10*time.Second)

	task, err := s.Submit(models.AssistRequest{Prompt: "slow"})
	require.NoError(t, err)
	assert.True(t, s.Cancel(task.ID))
	assert.False(t, s.Cancel("missing"))

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled task did not finish")
	}

	view := task.View()
	assert.Equal(t, models.AssistCancelled, view.Status)
	assert.Equal(t, MsgCancelled, view.Result.Reason)
	assert.Contains(t, events.types(), EventAssistCancelled)
}

func TestAssist_OverlappingTasksAreIndependent(t *testing.T) {
	server, seen := fakeChatServer(t, replyWith("ok"))
	s := NewAssistService(newTestLLM(t, server.URL, "sk"), nil, nil, time.Second)

	a, err := s.Submit(models.AssistRequest{Prompt: "same"})
	require.NoError(t, err)
	b, err := s.Submit(models.AssistRequest{Prompt: "same"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	<-a.Done()
	<-b.Done()
	assert.Len(t, seen(), 2)
	assert.Len(t, s.Tasks(), 2)
}

func TestAssist_CleanupFinished(t *testing.T) {
	server, _ := fakeChatServer(t, replyWith("ok"))
	s := NewAssistService(newTestLLM(t, server.URL, "sk"), nil, nil, time.Second)

	task, err := s.Submit(models.AssistRequest{Prompt: "x"})
	require.NoError(t, err)
	<-task.Done()

	assert.Equal(t, 0, s.CleanupFinished(time.Hour))
	assert.Equal(t, 1, s.CleanupFinished(-time.Second))
	_, ok := s.Get(task.ID)
	assert.False(t, ok)
}
