// internal/services/assist_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/SceneWriter/internal/errors"
	"github.com/Corphon/SceneWriter/internal/llm"
	"github.com/Corphon/SceneWriter/internal/models"
	"github.com/Corphon/SceneWriter/internal/utils"
)

// Validation notices of an assist request.
const (
	MsgMissingAPIKey = "Please enter your OpenAI API key."
	MsgMissingPrompt = "Please enter your prompt for AI."
	MsgCancelled     = "request cancelled"
)

// AssistTask is one in-flight or finished asynchronous assist call.
type AssistTask struct {
	ID        string
	Mode      string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.RWMutex
	status     string
	result     *models.AssistResult
	finishedAt time.Time
}

// Done is closed when the task has a result.
func (t *AssistTask) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome once the task is finished.
func (t *AssistTask) Result() (models.AssistResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.result == nil {
		return models.AssistResult{}, false
	}
	return *t.result, true
}

// View returns a serializable snapshot.
func (t *AssistTask) View() models.AssistTaskView {
	t.mu.RLock()
	defer t.mu.RUnlock()

	view := models.AssistTaskView{
		ID:        t.ID,
		Mode:      t.Mode,
		Status:    t.status,
		StartedAt: t.StartedAt,
	}
	if t.result != nil {
		r := *t.result
		view.Result = &r
		finished := t.finishedAt
		view.FinishedAt = &finished
	}
	return view
}

// record stores the outcome; Done is closed separately by the runner.
func (t *AssistTask) record(status string, result models.AssistResult) {
	t.mu.Lock()
	t.status = status
	t.result = &result
	t.finishedAt = time.Now()
	t.mu.Unlock()
}

func (t *AssistTask) finished() (bool, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result != nil, t.finishedAt
}

// AssistService sends prompts to the language model under a persona. Calls
// are never deduplicated or retried; overlapping calls are independent.
type AssistService struct {
	llm     *LLMService
	events  EventPublisher
	metrics *utils.EditorMetrics
	timeout time.Duration

	mutex sync.RWMutex
	tasks map[string]*AssistTask
}

func NewAssistService(llmService *LLMService, events EventPublisher, metrics *utils.EditorMetrics, timeout time.Duration) *AssistService {
	if events == nil {
		events = noopPublisher{}
	}
	if metrics == nil {
		metrics = utils.NewEditorMetrics(nil)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AssistService{
		llm:     llmService,
		events:  events,
		metrics: metrics,
		timeout: timeout,
		tasks:   make(map[string]*AssistTask),
	}
}

// Validate checks the request the way the editor does: key first, then
// prompt. A configured server key stands in for a missing request key.
func (s *AssistService) Validate(req models.AssistRequest) error {
	if strings.TrimSpace(req.APIKey) == "" && !s.llm.IsReady() {
		return apperrors.NewValidationError(MsgMissingAPIKey, nil)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return apperrors.NewValidationError(MsgMissingPrompt, nil)
	}
	return nil
}

// Ask performs one call and waits for it. Every outcome, validation
// included, is reported in the result rather than as an error.
func (s *AssistService) Ask(ctx context.Context, req models.AssistRequest) models.AssistResult {
	if err := s.Validate(req); err != nil {
		return failure(apperrors.MessageOf(err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.call(ctx, req)
}

// Submit validates the request and starts the call in the background.
func (s *AssistService) Submit(req models.AssistRequest) (*AssistTask, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	task := &AssistTask{
		ID:        uuid.New().String(),
		Mode:      PersonaFor(req.Mode).Mode,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    models.AssistRunning,
	}

	s.mutex.Lock()
	s.tasks[task.ID] = task
	s.mutex.Unlock()

	s.events.Publish(newEvent(EventAssistStarted, task.View()))

	go func() {
		defer cancel()
		result := s.call(ctx, req)

		status := result.Status
		eventType := EventAssistCompleted
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			status = models.AssistCancelled
			result = failure(MsgCancelled)
			eventType = EventAssistCancelled
		case !result.Succeeded():
			eventType = EventAssistFailed
		}

		task.record(status, result)
		s.events.Publish(newEvent(eventType, task.View()))
		close(task.done)
	}()

	return task, nil
}

// Get looks a task up by ID.
func (s *AssistService) Get(id string) (*AssistTask, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	task, ok := s.tasks[id]
	return task, ok
}

// Cancel stops a running task. It reports false for unknown IDs.
func (s *AssistService) Cancel(id string) bool {
	task, ok := s.Get(id)
	if !ok {
		return false
	}
	task.cancel()
	return true
}

// Tasks lists every tracked task.
func (s *AssistService) Tasks() []models.AssistTaskView {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	views := make([]models.AssistTaskView, 0, len(s.tasks))
	for _, task := range s.tasks {
		views = append(views, task.View())
	}
	return views
}

// CleanupFinished drops finished tasks older than maxAge and returns how
// many were removed.
func (s *AssistService) CleanupFinished(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	now := time.Now()
	for id, task := range s.tasks {
		if done, at := task.finished(); done && now.Sub(at) > maxAge {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// StartCleanup runs CleanupFinished every interval until ctx ends.
func (s *AssistService) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.CleanupFinished(maxAge); n > 0 {
					utils.GetLogger().Debug("assist tasks cleaned up", utils.Fields{"removed": n})
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *AssistService) call(ctx context.Context, req models.AssistRequest) models.AssistResult {
	persona := PersonaFor(req.Mode)
	started := time.Now()

	resp, err := s.llm.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       req.Prompt,
		SystemPrompt: persona.SystemPrompt,
		Temperature:  persona.Temperature,
		MaxTokens:    AssistMaxTokens,
		APIKey:       req.APIKey,
	})

	var result models.AssistResult
	if err != nil {
		result = failure(failureReason(err))
		utils.GetLogger().Warn("assist call failed", utils.Fields{
			"mode":  persona.Mode,
			"error": err.Error(),
		})
	} else {
		result = models.AssistResult{Status: models.AssistSucceeded, Text: resp.Text, Model: resp.ModelName}
	}

	s.metrics.RecordAssist(persona.Mode, result.Status, time.Since(started))
	return result
}

func failure(reason string) models.AssistResult {
	return models.AssistResult{Status: models.AssistFailed, Reason: reason}
}

// failureReason keeps the provider's own message and names timeouts plainly.
func failureReason(err error) string {
	var apiErr *llm.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return MsgCancelled
	default:
		return err.Error()
	}
}
