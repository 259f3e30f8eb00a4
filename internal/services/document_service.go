// internal/services/document_service.go
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/Corphon/SceneWriter/internal/errors"
	"github.com/Corphon/SceneWriter/internal/models"
	"github.com/Corphon/SceneWriter/internal/storage"
	"github.com/Corphon/SceneWriter/internal/utils"
)

// User facing notices of document operations.
const (
	MsgNoSavedProject = "No saved project found."
	MsgSaved          = "Saved locally!"
	MsgLoaded         = "Project loaded!"
)

// DocumentService holds the editor's working document and persists it
// through a DocumentStore.
type DocumentService struct {
	store   storage.DocumentStore
	events  EventPublisher
	metrics *utils.EditorMetrics
	now     func() time.Time

	mu      sync.RWMutex
	current models.Document
}

// NewDocumentService wires a store; events and metrics may be nil.
func NewDocumentService(store storage.DocumentStore, events EventPublisher, metrics *utils.EditorMetrics) *DocumentService {
	if events == nil {
		events = noopPublisher{}
	}
	if metrics == nil {
		metrics = utils.NewEditorMetrics(nil)
	}
	return &DocumentService{
		store:   store,
		events:  events,
		metrics: metrics,
		now:     time.Now,
	}
}

// Save stores title and content as the single saved project, stamping the
// creation time, and makes them the working document.
func (s *DocumentService) Save(ctx context.Context, title, content string) (*models.Document, error) {
	doc := models.Document{Title: title, Content: content, Created: s.now().UTC()}

	if err := s.store.Save(ctx, &doc); err != nil {
		utils.GetLogger().Error("failed to save project", utils.Fields{"error": err.Error()})
		return nil, apperrors.NewProcessingError("failed to save project", err)
	}

	s.mu.Lock()
	s.current = doc
	s.mu.Unlock()

	s.metrics.RecordDocument("save")
	s.events.Publish(newEvent(EventDocumentSaved, map[string]interface{}{
		"title":   doc.Title,
		"created": doc.Created,
		"lines":   doc.LineCount(),
	}))
	utils.GetLogger().Info("project saved", utils.Fields{"title": doc.Title, "bytes": len(doc.Content)})

	return &doc, nil
}

// Load returns the saved project and makes it the working document. Nothing
// saved is a not-found error carrying MsgNoSavedProject.
func (s *DocumentService) Load(ctx context.Context) (*models.Document, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoDocument) {
			return nil, apperrors.NewNotFoundError(MsgNoSavedProject, err)
		}
		utils.GetLogger().Error("failed to load project", utils.Fields{"error": err.Error()})
		return nil, apperrors.NewProcessingError("failed to load project", err)
	}

	s.mu.Lock()
	s.current = *doc
	s.mu.Unlock()

	s.metrics.RecordDocument("load")
	return doc, nil
}

// Clear empties the working document. The saved project is kept.
func (s *DocumentService) Clear() {
	s.mu.Lock()
	s.current = models.Document{}
	s.mu.Unlock()

	s.metrics.RecordDocument("clear")
	s.events.Publish(newEvent(EventDocumentCleared, map[string]interface{}{"saved_kept": true}))
}

// Discard removes the saved project; the working document is untouched.
func (s *DocumentService) Discard(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return apperrors.NewProcessingError("failed to discard saved project", err)
	}
	s.metrics.RecordDocument("discard")
	s.events.Publish(newEvent(EventDocumentCleared, map[string]interface{}{"saved_kept": false}))
	return nil
}

// Current returns a copy of the working document.
func (s *DocumentService) Current() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrent replaces the working document without saving it.
func (s *DocumentService) SetCurrent(title, content string) {
	s.mu.Lock()
	s.current = models.Document{Title: title, Content: content, Created: s.current.Created}
	s.mu.Unlock()
}
