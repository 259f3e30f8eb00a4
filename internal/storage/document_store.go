// internal/storage/document_store.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Corphon/SceneWriter/internal/models"
)

// ProjectFileName is the single saved project inside the data directory.
const ProjectFileName = "project.json"

// ErrNoDocument is returned by Load when nothing has been saved.
var ErrNoDocument = errors.New("no saved document")

// DocumentStore persists the single editor project. Implementations are safe
// for concurrent use.
type DocumentStore interface {
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
	Clear(ctx context.Context) error
	Close() error
}

// FileDocumentStore keeps the project as JSON through FileStorage.
type FileDocumentStore struct {
	files *FileStorage
}

// NewFileDocumentStore opens a store rooted at dataDir.
func NewFileDocumentStore(dataDir string) (*FileDocumentStore, error) {
	files, err := NewFileStorage(dataDir)
	if err != nil {
		return nil, err
	}
	return &FileDocumentStore{files: files}, nil
}

// Load 读取已保存的项目
func (s *FileDocumentStore) Load(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.files.FileExists("", ProjectFileName) {
		return nil, ErrNoDocument
	}

	var doc models.Document
	if err := s.files.LoadJSONFile("", ProjectFileName, &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	return &doc, nil
}

// Save 覆盖保存项目
func (s *FileDocumentStore) Save(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.files.SaveJSONFile("", ProjectFileName, doc); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// Clear 删除已保存的项目
func (s *FileDocumentStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.files.DeleteFile("", ProjectFileName)
}

// Close stops the underlying file storage.
func (s *FileDocumentStore) Close() error {
	return s.files.Close()
}

// Path is where the project file lives.
func (s *FileDocumentStore) Path() string {
	return s.files.Path("", ProjectFileName)
}

// OpenDocumentStore opens the backend named by kind ("file" or "sqlite").
func OpenDocumentStore(kind, dataDir string) (DocumentStore, error) {
	switch kind {
	case "", "file":
		store, err := NewFileDocumentStore(dataDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := NewSQLiteDocumentStore(filepath.Join(dataDir, ProjectDBName))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}
