// internal/storage/sqlite_store.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Corphon/SceneWriter/internal/models"

	_ "modernc.org/sqlite"
)

// ProjectDBName is the SQLite database file inside the data directory.
const ProjectDBName = "project.db"

// SQLiteDocumentStore keeps the project as the only row of table project.
type SQLiteDocumentStore struct {
	db *sql.DB
}

// NewSQLiteDocumentStore opens (or creates) the database at dbPath.
func NewSQLiteDocumentStore(dbPath string) (*SQLiteDocumentStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// single writer
	db.SetMaxOpenConns(1)

	store := &SQLiteDocumentStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteDocumentStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS project (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			created TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate project table: %w", err)
	}
	return nil
}

// Load returns the saved project or ErrNoDocument.
func (s *SQLiteDocumentStore) Load(ctx context.Context) (*models.Document, error) {
	var (
		doc     models.Document
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, content, created FROM project WHERE id = 1`,
	).Scan(&doc.Title, &doc.Content, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	if doc.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created timestamp %q: %w", created, err)
	}
	return &doc, nil
}

// Save upserts the single project row.
func (s *SQLiteDocumentStore) Save(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project (id, title, content, created) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			created = excluded.created`,
		doc.Title, doc.Content, doc.Created.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// Clear deletes the row if present.
func (s *SQLiteDocumentStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM project WHERE id = 1`); err != nil {
		return fmt.Errorf("clear project: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteDocumentStore) Close() error {
	return s.db.Close()
}
