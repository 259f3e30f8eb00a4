// internal/models/document.go
package models

import (
	"strings"
	"time"
)

// Document 编辑器中唯一的剧本文档
type Document struct {
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

// IsEmpty reports whether both title and content are blank.
func (d *Document) IsEmpty() bool {
	return d == nil || (strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == "")
}

// LineCount returns the number of raw lines in the content.
func (d *Document) LineCount() int {
	if d == nil {
		return 0
	}
	return strings.Count(d.Content, "\n") + 1
}
