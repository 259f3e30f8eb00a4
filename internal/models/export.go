// internal/models/export.go
package models

import (
	"time"

	"github.com/Corphon/SceneWriter/internal/screenplay"
)

// Export formats
const (
	FormatFDX    = "fdx"
	FormatPDF    = "pdf"
	FormatLayout = "layout"
)

// ExportResult 导出结果
type ExportResult struct {
	Title       string                           `json:"title"`
	Format      string                           `json:"format"`
	FileName    string                           `json:"file_name"`
	ContentType string                           `json:"content_type"`
	Content     []byte                           `json:"-"`
	GeneratedAt time.Time                        `json:"generated_at"`
	Paragraphs  []screenplay.Paragraph           `json:"paragraphs,omitempty"`
	Stats       map[screenplay.ParagraphType]int `json:"stats,omitempty"`
	Pages       []screenplay.Page                `json:"pages,omitempty"`
	PageCount   int                              `json:"page_count,omitempty"`
	FilePath    string                           `json:"file_path,omitempty"` // 导出文件路径
	FileSize    int64                            `json:"file_size"`
}

// ClassifyResult is the response of a classification request.
type ClassifyResult struct {
	Paragraphs []screenplay.Paragraph           `json:"paragraphs"`
	Stats      map[screenplay.ParagraphType]int `json:"stats"`
	LineCount  int                              `json:"line_count"`
}
