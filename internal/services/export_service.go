// internal/services/export_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Corphon/SceneWriter/internal/errors"
	"github.com/Corphon/SceneWriter/internal/models"
	"github.com/Corphon/SceneWriter/internal/screenplay"
	"github.com/Corphon/SceneWriter/internal/storage"
	"github.com/Corphon/SceneWriter/internal/utils"
)

// PDFFallbackName names a PDF export of an untitled script.
const PDFFallbackName = "screenplay"

// ExportService turns script text into FDX, PDF or page layouts.
type ExportService struct {
	documents *DocumentService
	exports   *storage.FileStorage // nil: exports are only returned
	geometry  screenplay.Geometry
	credit    string
	metrics   *utils.EditorMetrics
	now       func() time.Time
}

// ExportOptions configures an ExportService.
type ExportOptions struct {
	// ExportDir, when set, also receives a copy of every export.
	ExportDir string
	Credit    string
	Geometry  screenplay.Geometry
}

func NewExportService(documents *DocumentService, opts ExportOptions, metrics *utils.EditorMetrics) (*ExportService, error) {
	s := &ExportService{
		documents: documents,
		geometry:  opts.Geometry,
		credit:    opts.Credit,
		metrics:   metrics,
		now:       time.Now,
	}
	if s.metrics == nil {
		s.metrics = utils.NewEditorMetrics(nil)
	}
	if s.geometry == (screenplay.Geometry{}) {
		s.geometry = screenplay.DefaultGeometry()
	}
	if opts.ExportDir != "" {
		files, err := storage.NewFileStorage(opts.ExportDir)
		if err != nil {
			return nil, fmt.Errorf("export directory: %w", err)
		}
		s.exports = files
	}
	return s, nil
}

// Close releases the export directory storage.
func (s *ExportService) Close() error {
	if s.exports == nil {
		return nil
	}
	return s.exports.Close()
}

// Geometry is the page geometry used for PDF and layout exports.
func (s *ExportService) Geometry() screenplay.Geometry {
	return s.geometry
}

// Classify splits content into typed paragraphs.
func (s *ExportService) Classify(content string) *models.ClassifyResult {
	paragraphs := screenplay.ClassifyText(content)
	return &models.ClassifyResult{
		Paragraphs: paragraphs,
		Stats:      screenplay.Stats(paragraphs),
		LineCount:  len(strings.Split(content, "\n")),
	}
}

// Export dispatches on format.
func (s *ExportService) Export(ctx context.Context, format, title, content string) (*models.ExportResult, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case models.FormatFDX:
		return s.ExportFDX(ctx, title, content)
	case models.FormatPDF:
		return s.ExportPDF(ctx, title, content)
	case models.FormatLayout:
		return s.LayoutPages(title, content), nil
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported export format %q, supported: %s, %s, %s", format,
				models.FormatFDX, models.FormatPDF, models.FormatLayout), nil)
	}
}

// ExportFDX classifies content and renders a Final Draft document.
func (s *ExportService) ExportFDX(ctx context.Context, title, content string) (*models.ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()

	paragraphs := screenplay.ClassifyText(content)
	fdx := screenplay.SerializeFDXWithOptions(title, paragraphs, screenplay.FDXOptions{Credit: s.credit})

	result := &models.ExportResult{
		Title:       screenplay.NormalizeTitle(title),
		Format:      models.FormatFDX,
		FileName:    screenplay.FileBaseName(title, screenplay.DefaultTitle) + ".fdx",
		ContentType: screenplay.FDXContentType,
		Content:     []byte(fdx),
		GeneratedAt: s.now(),
		Paragraphs:  paragraphs,
		Stats:       screenplay.Stats(paragraphs),
	}

	if err := s.finish(result, started); err != nil {
		return nil, err
	}
	return result, nil
}

// ExportPDF lays the raw lines out on letter pages and renders them.
func (s *ExportService) ExportPDF(ctx context.Context, title, content string) (*models.ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()

	pages := screenplay.Layout(title, normalizeNewlines(content), s.geometry)

	var buf bytes.Buffer
	if err := screenplay.RenderPDF(pages, s.geometry, &buf); err != nil {
		return nil, apperrors.NewProcessingError("failed to render PDF", err)
	}

	result := &models.ExportResult{
		Title:       title,
		Format:      models.FormatPDF,
		FileName:    screenplay.FileBaseName(title, PDFFallbackName) + ".pdf",
		ContentType: screenplay.PDFContentType,
		Content:     buf.Bytes(),
		GeneratedAt: s.now(),
		PageCount:   len(pages),
	}

	if err := s.finish(result, started); err != nil {
		return nil, err
	}
	return result, nil
}

// LayoutPages returns the page placements without rendering them.
func (s *ExportService) LayoutPages(title, content string) *models.ExportResult {
	pages := screenplay.Layout(title, normalizeNewlines(content), s.geometry)
	s.metrics.RecordExport(models.FormatLayout, 0, 0, 0)
	return &models.ExportResult{
		Title:       title,
		Format:      models.FormatLayout,
		ContentType: "application/json",
		GeneratedAt: s.now(),
		Pages:       pages,
		PageCount:   len(pages),
	}
}

// ExportSaved exports the saved project.
func (s *ExportService) ExportSaved(ctx context.Context, format string) (*models.ExportResult, error) {
	if s.documents == nil {
		return nil, apperrors.NewUnavailableError("document service not available", nil)
	}
	doc, err := s.documents.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Export(ctx, format, doc.Title, doc.Content)
}

func (s *ExportService) finish(result *models.ExportResult, started time.Time) error {
	result.FileSize = int64(len(result.Content))

	if s.exports != nil {
		path, err := s.saveExportToDir(result)
		if err != nil {
			utils.GetLogger().Error("failed to save export", utils.Fields{
				"file":  result.FileName,
				"error": err.Error(),
			})
			return apperrors.NewProcessingError("failed to save export", err)
		}
		result.FilePath = path
	}

	s.metrics.RecordExport(result.Format, len(result.Paragraphs), result.FileSize, time.Since(started))
	utils.GetLogger().Info("export generated", utils.Fields{
		"format": result.Format,
		"file":   result.FileName,
		"bytes":  result.FileSize,
	})
	return nil
}

// saveExportToDir writes <stem>_<timestamp>.<ext> into the export directory.
func (s *ExportService) saveExportToDir(result *models.ExportResult) (string, error) {
	stem := strings.TrimSuffix(result.FileName, "."+result.Format)
	fileName := fmt.Sprintf("%s_%s.%s", stem, result.GeneratedAt.Format("20060102_150405"), result.Format)

	if err := s.exports.SaveTextFile("", fileName, result.Content); err != nil {
		return "", err
	}
	return s.exports.Path("", fileName), nil
}

// normalizeNewlines folds CRLF into LF. A lone CR is not a line break.
func normalizeNewlines(content string) string {
	return strings.ReplaceAll(content, "\r\n", "\n")
}
