package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/SceneWriter/internal/errors"
	"github.com/Corphon/SceneWriter/internal/models"
	"github.com/Corphon/SceneWriter/internal/screenplay"
	"github.com/Corphon/SceneWriter/internal/utils"
)

const sampleScript = "INT. HOUSE - DAY\n\nJOHN\n(quietly)\nHello there."

func newTestExports(t *testing.T, opts ExportOptions) (*ExportService, *DocumentService, *utils.EditorMetrics) {
	t.Helper()
	docs := newTestDocuments(t, nil)
	metrics := utils.NewEditorMetrics(utils.NewMetricsCollector())
	s, err := NewExportService(docs, opts, metrics)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, docs, metrics
}

func TestExportFDX(t *testing.T) {
	s, _, metrics := newTestExports(t, ExportOptions{})

	result, err := s.ExportFDX(bg, "  My Film ", sampleScript)
	require.NoError(t, err)

	assert.Equal(t, "My_Film.fdx", result.FileName)
	assert.Equal(t, "My Film", result.Title)
	assert.Equal(t, screenplay.FDXContentType, result.ContentType)
	assert.Equal(t, []screenplay.Paragraph{
		{Type: screenplay.SceneHeading, Text: "INT. HOUSE - DAY"},
		{Type: screenplay.Character, Text: "JOHN"},
		{Type: screenplay.Parenthetical, Text: "(quietly)"},
		{Type: screenplay.Dialogue, Text: "Hello there."},
	}, result.Paragraphs)
	assert.Equal(t, 1, result.Stats[screenplay.Dialogue])
	assert.Equal(t, int64(len(result.Content)), result.FileSize)
	assert.Contains(t, string(result.Content), `<Paragraph Type="Credit"><Text>Written by Sathwik</Text></Paragraph>`)
	assert.Empty(t, result.FilePath)

	assert.Equal(t, int64(1), metrics.Collector().GetCounterValue("exports_fdx"))
	assert.Equal(t, int64(4), metrics.Collector().GetCounterValue("exported_paragraphs"))
}

func TestExportFDX_UntitledAndCredit(t *testing.T) {
	s, _, _ := newTestExports(t, ExportOptions{Credit: "Written by A & B"})

	result, err := s.ExportFDX(bg, "   ", "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled.fdx", result.FileName)
	assert.Empty(t, result.Paragraphs)
	assert.Contains(t, string(result.Content), "Written by A &amp; B")
}

func TestExportPDF(t *testing.T) {
	s, _, _ := newTestExports(t, ExportOptions{})

	lines := make([]string, 50)
	for i := range lines {
		lines[i] = "line"
	}
	result, err := s.ExportPDF(bg, "", strings.Join(lines, "\r\n"))
	require.NoError(t, err)

	assert.Equal(t, "screenplay.pdf", result.FileName)
	assert.Equal(t, screenplay.PDFContentType, result.ContentType)
	assert.Equal(t, 2, result.PageCount)
	assert.True(t, bytes.HasPrefix(result.Content, []byte("%PDF-")))

	named, err := s.ExportPDF(bg, "My Script", "INT. HOUSE - DAY")
	require.NoError(t, err)
	assert.Equal(t, "My_Script.pdf", named.FileName)
}

func TestLayoutPages(t *testing.T) {
	s, _, _ := newTestExports(t, ExportOptions{})

	result := s.LayoutPages("T", "a\nb")
	require.Len(t, result.Pages, 1)
	lines := result.Pages[0].Lines
	require.Len(t, lines, 3)
	assert.Equal(t, "Title: T", lines[0].Text)
	assert.Equal(t, 102.0, lines[1].Y)
	assert.Equal(t, 118.0, lines[2].Y)
}

func TestLayoutPages_OnlyLineFeedsBreak(t *testing.T) {
	s, _, _ := newTestExports(t, ExportOptions{})

	lines := s.LayoutPages("T", "a\r\nb\rc").Pages[0].Lines
	require.Len(t, lines, 3)
	assert.Equal(t, "a", lines[1].Text)
	assert.Equal(t, "b\rc", lines[2].Text)
}

func TestExport_UnknownFormat(t *testing.T) {
	s, _, _ := newTestExports(t, ExportOptions{})
	_, err := s.Export(bg, "docx", "T", "C")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestExportSaved(t *testing.T) {
	s, docs, _ := newTestExports(t, ExportOptions{})

	_, err := s.ExportSaved(bg, models.FormatFDX)
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = docs.Save(bg, "Saved One", sampleScript)
	require.NoError(t, err)

	result, err := s.ExportSaved(bg, "FDX")
	require.NoError(t, err)
	assert.Equal(t, "Saved_One.fdx", result.FileName)
	assert.Len(t, result.Paragraphs, 4)
}

func TestExport_WritesToExportDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s, _, _ := newTestExports(t, ExportOptions{ExportDir: dir})
	s.now = func() time.Time { return time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC) }

	result, err := s.ExportFDX(bg, "Night Shift", sampleScript)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Night_Shift_20250607_080910.fdx"), result.FilePath)
	data, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	assert.Equal(t, result.Content, data)
}

func TestClassify(t *testing.T) {
	s, _, _ := newTestExports(t, ExportOptions{})
	result := s.Classify(sampleScript)
	assert.Equal(t, 5, result.LineCount)
	assert.Len(t, result.Paragraphs, 4)
	assert.Equal(t, 0, result.Stats[screenplay.Action])
}
