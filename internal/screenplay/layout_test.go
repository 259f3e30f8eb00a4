package screenplay

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyOf(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

func TestLayout_TitleFirst(t *testing.T) {
	geo := DefaultGeometry()
	pages := Layout("My Script", "INT. HOUSE\nJOHN", geo)

	require.Len(t, pages, 1)
	require.Len(t, pages[0].Lines, 3)
	assert.Equal(t, Placement{Text: "Title: My Script", X: 72, Y: 72, Width: 16 * 7.2}, pages[0].Lines[0])
	assert.Equal(t, 102.0, pages[0].Lines[1].Y)
	assert.Equal(t, 118.0, pages[0].Lines[2].Y)
	assert.Equal(t, "INT. HOUSE", pages[0].Lines[1].Text)
}

func TestLayout_LinesAreVerbatim(t *testing.T) {
	long := strings.Repeat("word ", 60)
	pages := Layout("", "  indented\n\n"+long, DefaultGeometry())
	require.Len(t, pages[0].Lines, 4)
	assert.Equal(t, "Title: ", pages[0].Lines[0].Text)
	assert.Equal(t, "  indented", pages[0].Lines[1].Text)
	assert.Equal(t, "", pages[0].Lines[2].Text)
	assert.Equal(t, long, pages[0].Lines[3].Text)
}

func TestLayout_PageBreaks(t *testing.T) {
	geo := DefaultGeometry()

	// 39 body lines fit on page one: offsets 102..710
	assert.Len(t, Layout("T", bodyOf(39), geo), 1)
	pages := Layout("T", bodyOf(40), geo)
	require.Len(t, pages, 2)
	assert.Equal(t, "line 40", pages[1].Lines[0].Text)

	// 41 lines per following page: offsets 72..712
	assert.Len(t, Layout("T", bodyOf(39+41), geo), 2)
	assert.Len(t, Layout("T", bodyOf(39+42), geo), 3)
}

func TestLayout_EveryPageStartsAtTopMargin(t *testing.T) {
	geo := DefaultGeometry()
	pages := Layout("T", bodyOf(200), geo)
	total := 0
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		require.NotEmpty(t, p.Lines)
		assert.Equal(t, geo.TopMargin, p.Lines[0].Y)
		for _, l := range p.Lines {
			assert.LessOrEqual(t, l.Y, geo.BreakAt+geo.LineHeight)
		}
		total += len(p.Lines)
	}
	assert.Equal(t, 201, total)
}

func TestPageCount_MatchesLayout(t *testing.T) {
	geos := []Geometry{
		DefaultGeometry(),
		{PageHeight: 400, TopMargin: 40, LineHeight: 20, TitleGap: 20},
		{PageHeight: 300, TopMargin: 50, LineHeight: 12, TitleGap: 36, BreakAt: 240},
	}
	for gi, geo := range geos {
		for _, n := range []int{1, 2, 10, 38, 39, 40, 41, 79, 80, 81, 120, 500} {
			want := len(Layout("T", bodyOf(n), geo))
			assert.Equal(t, want, PageCount(n, geo), "geometry %d, %d lines", gi, n)
		}
	}
}

func TestLayout_WidthUsesDisplayColumns(t *testing.T) {
	pages := Layout("", "漢字", DefaultGeometry())
	assert.Equal(t, 4*7.2, pages[0].Lines[1].Width)
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

func TestRenderPDF(t *testing.T) {
	geo := DefaultGeometry()
	pages := Layout("Brackets (and) \\ slashes", bodyOf(90)+"\nünïcödé 漢", geo)
	require.Len(t, pages, 3)

	var buf bytes.Buffer
	require.NoError(t, renderPDF(pages, geo, &buf, false))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "%%EOF"))
	assert.Contains(t, out, "/Count 3")
	assert.Contains(t, out, "/BaseFont /Courier")
	assert.Len(t, pageObject.FindAllString(out, -1), 3)
	assert.Contains(t, out, `(Title: Brackets \(and\) \\ slashes) Tj`)
	// baseline 72pt below the top of a 792pt page
	assert.Contains(t, out, "BT 72.00 720.00 Td (Title:")
	// WinAnsi bytes for the Latin-1 runes
	assert.Contains(t, out, "(\xfcn\xefc\xf6d\xe9 ")
}

func TestRenderPDF_Compressed(t *testing.T) {
	geo := DefaultGeometry()
	pages := Layout("x", bodyOf(60), geo)

	var buf bytes.Buffer
	require.NoError(t, RenderPDF(pages, geo, &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.Len(t, pageObject.FindAllString(out, -1), len(pages))
	assert.Contains(t, out, "/FlateDecode")
	assert.NotContains(t, out, "(Title: x) Tj")
}
