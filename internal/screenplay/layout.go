// internal/screenplay/layout.go
package screenplay

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TitleLabel prefixes the title on the first page.
const TitleLabel = "Title: "

// Geometry 页面几何参数，单位为 pt
type Geometry struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	TopMargin  float64 `json:"top_margin"`
	LeftMargin float64 `json:"left_margin"`
	LineHeight float64 `json:"line_height"`
	TitleGap   float64 `json:"title_gap"`
	BreakAt    float64 `json:"break_at"`
	FontSize   float64 `json:"font_size"`
	CharWidth  float64 `json:"char_width"`
}

// DefaultGeometry is a US letter page set in 12pt Courier.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:  612,
		PageHeight: 792,
		TopMargin:  72,
		LeftMargin: 72,
		LineHeight: 16,
		TitleGap:   30,
		BreakAt:    720,
		FontSize:   12,
		CharWidth:  7.2,
	}
}

// normalized fills zero fields from DefaultGeometry. BreakAt defaults to
// PageHeight minus TopMargin and CharWidth to the Courier advance of FontSize.
func (g Geometry) normalized() Geometry {
	def := DefaultGeometry()
	if g.PageWidth <= 0 {
		g.PageWidth = def.PageWidth
	}
	if g.PageHeight <= 0 {
		g.PageHeight = def.PageHeight
	}
	if g.TopMargin <= 0 {
		g.TopMargin = def.TopMargin
	}
	if g.LeftMargin <= 0 {
		g.LeftMargin = def.LeftMargin
	}
	if g.LineHeight <= 0 {
		g.LineHeight = def.LineHeight
	}
	if g.TitleGap <= 0 {
		g.TitleGap = def.TitleGap
	}
	if g.BreakAt <= 0 {
		g.BreakAt = g.PageHeight - g.TopMargin
	}
	if g.FontSize <= 0 {
		g.FontSize = def.FontSize
	}
	if g.CharWidth <= 0 {
		g.CharWidth = g.FontSize * 0.6
	}
	return g
}

// Placement is one line of text at a fixed position. Y grows downward from the
// top edge of the page.
type Placement struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// Page 一页排版结果
type Page struct {
	Number int         `json:"number"`
	Lines  []Placement `json:"lines"`
}

// Layout places the title and then every body line verbatim, one line per
// LineHeight, starting a new page whenever the next offset passes BreakAt.
func Layout(title, body string, geo Geometry) []Page {
	geo = geo.normalized()

	pages := []Page{{Number: 1}}
	place := func(text string, y float64) {
		cur := &pages[len(pages)-1]
		cur.Lines = append(cur.Lines, Placement{
			Text:  text,
			X:     geo.LeftMargin,
			Y:     y,
			Width: float64(runewidth.StringWidth(text)) * geo.CharWidth,
		})
	}

	y := geo.TopMargin
	place(TitleLabel+title, y)
	y += geo.TitleGap

	for _, line := range strings.Split(body, "\n") {
		if y > geo.BreakAt {
			pages = append(pages, Page{Number: len(pages) + 1})
			y = geo.TopMargin
		}
		place(line, y)
		y += geo.LineHeight
	}
	return pages
}

// linesFitting counts how many lines start at or before BreakAt from offset start.
func linesFitting(start float64, geo Geometry) int {
	if start > geo.BreakAt {
		return 0
	}
	return int(math.Floor((geo.BreakAt-start)/geo.LineHeight)) + 1
}

// PageCount predicts len(Layout(...)) for a body of n lines.
func PageCount(n int, geo Geometry) int {
	geo = geo.normalized()
	first := linesFitting(geo.TopMargin+geo.TitleGap, geo)
	if n <= first {
		return 1
	}
	perPage := linesFitting(geo.TopMargin, geo)
	if perPage <= 0 {
		perPage = 1
	}
	rest := n - first
	return 1 + (rest+perPage-1)/perPage
}
