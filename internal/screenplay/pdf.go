// internal/screenplay/pdf.go
package screenplay

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// PDFContentType is the MIME type of an exported PDF file.
const PDFContentType = "application/pdf"

// RenderPDF writes pages as a PDF document set in Courier. Each placement is
// drawn at its layout position, with Y as the text baseline from the page top.
func RenderPDF(pages []Page, geo Geometry, w io.Writer) error {
	return renderPDF(pages, geo, w, true)
}

func renderPDF(pages []Page, geo Geometry, w io.Writer, compress bool) error {
	geo = geo.normalized()

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: geo.PageWidth, Ht: geo.PageHeight},
	})
	pdf.SetCompression(compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Courier", "", geo.FontSize)

	// 核心字体只支持 cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range pages {
		pdf.AddPage()
		for _, line := range page.Lines {
			pdf.Text(line.X, line.Y, tr(line.Text))
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
