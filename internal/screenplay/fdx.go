// internal/screenplay/fdx.go
package screenplay

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	// DefaultTitle replaces an empty or whitespace-only title.
	DefaultTitle = "Untitled"
	// DefaultCredit is the credit line of the title page.
	DefaultCredit = "Written by Sathwik"
	// FDXContentType is the MIME type of an exported FDX file.
	FDXContentType = "application/xml"

	fdxHeader = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n"
)

// FDXOptions 控制标题页内容
type FDXOptions struct {
	Credit string
}

type fdxDocument struct {
	XMLName      xml.Name      `xml:"FinalDraft"`
	DocumentType string        `xml:"DocumentType,attr"`
	Template     string        `xml:"Template,attr"`
	Version      string        `xml:"Version,attr"`
	Content      fdxContent    `xml:"Content"`
	TitlePage    *fdxTitlePage `xml:"TitlePage"`
}

type fdxContent struct {
	Paragraphs []fdxParagraph `xml:"Paragraph"`
}

type fdxTitlePage struct {
	Content fdxContent `xml:"Content"`
}

type fdxParagraph struct {
	XMLName xml.Name `xml:"Paragraph"`
	Type    string   `xml:"Type,attr"`
	Text    string   `xml:"Text"`
}

// NormalizeTitle trims the title and falls back to DefaultTitle.
func NormalizeTitle(title string) string {
	title = TrimScript(title)
	if title == "" {
		return DefaultTitle
	}
	return title
}

// SerializeFDX renders paragraphs as a Final Draft document with the default credit.
func SerializeFDX(title string, paragraphs []Paragraph) string {
	return SerializeFDXWithOptions(title, paragraphs, FDXOptions{})
}

// SerializeFDXWithOptions renders paragraphs as a Final Draft document.
// Every paragraph is marshalled by encoding/xml, which escapes markup characters
// and replaces runes illegal in XML, so the output is well-formed for any input.
func SerializeFDXWithOptions(title string, paragraphs []Paragraph, opts FDXOptions) string {
	credit := strings.TrimSpace(opts.Credit)
	if credit == "" {
		credit = DefaultCredit
	}

	var b strings.Builder
	b.WriteString(fdxHeader)
	b.WriteString(`<FinalDraft DocumentType="Script" Template="No" Version="1">` + "\n")
	b.WriteString("  <Content>\n")
	for _, p := range paragraphs {
		writeParagraph(&b, "    ", string(p.Type), p.Text)
	}
	b.WriteString("  </Content>\n")
	b.WriteString("  <TitlePage>\n")
	b.WriteString("    <Content>\n")
	writeParagraph(&b, "      ", string(titleType), NormalizeTitle(title))
	writeParagraph(&b, "      ", string(creditType), credit)
	b.WriteString("    </Content>\n")
	b.WriteString("  </TitlePage>\n")
	b.WriteString("</FinalDraft>\n")
	return b.String()
}

func writeParagraph(b *strings.Builder, indent, typ, text string) {
	out, err := xml.Marshal(fdxParagraph{Type: typ, Text: text})
	if err != nil {
		// fixed struct of strings; marshalling cannot fail
		panic(fmt.Sprintf("screenplay: marshal paragraph: %v", err))
	}
	b.WriteString(indent)
	b.Write(out)
	b.WriteByte('\n')
}

// ParseFDX reads a Final Draft document back into its title and body paragraphs.
func ParseFDX(r io.Reader) (string, []Paragraph, error) {
	var doc fdxDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("decode fdx: %w", err)
	}

	title := ""
	if doc.TitlePage != nil {
		for _, p := range doc.TitlePage.Content.Paragraphs {
			if p.Type == string(titleType) {
				title = p.Text
				break
			}
		}
	}

	paragraphs := make([]Paragraph, 0, len(doc.Content.Paragraphs))
	for _, p := range doc.Content.Paragraphs {
		paragraphs = append(paragraphs, Paragraph{Type: ParagraphType(p.Type), Text: p.Text})
	}
	return title, paragraphs, nil
}

var whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)

// FileBaseName derives a file name stem from a title: the trimmed title, or
// fallback when empty, with every whitespace run replaced by one underscore.
func FileBaseName(title, fallback string) string {
	name := TrimScript(title)
	if name == "" {
		name = fallback
	}
	return whitespaceRun.ReplaceAllString(name, "_")
}
