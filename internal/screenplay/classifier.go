// internal/screenplay/classifier.go
package screenplay

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParagraphType 段落类型，取值即 Final Draft 的 Type 属性字面量
type ParagraphType string

const (
	SceneHeading  ParagraphType = "Scene Heading"
	Character     ParagraphType = "Character"
	Parenthetical ParagraphType = "Parenthetical"
	Dialogue      ParagraphType = "Dialogue"
	// Action is never produced by Classify: Dialogue is the unconditional fallback.
	Action ParagraphType = "Action"
)

// Title-page paragraph types. They only appear inside the TitlePage section.
const (
	titleType  ParagraphType = "Title"
	creditType ParagraphType = "Credit"
)

// BodyTypes lists the paragraph types that can appear in the script body.
var BodyTypes = []ParagraphType{SceneHeading, Character, Parenthetical, Dialogue, Action}

// Valid reports whether t is one of the body paragraph types.
func (t ParagraphType) Valid() bool {
	for _, bt := range BodyTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// ScriptLine 一行原始输入
type ScriptLine struct {
	Raw     string `json:"raw"`
	Trimmed string `json:"trimmed"`
	Index   int    `json:"index"`
}

// Paragraph 分类后的输出单元
type Paragraph struct {
	Type ParagraphType `json:"type"`
	Text string        `json:"text"`
}

// isScriptSpace matches the characters a browser's String.trim removes:
// Unicode white space and the byte order mark, but not NEL (U+0085).
func isScriptSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

// TrimScript trims leading and trailing script white space from s.
func TrimScript(s string) string {
	return strings.TrimFunc(s, isScriptSpace)
}

// SplitLines splits a body on line feeds. A trailing carriage return stays in Raw
// and disappears from Trimmed.
func SplitLines(body string) []ScriptLine {
	raw := strings.Split(body, "\n")
	lines := make([]ScriptLine, len(raw))
	for i, r := range raw {
		lines[i] = ScriptLine{
			Raw:     r,
			Trimmed: TrimScript(r),
			Index:   i,
		}
	}
	return lines
}

// Classify assigns one paragraph type to every non-empty line, keeping input order.
// Blank and whitespace-only lines produce nothing.
func Classify(lines []string) []Paragraph {
	paragraphs := make([]Paragraph, 0, len(lines))
	for _, line := range lines {
		trimmed := TrimScript(line)
		if trimmed == "" {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			Type: classifyTrimmed(trimmed),
			Text: trimmed,
		})
	}
	return paragraphs
}

// ClassifyText classifies a whole multi-line body.
func ClassifyText(body string) []Paragraph {
	return ClassifyLines(SplitLines(body))
}

// ClassifyLines classifies already split script lines.
func ClassifyLines(lines []ScriptLine) []Paragraph {
	paragraphs := make([]Paragraph, 0, len(lines))
	for _, line := range lines {
		if line.Trimmed == "" {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			Type: classifyTrimmed(line.Trimmed),
			Text: line.Trimmed,
		})
	}
	return paragraphs
}

// classifyTrimmed applies the rules in order; the first match wins.
// A line without lowercase letters is a Character cue, which also catches
// lines made only of digits or punctuation such as "123" or "...".
// Upper-casing uses full case mapping, so "ß" becomes "SS" and counts as lowercase.
func classifyTrimmed(trimmed string) ParagraphType {
	switch {
	case strings.HasPrefix(trimmed, "INT.") || strings.HasPrefix(trimmed, "EXT."):
		return SceneHeading
	case cases.Upper(language.Und).String(trimmed) == trimmed:
		return Character
	case strings.HasPrefix(trimmed, "("):
		return Parenthetical
	default:
		return Dialogue
	}
}

// Stats counts paragraphs per type. Every body type is present in the result.
func Stats(paragraphs []Paragraph) map[ParagraphType]int {
	stats := make(map[ParagraphType]int, len(BodyTypes))
	for _, t := range BodyTypes {
		stats[t] = 0
	}
	for _, p := range paragraphs {
		stats[p.Type]++
	}
	return stats
}
