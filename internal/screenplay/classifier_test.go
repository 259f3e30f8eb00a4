package screenplay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_SingleLines(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ParagraphType
	}{
		{"interior heading", "INT. HOUSE - DAY", SceneHeading},
		{"exterior heading", "EXT. STREET - NIGHT", SceneHeading},
		{"lowercase heading text still heading", "INT. kitchen", SceneHeading},
		{"character cue", "JOHN", Character},
		{"character with extension", "JOHN (V.O.)", Character},
		{"parenthetical", "(smiling)", Parenthetical},
		{"dialogue", "Hello there.", Dialogue},
		{"digits only are a cue", "123", Character},
		{"punctuation only is a cue", "...", Character},
		{"uppercase parenthetical is a cue", "(BEAT)", Character},
		{"heading prefix needs the dot", "INTERIOR house", Dialogue},
		{"indented dialogue", "   Where are you going?  ", Dialogue},
		{"sharp s is lowercase", "ß", Dialogue},
		{"cue with sharp s is dialogue", "JOHN ß", Dialogue},
		{"kra has no upper form", "ĸ", Character},
		{"accented cue", "JOSÉ", Character},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify([]string{tt.line})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Type)
			assert.Equal(t, strings.TrimSpace(tt.line), got[0].Text)
		})
	}
}

func TestClassify_BasicExamples(t *testing.T) {
	assert.Equal(t, []Paragraph{{Type: SceneHeading, Text: "INT. HOUSE - DAY"}}, Classify([]string{"INT. HOUSE - DAY"}))
	assert.Equal(t, []Paragraph{{Type: Character, Text: "JOHN"}}, Classify([]string{"JOHN"}))
	assert.Equal(t, []Paragraph{{Type: Parenthetical, Text: "(smiling)"}}, Classify([]string{"(smiling)"}))
	assert.Equal(t, []Paragraph{{Type: Dialogue, Text: "Hello there."}}, Classify([]string{"Hello there."}))
	assert.Equal(t, []Paragraph{{Type: Dialogue, Text: "Hi"}}, Classify([]string{"", "  ", "Hi"}))
}

func TestClassify_TrimsByteOrderMark(t *testing.T) {
	got := Classify([]string{"\uFEFFINT. HOUSE - DAY", "\uFEFF", "\u00a0JOHN\u2028"})
	assert.Equal(t, []Paragraph{
		{Type: SceneHeading, Text: "INT. HOUSE - DAY"},
		{Type: Character, Text: "JOHN"},
	}, got)

	assert.Equal(t, got, ClassifyText("\uFEFFINT. HOUSE - DAY\n\uFEFF\n\u00a0JOHN\u2028"))
}

func TestTrimScript(t *testing.T) {
	assert.Equal(t, "x", TrimScript("\uFEFF\t x \r"))
	assert.Equal(t, "", TrimScript("\uFEFF\u3000"))
	// NEL is not white space for String.trim
	assert.Equal(t, "\u0085x", TrimScript("\u0085x"))
}

func TestClassify_DropsBlankLinesAndKeepsOrder(t *testing.T) {
	lines := []string{
		"INT. DINER - NIGHT",
		"",
		"MARY",
		"\t",
		"(quietly)",
		"I know what you did.",
		"   ",
		"JOHN",
		"Do you?",
	}

	got := Classify(lines)

	nonEmpty := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty++
		}
	}
	require.Len(t, got, nonEmpty)

	wantTexts := []string{"INT. DINER - NIGHT", "MARY", "(quietly)", "I know what you did.", "JOHN", "Do you?"}
	for i, p := range got {
		assert.Equal(t, wantTexts[i], p.Text)
	}
	assert.Equal(t, []ParagraphType{SceneHeading, Character, Parenthetical, Dialogue, Character, Dialogue},
		[]ParagraphType{got[0].Type, got[1].Type, got[2].Type, got[3].Type, got[4].Type, got[5].Type})
}

func TestClassify_EmptyInput(t *testing.T) {
	assert.Empty(t, Classify(nil))
	assert.Empty(t, Classify([]string{}))
	assert.Empty(t, ClassifyText(""))
}

func TestClassify_NeverProducesAction(t *testing.T) {
	inputs := []string{"He walks away.", "a", "Z", "(", ")", "<b>&amp;</b>", "\"quoted\"", "int. lower"}
	for _, p := range Classify(inputs) {
		assert.NotEqual(t, Action, p.Type, p.Text)
	}
}

func TestClassify_MarkupPassesThrough(t *testing.T) {
	got := Classify([]string{`She says "<hi> & bye"`})
	require.Len(t, got, 1)
	assert.Equal(t, `She says "<hi> & bye"`, got[0].Text)
	assert.Equal(t, Dialogue, got[0].Type)
}

func TestClassify_Idempotent(t *testing.T) {
	lines := []string{"EXT. PARK - DAY", "ANNA", "(laughing)", "Stop it!", "", "42"}
	first := Classify(lines)
	second := Classify(lines)
	assert.Equal(t, first, second)
}

func TestClassifyText_HandlesCRLF(t *testing.T) {
	got := ClassifyText("INT. ROOM - DAY\r\nBOB\r\nHey.\r\n")
	require.Len(t, got, 3)
	assert.Equal(t, "INT. ROOM - DAY", got[0].Text)
	assert.Equal(t, Character, got[1].Type)
	assert.Equal(t, Dialogue, got[2].Type)
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines("a\n  b \n")
	require.Len(t, lines, 3)
	assert.Equal(t, ScriptLine{Raw: "a", Trimmed: "a", Index: 0}, lines[0])
	assert.Equal(t, ScriptLine{Raw: "  b ", Trimmed: "b", Index: 1}, lines[1])
	assert.Equal(t, ScriptLine{Raw: "", Trimmed: "", Index: 2}, lines[2])
}

func TestStats(t *testing.T) {
	stats := Stats(ClassifyText("INT. A\nBOB\n(beat)\nHi.\nYo."))
	assert.Equal(t, 1, stats[SceneHeading])
	assert.Equal(t, 1, stats[Character])
	assert.Equal(t, 1, stats[Parenthetical])
	assert.Equal(t, 2, stats[Dialogue])
	assert.Equal(t, 0, stats[Action])
	assert.Len(t, stats, len(BodyTypes))
}

func TestParagraphType_Valid(t *testing.T) {
	for _, bt := range BodyTypes {
		assert.True(t, bt.Valid())
	}
	assert.False(t, titleType.Valid())
	assert.False(t, ParagraphType("Shot").Valid())
}
