package diagnostics

import (
	"strings"

	"golang.org/x/text/width"
)

// displayColumn returns the column to print in the one-line rendering.
// Without source text available we fall back to the lexer's byte-based
// column; RenderCaret below refines this with the East-Asian-width-aware
// display column when the source line is available.
func displayColumn(d Diagnostic) int {
	return d.Pos.Column
}

// DisplayWidth returns the terminal column width of s, treating
// full-width and wide East-Asian runes as occupying two columns. Yul
// source embeds arbitrary UTF-8 inside string literals and comments, so a
// byte- or rune-count column is not always where a terminal caret lands.
func DisplayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}

// RenderCaret renders a diagnostic followed by the offending source line
// and a caret aligned under the reported position, using display-width
// (not byte or rune count) so multi-byte UTF-8 prefixes don't throw off
// alignment in a terminal.
func RenderCaret(d Diagnostic, sourceLine string) string {
	var b strings.Builder
	b.WriteString(Render(d))
	if d.Pos == nil {
		return b.String()
	}
	b.WriteByte('\n')
	b.WriteString(sourceLine)
	b.WriteByte('\n')

	runes := []rune(sourceLine)
	upto := d.Pos.Column - 1
	if upto > len(runes) {
		upto = len(runes)
	}
	if upto < 0 {
		upto = 0
	}
	pad := DisplayWidth(string(runes[:upto]))
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteByte('^')
	return b.String()
}
