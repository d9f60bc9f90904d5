package lexer

// ASCII character classification tables, precomputed once at package init
// for branch-free classification on the hot path (grounded on the same
// lookup-table technique used by the reference lexer this package's
// structure is adapted from).
var (
	isWhitespace [128]bool // space, tab, CR, LF, form feed
	isDigit      [128]bool // 0-9
	isHexDigit   [128]bool // 0-9, a-f, A-F
	isIdentStart [128]bool // letter or _
	isIdentPart  [128]bool // identStart or digit
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f'
		isDigit[i] = '0' <= ch && ch <= '9'
		isHexDigit[i] = isDigit[i] || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
		isIdentStart[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
	}
	for i := 0; i < 128; i++ {
		isIdentPart[i] = isIdentStart[i] || isDigit[i]
	}
}
