package lexer

import (
	"testing"

	"github.com/r3e-network/neo-solidity-sub001/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexObjectSkeleton(t *testing.T) {
	toks, err := Lex(`object "X" { code { } }`)
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.OBJECT, token.STRING, token.LBRACE,
		token.CODE, token.LBRACE, token.RBRACE,
		token.RBRACE, token.EOF,
	}, kinds(toks))
}

func TestLexAssignAndArrow(t *testing.T) {
	toks, err := Lex(`let x := 1 function f() -> y { }`)
	require.NoError(t, err)
	require.True(t, len(toks) > 0)
	assert.Equal(t, token.ASSIGN, toks[2].Kind)
	var sawArrow bool
	for _, tk := range toks {
		if tk.Kind == token.ARROW {
			sawArrow = true
		}
	}
	assert.True(t, sawArrow)
}

func TestLexHexAndDecimalArbitraryPrecision(t *testing.T) {
	toks, err := Lex(`0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF 123456789012345678901234567890`)
	require.NoError(t, err)
	assert.Equal(t, token.HEX, toks[0].Kind)
	assert.Equal(t, "0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF", toks[0].Lexeme)
	assert.Equal(t, token.DECIMAL, toks[1].Kind)
	assert.Equal(t, "123456789012345678901234567890", toks[1].Lexeme)
}

func TestLexNestedBlockComment(t *testing.T) {
	toks, err := Lex("/* outer /* inner */ still-comment */ let x := 1")
	require.NoError(t, err)
	assert.Equal(t, token.LET, toks[0].Kind)
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Lex(`"abc`)
	require.Error(t, err)
	lexErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "UnterminatedString", lexErr.Kind)
}

func TestLexUnexpectedChar(t *testing.T) {
	_, err := Lex(`let x := 1 # 2`)
	require.Error(t, err)
	lexErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "UnexpectedChar", lexErr.Kind)
}

func TestLexBuiltinCategoryTagging(t *testing.T) {
	toks, err := Lex(`add(mload(0), sload(1))`)
	require.NoError(t, err)
	assert.Equal(t, token.BUILTIN, toks[0].Kind)
	assert.Equal(t, token.CategoryArithmetic, toks[0].Category)
}

func TestValidateBalanceRejectsUnbalanced(t *testing.T) {
	_, err := Lex(`object "X" { code { }`)
	require.Error(t, err)
}

func TestTokenPositionsMonotonic(t *testing.T) {
	toks, err := Lex("let x := 1\nlet y := 2")
	require.NoError(t, err)
	for i := 1; i < len(toks); i++ {
		assert.GreaterOrEqual(t, toks[i].Pos.Offset, toks[i-1].Pos.Offset)
	}
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}
