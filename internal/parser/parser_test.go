package parser

import (
	"testing"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *ast.Object {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	obj, errs := Parse(toks)
	require.Empty(t, errs, "%v", errs)
	require.NotNil(t, obj)
	return obj
}

func TestParseEmptyObject(t *testing.T) {
	obj := mustParse(t, `object "X" { code { } }`)
	assert.Equal(t, "X", obj.Name)
	require.NotNil(t, obj.Code)
	assert.Empty(t, obj.Code.Statements)
}

func TestParseSubObjectAndData(t *testing.T) {
	obj := mustParse(t, `object "X" {
		code { }
		object "X_deployed" { code { } }
		data "metadata" hex"cafe"
	}`)
	require.Len(t, obj.SubObjects, 1)
	assert.Equal(t, "X_deployed", obj.SubObjects[0].Name)
	require.Len(t, obj.DataItems, 1)
	assert.Equal(t, []byte{0xca, 0xfe}, obj.DataItems[0].Value)
}

func TestParseBareBlock(t *testing.T) {
	obj := mustParse(t, `{ let x := 1 }`)
	assert.Equal(t, "", obj.Name)
	require.Len(t, obj.Code.Statements, 1)
}

func TestParseFunctionDefWithReturns(t *testing.T) {
	obj := mustParse(t, `object "X" { code {
		function add2(a, b) -> sum {
			sum := add(a, b)
		}
	} }`)
	fn, ok := obj.Code.Statements[0].(*ast.FunctionDef)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, fn.Params)
	assert.Equal(t, []string{"sum"}, fn.Returns)
}

func TestParseIfSwitchFor(t *testing.T) {
	obj := mustParse(t, `object "X" { code {
		let x := 1
		if x { x := 2 }
		switch x
		case 0 { x := 3 }
		default { x := 4 }
		for { let i := 0 } lt(i, 10) { i := add(i, 1) } { x := i }
	} }`)
	assert.Len(t, obj.Code.Statements, 4)
	sw, ok := obj.Code.Statements[2].(*ast.Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 1)
	require.NotNil(t, sw.Default)
	_, ok = obj.Code.Statements[3].(*ast.ForLoop)
	require.True(t, ok)
}

func TestParseHexAndDecimalLiteralsArbitraryPrecision(t *testing.T) {
	obj := mustParse(t, `object "X" { code {
		let a := 0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF
		let b := 123456789012345678901234567890
	} }`)
	a := obj.Code.Statements[0].(*ast.VarDecl).Init.(*ast.Literal)
	assert.Equal(t, "340282366920938463463374607431768211455", a.Number.String())
	b := obj.Code.Statements[1].(*ast.VarDecl).Init.(*ast.Literal)
	assert.Equal(t, "123456789012345678901234567890", b.Number.String())
}

func TestParseMultiAssignFromCall(t *testing.T) {
	obj := mustParse(t, `object "X" { code {
		function two() -> a, b { a := 1 b := 2 }
		let x, y := two()
	} }`)
	decl := obj.Code.Statements[1].(*ast.VarDecl)
	assert.Equal(t, []string{"x", "y"}, decl.Names)
}

func TestSwitchRequiresCaseOrDefault(t *testing.T) {
	toks, err := lexer.Lex(`object "X" { code { switch 1 } }`)
	require.NoError(t, err)
	_, errs := Parse(toks)
	require.NotEmpty(t, errs)
}

func TestParseErrorRecoveryAccumulatesMultiple(t *testing.T) {
	toks, err := lexer.Lex(`object "X" { code {
		let := 1
		let := 2
	} }`)
	require.NoError(t, err)
	_, errs := Parse(toks)
	require.True(t, len(errs) >= 2)
}

func TestParseNestedForLoopBreak(t *testing.T) {
	obj := mustParse(t, `object "X" { code {
		for { } 1 { } {
			for { } 1 { } {
				break
			}
		}
	} }`)
	outer := obj.Code.Statements[0].(*ast.ForLoop)
	inner := outer.Body.Statements[0].(*ast.ForLoop)
	_, ok := inner.Body.Statements[0].(*ast.Break)
	assert.True(t, ok)
}
