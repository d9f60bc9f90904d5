package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
	"github.com/r3e-network/neo-solidity-sub001/internal/lexer"
	"github.com/r3e-network/neo-solidity-sub001/internal/parser"
	"github.com/r3e-network/neo-solidity-sub001/internal/sema"
)

func analyze(t *testing.T, src string) (*ast.Object, *Context) {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	obj, errs := parser.Parse(toks)
	require.Empty(t, errs, "%v", errs)

	bag := diagnostics.NewBag(0)
	res, err := sema.Analyze(obj, sema.Options{ExportPrefix: "external_", Bag: bag})
	require.NoError(t, err)

	exported := make(map[*ast.FunctionDef]bool)
	for _, fn := range res.Exported {
		exported[fn] = true
	}
	return obj, &Context{Attrs: res.Attrs, Exported: exported, Bag: bag}
}

// S2: let x := add(2, 3) folds to a literal at level >= 1.
func TestConstantFoldScenarioS2(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		let x := add(2, 3)
	} }`)
	Run(obj, 1, ctx)

	decl := obj.Code.Statements[0].(*ast.VarDecl)
	lit, ok := decl.Init.(*ast.Literal)
	require.True(t, ok, "expected add(2,3) to fold to a literal, got %T", decl.Init)
	assert.Equal(t, "5", lit.Number.String())
}

// S3: code after an unconditional return is unreachable and dropped
// with an UnreachableCode warning at level >= 2.
func TestDeadCodeScenarioS3(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		function f() {
			return(0, 0)
			let x := 1
		}
		f()
	} }`)
	Run(obj, 2, ctx)

	fn := obj.Code.Statements[0].(*ast.FunctionDef)
	assert.Len(t, fn.Body.Statements, 1, "statement after return() should be removed")

	found := false
	for _, d := range ctx.Bag.Warnings() {
		if d.Message != "" && containsSubstring(d.Message, "UnreachableCode") {
			found = true
		}
	}
	assert.True(t, found, "expected an UnreachableCode warning")
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestDeadCodeRemovesUnusedPureLet(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		let unused := add(1, 2)
		sstore(0, 1)
	} }`)
	Run(obj, 2, ctx)
	for _, stmt := range obj.Code.Statements {
		if decl, ok := stmt.(*ast.VarDecl); ok {
			assert.NotEqual(t, []string{"unused"}, decl.Names)
		}
	}
}

func TestDeadCodeKeepsExportedZeroCallFunction(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		function external_entry() {
			sstore(0, 1)
		}
	} }`)
	Run(obj, 2, ctx)
	require.Len(t, obj.Code.Statements, 1)
	_, ok := obj.Code.Statements[0].(*ast.FunctionDef)
	assert.True(t, ok, "exported function must survive even with zero call sites")
}

func TestDeadCodeDropsUncalledNonExportedFunction(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		function helper() {
			sstore(0, 1)
		}
		function external_entry() {
			sstore(1, 2)
		}
	} }`)
	Run(obj, 2, ctx)
	for _, stmt := range obj.Code.Statements {
		if fn, ok := stmt.(*ast.FunctionDef); ok {
			assert.NotEqual(t, "helper", fn.Name)
		}
	}
}

func TestInlineSingleReturnLeafFunction(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		function double(a) -> r {
			r := mul(a, 2)
		}
		let y := double(5)
	} }`)
	Run(obj, 3, ctx)

	var found bool
	for _, stmt := range obj.Code.Statements {
		if decl, ok := stmt.(*ast.VarDecl); ok && len(decl.Names) == 1 && decl.Names[0] == "y" {
			found = true
		}
		if call, ok := stmt.(*ast.FunctionCall); ok {
			assert.NotEqual(t, "double", call.Callee)
		}
	}
	assert.True(t, found)
}

func TestLevelZeroIsNoOp(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		let x := add(2, 3)
	} }`)
	Run(obj, 0, ctx)
	decl := obj.Code.Statements[0].(*ast.VarDecl)
	_, stillACall := decl.Init.(*ast.FunctionCall)
	assert.True(t, stillACall, "level 0 must not fold anything")
}

func TestOptimizerIsIdempotent(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		function f() {
			return(0, 0)
			let x := 1
		}
		let y := add(2, 3)
	} }`)
	Run(obj, 3, ctx)
	before := len(obj.Code.Statements)
	Run(obj, 3, ctx)
	assert.Equal(t, before, len(obj.Code.Statements))
}

func TestCommonSubexpressionElimination(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		let a := mload(0)
		let b := mload(0)
	} }`)
	Run(obj, 3, ctx)

	second := obj.Code.Statements[1].(*ast.VarDecl)
	_, isCall := second.Init.(*ast.FunctionCall)
	assert.True(t, isCall, "mload is not pure, so CSE must not merge repeated reads")
}

func TestCommonSubexpressionEliminationOnPureBuiltin(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		let x := calldataload(0)
		let a := add(x, 1)
		let b := add(x, 1)
		sstore(a, b)
	} }`)
	Run(obj, 3, ctx)

	second := obj.Code.Statements[2].(*ast.VarDecl)
	id, ok := second.Init.(*ast.Identifier)
	require.True(t, ok, "second add(x,1) should be replaced by a reference to a's value, got %T", second.Init)
	assert.Equal(t, "a", id.Name)
}

func TestLoopInvariantHoisting(t *testing.T) {
	obj, ctx := analyze(t, `object "X" { code {
		for { let i := 0 } lt(i, 10) { i := add(i, 1) } {
			let k := add(1, 2)
			sstore(i, k)
		}
	} }`)
	Run(obj, 3, ctx)

	loop := obj.Code.Statements[0].(*ast.ForLoop)
	foundInInit := false
	for _, stmt := range loop.Init.Statements {
		if decl, ok := stmt.(*ast.VarDecl); ok && len(decl.Names) == 1 && decl.Names[0] == "k" {
			foundInInit = true
		}
	}
	assert.True(t, foundInInit, "invariant let k := add(1,2) should be hoisted into the loop init")
}
