package sema

import (
	"testing"

	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
	"github.com/r3e-network/neo-solidity-sub001/internal/lexer"
	"github.com/r3e-network/neo-solidity-sub001/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeSource(t *testing.T, src string) (*Result, *diagnostics.Bag) {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	obj, perrs := parser.Parse(toks)
	require.Empty(t, perrs)
	bag := diagnostics.NewBag(0)
	res, err := Analyze(obj, Options{ExportPrefix: "fun_", Bag: bag})
	return res, bag
}

func TestUndefinedIdentifierReported(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code { let x := y } }`)
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Errors()[0].Message, "undefined identifier")
}

func TestUndefinedIdentifierSuggestsNearMiss(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code { let amount := 1 let x := amoun } }`)
	require.True(t, bag.HasErrors())
	found := false
	for _, e := range bag.Errors() {
		if containsAll(e.Message, "undefined identifier", "did you mean") {
			found = true
		}
	}
	assert.True(t, found)
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !contains(s, p) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestDuplicateSwitchCaseRejected(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code {
		let x := 1
		switch x
		case 1 { }
		case 1 { }
		default { }
	} }`)
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Errors()[0].Message, "duplicate switch case")
}

func TestBreakOutsideLoopRejected(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code { break } }`)
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Errors()[0].Message, "break outside")
}

func TestLeaveOutsideFunctionRejected(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code { leave } }`)
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Errors()[0].Message, "leave outside")
}

func TestForwardFunctionReferenceAllowed(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code {
		function caller() -> r { r := callee() }
		function callee() -> r { r := 1 }
	} }`)
	assert.False(t, bag.HasErrors())
}

func TestFunctionDefInsideControlFlowAtTopLevelAllowed(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code {
		if calldataload(0) {
			function fromIf() -> r { r := 1 }
		}
		switch calldataload(0)
		case 0 {
			function fromCase() -> r { r := 2 }
		}
		default {
			function fromDefault() -> r { r := 3 }
		}
		for { function fromInit() -> r { r := 4 } } 1 { function fromPost() -> r { r := 5 } } {
			function fromBody() -> r { r := 6 }
		}
		{
			function fromBlock() -> r { r := 7 }
		}
	} }`)
	assert.False(t, bag.HasErrors(), "a FunctionDef nested only inside control-flow blocks at the object's top level is not a NestedFunction")
}

func TestFunctionDefInsideFunctionBodyRejected(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code {
		function outer() -> r {
			function inner() -> r2 { r2 := 1 }
			r := inner()
		}
	} }`)
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Errors()[0].Message, "nested function")
}

func TestFunctionDefInsideControlFlowWithinFunctionBodyRejected(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code {
		function outer() -> r {
			if 1 {
				function inner() -> r2 { r2 := 1 }
			}
			r := 1
		}
	} }`)
	require.True(t, bag.HasErrors(), "a FunctionDef inside control flow nested within a function body is still a NestedFunction")
	assert.Contains(t, bag.Errors()[0].Message, "nested function")
}

func TestCaptureOfOuterLocalRejected(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code {
		let outer := 1
		function f() -> r { r := outer }
	} }`)
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Errors()[0].Message, "undefined identifier")
}

func TestExportedFunctionsCollected(t *testing.T) {
	res, bag := analyzeSource(t, `object "X" { code {
		function fun_transfer(a) -> r { r := a }
		function helper(a) -> r { r := a }
	} }`)
	require.False(t, bag.HasErrors())
	require.Len(t, res.Exported, 1)
	assert.Equal(t, "fun_transfer", res.Exported[0].Name)
}

func TestPurityPropagatesThroughCallGraph(t *testing.T) {
	res, bag := analyzeSource(t, `object "X" { code {
		function pureOne(a) -> r { r := add(a, 1) }
		function impureOne() -> r { r := sload(0) }
		function callsImpure() -> r { r := impureOne() }
	} }`)
	require.False(t, bag.HasErrors())
	for fn, attrs := range res.Attrs {
		switch fn.Name {
		case "pureOne":
			assert.True(t, attrs.Pure)
		case "impureOne", "callsImpure":
			assert.False(t, attrs.Pure)
		}
	}
}

func TestBuiltinArityMismatchRejected(t *testing.T) {
	_, bag := analyzeSource(t, `object "X" { code { let x := add(1) } }`)
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Errors()[0].Message, "expects 2 argument")
}
