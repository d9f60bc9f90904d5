package codegen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
	"github.com/r3e-network/neo-solidity-sub001/internal/lexer"
	"github.com/r3e-network/neo-solidity-sub001/internal/opcode"
	"github.com/r3e-network/neo-solidity-sub001/internal/optimizer"
	"github.com/r3e-network/neo-solidity-sub001/internal/parser"
	"github.com/r3e-network/neo-solidity-sub001/internal/sema"
)

func lower(t *testing.T, src string, opt Options) (*Program, []error) {
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
	optimizer.Run(obj, 0, &optimizer.Context{Attrs: res.Attrs, Exported: exported, Bag: bag})

	if opt.TargetVersion == "" {
		opt.TargetVersion = "3.0"
	}
	return Generate(obj, opt)
}

func mnemonics(t *testing.T, prog *Program) []string {
	t.Helper()
	var out []string
	for _, item := range prog.Items {
		instr, ok := item.(*Instruction)
		if !ok {
			continue
		}
		d, found := opcode.ByValue(instr.Op)
		require.True(t, found, "unknown opcode byte 0x%02X in generated program", instr.Op)
		out = append(out, d.Name)
	}
	return out
}

func containsOp(names []string, op string) bool {
	for _, n := range names {
		if n == op {
			return true
		}
	}
	return false
}

func TestGenerateSimpleArithmetic(t *testing.T) {
	prog, errs := lower(t, `object "X" { code {
		let x := add(2, 3)
		sstore(0, x)
	} }`, Options{})
	require.Empty(t, errs)

	ops := mnemonics(t, prog)
	assert.True(t, containsOp(ops, "ADD"), "expected ADD in %v", ops)
	assert.True(t, containsOp(ops, "SYSCALL"), "sstore must lower to a SYSCALL, got %v", ops)
}

func TestGenerateIfEmitsConditionalJump(t *testing.T) {
	prog, errs := lower(t, `object "X" { code {
		if gt(calldataload(0), 0) {
			sstore(0, 1)
		}
	} }`, Options{})
	require.Empty(t, errs)

	var labels []string
	for _, item := range prog.Items {
		if l, ok := item.(*Label); ok {
			labels = append(labels, l.Name)
		}
	}
	found := false
	for _, l := range labels {
		if l == "if_end_1" {
			found = true
		}
	}
	assert.True(t, found, "expected an if_end label, got %v", labels)

	ops := mnemonics(t, prog)
	assert.True(t, containsOp(ops, "JMPIFNOT"))
}

// S5-shaped: a break inside a nested loop must target its own loop's end
// label, not the outer loop's.
func TestGenerateNestedLoopBreakTargetsInnerEnd(t *testing.T) {
	prog, errs := lower(t, `object "X" { code {
		for { let i := 0 } lt(i, 10) { i := add(i, 1) } {
			for { let j := 0 } lt(j, 10) { j := add(j, 1) } {
				break
			}
		}
	} }`, Options{})
	require.Empty(t, errs)

	var endLabels []string
	for _, item := range prog.Items {
		if l, ok := item.(*Label); ok && len(l.Name) >= 7 && l.Name[:7] == "for_end" {
			endLabels = append(endLabels, l.Name)
		}
	}
	require.Len(t, endLabels, 2, "expected two distinct for_end labels for the nested loops")

	var breakJumpsToInnerEnd bool
	for _, item := range prog.Items {
		instr, ok := item.(*Instruction)
		if !ok || instr.Jump == "" {
			continue
		}
		d, _ := opcode.ByValue(instr.Op)
		// The inner loop is lowered, and its for_end label emitted, before
		// the outer loop's, so endLabels[0] is the inner loop's end.
		if d.Name == "JMP" && instr.Jump == endLabels[0] {
			breakJumpsToInnerEnd = true
		}
	}
	assert.True(t, breakJumpsToInnerEnd, "break must jump to the inner loop's own for_end label")
}

func TestGenerateMultiReturnUserCall(t *testing.T) {
	prog, errs := lower(t, `object "X" { code {
		function divmod(a, b) -> q, r {
			q := div(a, b)
			r := mod(a, b)
		}
		let x, y := divmod(10, 3)
		sstore(0, x)
		sstore(1, y)
	} }`, Options{})
	require.Empty(t, errs)

	ops := mnemonics(t, prog)
	assert.True(t, containsOp(ops, "CALL"))
	assert.True(t, containsOp(ops, "INITSLOT"))
}

func TestGenerateExportedMethodsInDeclarationOrder(t *testing.T) {
	prog, errs := lower(t, `object "X" { code {
		function external_zzz() {
			sstore(0, 1)
		}
		function external_aaa() {
			sstore(1, 2)
		}
	} }`, Options{ABIExportPrefix: "external_"})
	require.Empty(t, errs)

	require.Len(t, prog.Exported, 2)
	assert.Equal(t, "external_zzz", prog.Exported[0].Name, "exported methods must follow declaration order, not alphabetical order")
	assert.Equal(t, "external_aaa", prog.Exported[1].Name)

	want := []ExportedMethod{
		{Name: "external_zzz", Label: "func_external_zzz"},
		{Name: "external_aaa", Label: "func_external_aaa"},
	}
	if diff := cmp.Diff(want, prog.Exported); diff != "" {
		t.Errorf("exported method table mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateSignextendIsRefused(t *testing.T) {
	_, errs := lower(t, `object "X" { code {
		let x := signextend(0, 1)
	} }`, Options{})
	require.NotEmpty(t, errs, "signextend has no TargetVM lowering and must fail codegen, not emit wrong semantics")
}

func TestGenerateRejectsBuiltinAboveTargetVersion(t *testing.T) {
	_, errs := lower(t, `object "X" { code {
		let x := basefee()
	} }`, Options{TargetVersion: "3.0"})
	require.NotEmpty(t, errs, "basefee requires target version 3.4 and must be refused at 3.0")

	_, errs = lower(t, `object "X" { code {
		let x := basefee()
	} }`, Options{TargetVersion: "3.4"})
	assert.Empty(t, errs)
}

func TestGenerateLocalFrameOverflow(t *testing.T) {
	var body string
	for i := 0; i < 300; i++ {
		body += "let v" + itoa(i) + " := calldataload(0)\n"
	}
	src := `object "X" { code { function f() { ` + body + ` } } }`
	_, errs := lower(t, src, Options{})
	require.NotEmpty(t, errs, "a function needing more than 255 local slots must fail codegen")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestGenerateDivByZeroGuard(t *testing.T) {
	prog, errs := lower(t, `object "X" { code {
		let x := div(calldataload(0), calldataload(1))
		sstore(0, x)
	} }`, Options{})
	require.Empty(t, errs)

	ops := mnemonics(t, prog)
	assert.True(t, containsOp(ops, "NUMEQUAL"), "div must guard against a zero divisor")
	assert.True(t, containsOp(ops, "DIV"))
}
