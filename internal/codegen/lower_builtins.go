package codegen

import (
	"math/big"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/builtins"
	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// directOpcode maps a builtin straight onto a TargetVM opcode once its
// arguments are already pushed, left to right, a one-to-one mapping.
// slt/sgt reuse LT/GT and sdiv/smod reuse the guarded div/mod sequences
// below — TargetVM's comparison and arithmetic opcodes already operate
// on arbitrary-precision signed integers, so there is no separate
// signed form to target.
var directOpcode = map[string]string{
	"add": "ADD", "sub": "SUB", "mul": "MUL", "exp": "POW",
	"not": "INVERT", "iszero": "NOT",
	"lt": "LT", "gt": "GT", "slt": "LT", "sgt": "GT", "eq": "NUMEQUAL",
	"and": "AND", "or": "OR", "xor": "XOR",
	"shl": "SHL", "shr": "SHR", "sar": "SHR",
}

// lowerBuiltin dispatches a builtin call to its lowering strategy. It
// returns the number of values the call leaves on the stack.
func (g *generator) lowerBuiltin(call *ast.FunctionCall) int {
	name := call.Callee
	def, ok := builtins.Lookup(name)
	if !ok {
		g.fail(call.Pos(), "internal error: unresolved builtin %q reached codegen", name)
		return 0
	}
	if !builtins.Gated(def.MinTargetVersion, g.opt.TargetVersion) {
		g.fail(call.Pos(), "builtin %q requires target_version >= %s, got %s", name, def.MinTargetVersion, g.opt.TargetVersion)
		return def.Arity.Returns
	}

	if op, ok := directOpcode[name]; ok {
		for _, arg := range call.Args {
			g.lowerExpr(arg)
		}
		g.emit(g.op(op, call.Pos()), nil, "", call.Pos())
		return def.Arity.Returns
	}

	switch name {
	case "div", "sdiv":
		g.lowerGuardedBinary(call, "DIV")
		return 1
	case "mod", "smod":
		g.lowerGuardedBinary(call, "MOD")
		return 1
	case "addmod":
		g.lowerExpr(call.Args[0])
		g.lowerExpr(call.Args[1])
		g.emit(g.op("ADD", call.Pos()), nil, "", call.Pos())
		g.lowerGuardedBinaryWithLHSOnStack(call, call.Args[2], "MOD")
		return 1
	case "mulmod":
		g.lowerExpr(call.Args[0])
		g.lowerExpr(call.Args[1])
		g.emit(g.op("MUL", call.Pos()), nil, "", call.Pos())
		g.lowerGuardedBinaryWithLHSOnStack(call, call.Args[2], "MOD")
		return 1
	case "byte":
		g.lowerByte(call)
		return 1
	case "pop":
		g.lowerExpr(call.Args[0])
		g.emit(g.op("DROP", call.Pos()), nil, "", call.Pos())
		return 0
	case "signextend":
		g.fail(call.Pos(), "codegen: signextend has no TargetVM lowering")
		return 1
	}

	// Everything else (memory/storage/environment builtins, keccak256,
	// and the terminating control builtins) is a SYSCALL into the
	// runtime collaborator.
	hash, ok := builtins.InteropHash(name)
	if !ok {
		g.fail(call.Pos(), "internal error: builtin %q has no interop hash and no direct lowering", name)
		return 0
	}
	for _, arg := range call.Args {
		g.lowerExpr(arg)
	}
	imm := make([]byte, 4)
	imm[0] = byte(hash)
	imm[1] = byte(hash >> 8)
	imm[2] = byte(hash >> 16)
	imm[3] = byte(hash >> 24)
	g.emit(g.op("SYSCALL", call.Pos()), imm, "", call.Pos())

	switch name {
	case "stop", "return", "revert", "invalid", "selfdestruct":
		g.emit(g.op("RET", call.Pos()), nil, "", call.Pos())
	}
	return def.Arity.Returns
}

// lowerGuardedBinary implements Yul's div/mod-by-zero-returns-0 rule
// for a two-argument builtin: evaluate both operands, branch.
// around the real opcode when the divisor is zero.
func (g *generator) lowerGuardedBinary(call *ast.FunctionCall, op string) {
	lhs := g.newLocalSlot(call.Pos())
	rhs := g.newLocalSlot(call.Pos())
	g.lowerExpr(call.Args[0])
	g.emitStoreLocal(lhs, call.Pos())
	g.lowerExpr(call.Args[1])
	g.emitStoreLocal(rhs, call.Pos())
	g.emitGuardedOp(lhs, rhs, op, call.Pos())
}

// lowerGuardedBinaryWithLHSOnStack is lowerGuardedBinary for the case
// where the left-hand operand is already the top of the evaluation
// stack (addmod/mulmod, after their inner ADD/MUL).
func (g *generator) lowerGuardedBinaryWithLHSOnStack(call *ast.FunctionCall, rhsExpr ast.Node, op string) {
	lhs := g.newLocalSlot(call.Pos())
	rhs := g.newLocalSlot(call.Pos())
	g.emitStoreLocal(lhs, call.Pos())
	g.lowerExpr(rhsExpr)
	g.emitStoreLocal(rhs, call.Pos())
	g.emitGuardedOp(lhs, rhs, op, call.Pos())
}

func (g *generator) emitGuardedOp(lhs, rhs int, op string, pos token.Position) {
	zeroLabel := g.newLabel(op + "_zero")
	endLabel := g.newLabel(op + "_end")
	g.emitLoadLocal(rhs, pos)
	g.emit(g.op("PUSH0", pos), nil, "", pos)
	g.emit(g.op("NUMEQUAL", pos), nil, "", pos)
	g.emitJump("JMPIF", zeroLabel, pos)
	g.emitLoadLocal(lhs, pos)
	g.emitLoadLocal(rhs, pos)
	g.emit(g.op(op, pos), nil, "", pos)
	g.emitJump("JMP", endLabel, pos)
	g.emitLabel(zeroLabel)
	g.emit(g.op("PUSH0", pos), nil, "", pos)
	g.emitLabel(endLabel)
}

// lowerByte implements byte(n, x): the n-th byte from the left of x's
// 256-bit representation, or 0 when n >= 32. Unlike the arithmetic
// builtins, which map one-to-one onto a TargetVM opcode, byte has none,
// so it is expanded here to shift+mask.
func (g *generator) lowerByte(call *ast.FunctionCall) {
	n := g.newLocalSlot(call.Pos())
	x := g.newLocalSlot(call.Pos())
	g.lowerExpr(call.Args[0])
	g.emitStoreLocal(n, call.Pos())
	g.lowerExpr(call.Args[1])
	g.emitStoreLocal(x, call.Pos())

	outOfRange := g.newLabel("byte_oor")
	end := g.newLabel("byte_end")

	g.emitLoadLocal(n, call.Pos())
	g.emitPushInt(big.NewInt(31), call.Pos())
	g.emit(g.op("GT", call.Pos()), nil, "", call.Pos())
	g.emitJump("JMPIF", outOfRange, call.Pos())

	// shift = (31 - n) * 8
	g.emitPushInt(big.NewInt(31), call.Pos())
	g.emitLoadLocal(n, call.Pos())
	g.emit(g.op("SUB", call.Pos()), nil, "", call.Pos())
	g.emitPushInt(big.NewInt(8), call.Pos())
	g.emit(g.op("MUL", call.Pos()), nil, "", call.Pos())
	// stack: [shift]; SHR takes (shift, value) in that push order, same
	// as the generic shl/shr/sar builtins above.
	g.emitLoadLocal(x, call.Pos())
	g.emit(g.op("SHR", call.Pos()), nil, "", call.Pos())
	g.emitPushInt(big.NewInt(0xFF), call.Pos())
	g.emit(g.op("AND", call.Pos()), nil, "", call.Pos())
	g.emitJump("JMP", end, call.Pos())

	g.emitLabel(outOfRange)
	g.emit(g.op("PUSH0", call.Pos()), nil, "", call.Pos())

	g.emitLabel(end)
}
