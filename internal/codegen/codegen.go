// Package codegen lowers a semantically analyzed, optimized Yul AST to a
// linear list of TargetVM instructions with symbolic labels.
// The assembler (internal/assembler) resolves those labels to byte
// offsets; codegen itself never computes an offset.
package codegen

import (
	"fmt"
	"math/big"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/opcode"
	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// Item is one element of the flat instruction stream: either an
// Instruction or a Label marking a jump/call target.
type Item interface{ item() }

// Instruction is one TargetVM opcode plus its immediate bytes. Jump and
// call opcodes carry a symbolic Jump target instead of resolved bytes;
// their Imm stays empty, and the assembler encodes the relative offset
// when it emits the instruction's bytes.
type Instruction struct {
	Op   opcode.Opcode
	Imm  []byte
	Jump string // target label name; empty for non-jump instructions
	Pos  token.Position
}

func (*Instruction) item() {}

// Label marks a position in the item stream that a Jump may target.
type Label struct{ Name string }

func (*Label) item() {}

// ExportedMethod is one ABI-exported function's label and declared
// parameter/return names. Entries must be ordered the way they were
// declared in the source, matching the manifest's methods array.
type ExportedMethod struct {
	Name    string
	Label   string
	Params  []string
	Returns []string
}

// Program is the code generator's output: everything the assembler needs
// to produce bytecode plus a function table, and everything the artifact
// writer needs to build a manifest.
type Program struct {
	Items      []Item
	EntryLabel string
	Exported   []ExportedMethod
}

// Options configures lowering: the codegen-relevant subset of the
// compiler's option set.
type Options struct {
	TargetVersion   string
	ABIExportPrefix string
}

// Error is a CodegenError-kind failure: opcode not available at the
// target version, local-frame overflow, or an unresolved builtin.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string { return e.Message }

const maxLocalSlots = 255 // INITSLOT's operand is a single byte

type generator struct {
	opt       Options
	errs      []error
	items     []Item
	funcs     map[string]*ast.FunctionDef
	labelSeq  int
	slots     map[string]slotRef
	nextArg   int
	nextLocal int
	loops     []loopLabels
	epilogue  string
}

type slotKind int

const (
	slotArg slotKind = iota
	slotLocal
)

type slotRef struct {
	kind slotKind
	idx  int
}

type loopLabels struct{ cont, end string }

// Generate lowers obj to a Program, or returns the accumulated CodegenError list.
func Generate(obj *ast.Object, opt Options) (*Program, []error) {
	order, funcs := collectFunctions(obj)
	g := &generator{opt: opt, funcs: funcs}

	entryLabel := "entry"
	g.emitLabel(entryLabel)
	g.slots = map[string]slotRef{}
	g.nextArg, g.nextLocal = 0, 0
	g.lowerTopLevelBlock(obj.Code)
	g.emit(g.op("RET", obj.Code.Pos()), nil, "", obj.Code.Pos())

	for _, name := range order {
		g.lowerFunction(g.funcs[name])
	}

	// Exported methods must list in declaration order, not lowering
	// order, so the manifest's methods array matches the source.
	var exported []ExportedMethod
	if opt.ABIExportPrefix != "" {
		for _, name := range order {
			if hasPrefix(name, opt.ABIExportPrefix) {
				fn := g.funcs[name]
				exported = append(exported, ExportedMethod{
					Name:    name,
					Label:   funcLabel(name),
					Params:  fn.Params,
					Returns: fn.Returns,
				})
			}
		}
	}

	if len(g.errs) > 0 {
		return nil, g.errs
	}
	return &Program{Items: g.items, EntryLabel: entryLabel, Exported: exported}, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// collectFunctions gathers every FunctionDef reachable from obj, in
// declaration order, along with a name-indexed lookup table.
func collectFunctions(obj *ast.Object) ([]string, map[string]*ast.FunctionDef) {
	out := map[string]*ast.FunctionDef{}
	var order []string
	var walk func(*ast.Block)
	walk = func(b *ast.Block) {
		for _, stmt := range b.Statements {
			walkStmtForFuncs(stmt, out, &order, walk)
		}
	}
	walk(obj.Code)
	for _, sub := range obj.SubObjects {
		if sub.Code != nil {
			walk(sub.Code)
		}
	}
	return order, out
}

func walkStmtForFuncs(stmt ast.Node, out map[string]*ast.FunctionDef, order *[]string, walk func(*ast.Block)) {
	switch v := stmt.(type) {
	case *ast.FunctionDef:
		out[v.Name] = v
		*order = append(*order, v.Name)
		walk(v.Body)
	case *ast.If:
		walk(v.Body)
	case *ast.Switch:
		for _, c := range v.Cases {
			walk(c.Body)
		}
		if v.Default != nil {
			walk(v.Default)
		}
	case *ast.ForLoop:
		walk(v.Init)
		walk(v.Post)
		walk(v.Body)
	case *ast.Block:
		walk(v)
	}
}

func funcLabel(name string) string { return "func_" + name }

func (g *generator) newLabel(prefix string) string {
	g.labelSeq++
	return fmt.Sprintf("%s_%d", prefix, g.labelSeq)
}

func (g *generator) emitLabel(name string) {
	g.items = append(g.items, &Label{Name: name})
}

func (g *generator) emit(op opcode.Opcode, imm []byte, jump string, pos token.Position) {
	g.items = append(g.items, &Instruction{Op: op, Imm: imm, Jump: jump, Pos: pos})
}

func (g *generator) fail(pos token.Position, format string, args ...interface{}) {
	g.errs = append(g.errs, &Error{Message: fmt.Sprintf(format, args...), Pos: pos})
}

// op resolves a mnemonic gated by the target version, recording a
// CodegenError and returning the zero opcode on failure so lowering can
// continue collecting further diagnostics.
func (g *generator) op(name string, pos token.Position) opcode.Opcode {
	d, err := opcode.Lookup(name, g.opt.TargetVersion)
	if err != nil {
		g.fail(pos, "%s", err)
		return 0
	}
	return d.Value
}

// newLocalSlot allocates a fresh LOC slot in the current function frame
// for codegen-internal temporaries (e.g. division's zero-check).
func (g *generator) newLocalSlot(pos token.Position) int {
	slot := g.nextLocal
	g.nextLocal++
	if g.nextLocal > maxLocalSlots {
		g.fail(pos, "local-frame overflow: more than %d local slots required", maxLocalSlots)
	}
	return slot
}

func (g *generator) emitLoadLocal(slot int, pos token.Position) {
	g.emit(g.op("LDLOC", pos), []byte{byte(slot)}, "", pos)
}

func (g *generator) emitStoreLocal(slot int, pos token.Position) {
	g.emit(g.op("STLOC", pos), []byte{byte(slot)}, "", pos)
}

func (g *generator) emitLoadArg(slot int, pos token.Position) {
	g.emit(g.op("LDARG", pos), []byte{byte(slot)}, "", pos)
}

func (g *generator) emitPushInt(n *big.Int, pos token.Position) {
	name, imm := encodeInt(n)
	g.emit(g.op(name, pos), imm, "", pos)
}

func (g *generator) emitJump(mnemonic, label string, pos token.Position) {
	g.emit(g.op(mnemonic, pos), nil, label, pos)
}

// lowerTopLevelBlock lowers obj.Code's statements, skipping FunctionDef
// nodes (those are lowered once, later, as standalone functions).
func (g *generator) lowerTopLevelBlock(b *ast.Block) {
	for _, stmt := range b.Statements {
		if _, ok := stmt.(*ast.FunctionDef); ok {
			continue
		}
		g.lowerStmt(stmt)
	}
}

func (g *generator) lowerBlock(b *ast.Block) {
	for _, stmt := range b.Statements {
		if _, ok := stmt.(*ast.FunctionDef); ok {
			continue // nested function declarations are hoisted and lowered separately
		}
		g.lowerStmt(stmt)
	}
}

func (g *generator) lowerFunction(fn *ast.FunctionDef) {
	savedSlots, savedArg, savedLocal, savedEpilogue := g.slots, g.nextArg, g.nextLocal, g.epilogue
	g.slots = map[string]slotRef{}
	g.nextArg, g.nextLocal = 0, 0

	for _, p := range fn.Params {
		g.slots[p] = slotRef{kind: slotArg, idx: g.nextArg}
		g.nextArg++
	}
	for _, r := range fn.Returns {
		g.slots[r] = slotRef{kind: slotLocal, idx: g.nextLocal}
		g.nextLocal++
	}

	label := funcLabel(fn.Name)
	g.epilogue = label + "_epilogue"
	g.emitLabel(label)

	// INITSLOT's final local count is only known after lowering the body
	// (temporaries allocate slots as they're encountered), so the
	// instruction is patched in after the fact by inserting it here with
	// a placeholder and rewriting it once nextLocal is final.
	initSlotIdx := len(g.items)
	g.emit(g.op("INITSLOT", fn.Pos()), []byte{0, byte(len(fn.Params))}, "", fn.Pos())

	g.lowerBlock(fn.Body)

	if instr, ok := g.items[initSlotIdx].(*Instruction); ok {
		instr.Imm = []byte{byte(g.nextLocal), byte(len(fn.Params))}
	}

	g.emitLabel(g.epilogue)
	// Returns were written into their LOC slots by ordinary assignments
	// during the body walk; load them back in declaration order so RET
	// sees them pushed in declaration order.
	for _, r := range fn.Returns {
		g.emitLoadLocal(g.slots[r].idx, fn.Pos())
	}
	g.emit(g.op("RET", fn.Pos()), nil, "", fn.Pos())

	g.slots, g.nextArg, g.nextLocal, g.epilogue = savedSlots, savedArg, savedLocal, savedEpilogue
}

func (g *generator) declareLocal(name string, pos token.Position) slotRef {
	ref := slotRef{kind: slotLocal, idx: g.newLocalSlot(pos)}
	g.slots[name] = ref
	return ref
}

func (g *generator) lowerStmt(stmt ast.Node) {
	switch v := stmt.(type) {
	case *ast.VarDecl:
		g.lowerVarDecl(v)
	case *ast.Assignment:
		g.lowerAssignment(v)
	case *ast.If:
		g.lowerIf(v)
	case *ast.Switch:
		g.lowerSwitch(v)
	case *ast.ForLoop:
		g.lowerForLoop(v)
	case *ast.Break:
		if len(g.loops) == 0 {
			g.fail(v.Pos(), "break outside a loop")
			return
		}
		g.emitJump("JMP", g.loops[len(g.loops)-1].end, v.Pos())
	case *ast.Continue:
		if len(g.loops) == 0 {
			g.fail(v.Pos(), "continue outside a loop")
			return
		}
		g.emitJump("JMP", g.loops[len(g.loops)-1].cont, v.Pos())
	case *ast.Leave:
		g.emitJump("JMP", g.epilogue, v.Pos())
	case *ast.Block:
		g.lowerBlock(v)
	case *ast.FunctionCall:
		n := g.lowerCallExpr(v)
		for i := 0; i < n; i++ {
			g.emit(g.op("DROP", v.Pos()), nil, "", v.Pos())
		}
	}
}

func (g *generator) lowerVarDecl(decl *ast.VarDecl) {
	if decl.Init == nil {
		for _, name := range decl.Names {
			ref := g.declareLocal(name, decl.Pos())
			g.emit(g.op("PUSH0", decl.Pos()), nil, "", decl.Pos())
			g.emitStoreLocal(ref.idx, decl.Pos())
		}
		return
	}
	produced := g.lowerExpr(decl.Init)
	if produced != len(decl.Names) {
		g.fail(decl.Pos(), "initializer produces %d value(s), %d name(s) declared", produced, len(decl.Names))
	}
	for i := len(decl.Names) - 1; i >= 0; i-- {
		ref := g.declareLocal(decl.Names[i], decl.Pos())
		g.emitStoreLocal(ref.idx, decl.Pos())
	}
}

func (g *generator) lowerAssignment(a *ast.Assignment) {
	produced := g.lowerExpr(a.Value)
	if produced != len(a.Targets) {
		g.fail(a.Pos(), "assignment value produces %d value(s), %d target(s)", produced, len(a.Targets))
	}
	for i := len(a.Targets) - 1; i >= 0; i-- {
		ref, ok := g.slots[a.Targets[i]]
		if !ok {
			g.fail(a.Pos(), "assignment to unresolved name %q", a.Targets[i])
			continue
		}
		switch ref.kind {
		case slotLocal:
			g.emitStoreLocal(ref.idx, a.Pos())
		case slotArg:
			g.emit(g.op("STARG", a.Pos()), []byte{byte(ref.idx)}, "", a.Pos())
		}
	}
}

func (g *generator) lowerIf(n *ast.If) {
	g.lowerExpr(n.Cond)
	end := g.newLabel("if_end")
	g.emitJump("JMPIFNOT", end, n.Pos())
	g.lowerBlock(n.Body)
	g.emitLabel(end)
}

func (g *generator) lowerSwitch(n *ast.Switch) {
	tmp := g.newLocalSlot(n.Pos())
	g.lowerExpr(n.Expr)
	g.emitStoreLocal(tmp, n.Pos())

	caseLabels := make([]string, len(n.Cases))
	for i := range n.Cases {
		caseLabels[i] = g.newLabel("case")
	}
	end := g.newLabel("switch_end")
	defaultLabel := end
	if n.Default != nil {
		defaultLabel = g.newLabel("default")
	}

	for i, c := range n.Cases {
		g.emitLoadLocal(tmp, c.Pos())
		g.emitPushInt(c.Literal.Number, c.Pos())
		g.emit(g.op("NUMEQUAL", c.Pos()), nil, "", c.Pos())
		g.emitJump("JMPIF", caseLabels[i], c.Pos())
	}
	g.emitJump("JMP", defaultLabel, n.Pos())

	for i, c := range n.Cases {
		g.emitLabel(caseLabels[i])
		g.lowerBlock(c.Body)
		g.emitJump("JMP", end, c.Pos())
	}
	if n.Default != nil {
		g.emitLabel(defaultLabel)
		g.lowerBlock(n.Default)
		g.emitJump("JMP", end, n.Pos())
	}
	g.emitLabel(end)
}

func (g *generator) lowerForLoop(n *ast.ForLoop) {
	g.lowerBlock(n.Init)
	head := g.newLabel("for_head")
	cont := g.newLabel("for_cont")
	end := g.newLabel("for_end")

	g.emitLabel(head)
	g.lowerExpr(n.Cond)
	g.emitJump("JMPIFNOT", end, n.Pos())

	g.loops = append(g.loops, loopLabels{cont: cont, end: end})
	g.lowerBlock(n.Body)
	g.loops = g.loops[:len(g.loops)-1]

	g.emitLabel(cont)
	g.lowerBlock(n.Post)
	g.emitJump("JMP", head, n.Pos())
	g.emitLabel(end)
}

// lowerExpr lowers an expression and reports how many values it leaves
// on the evaluation stack: exactly k values, where k is its static arity.
func (g *generator) lowerExpr(n ast.Node) int {
	switch v := n.(type) {
	case *ast.Literal:
		g.lowerLiteral(v)
		return 1
	case *ast.Identifier:
		ref, ok := g.slots[v.Name]
		if !ok {
			g.fail(v.Pos(), "reference to unresolved name %q", v.Name)
			return 1
		}
		switch ref.kind {
		case slotArg:
			g.emitLoadArg(ref.idx, v.Pos())
		default:
			g.emitLoadLocal(ref.idx, v.Pos())
		}
		return 1
	case *ast.FunctionCall:
		return g.lowerCallExpr(v)
	}
	g.fail(n.Pos(), "internal error: cannot lower expression of type %T", n)
	return 0
}

func (g *generator) lowerLiteral(lit *ast.Literal) {
	switch lit.Kind {
	case ast.LiteralDecimal, ast.LiteralHex:
		g.emitPushInt(lit.Number, lit.Pos())
	case ast.LiteralBool:
		if lit.Bool {
			g.emit(g.op("PUSH1", lit.Pos()), nil, "", lit.Pos())
		} else {
			g.emit(g.op("PUSH0", lit.Pos()), nil, "", lit.Pos())
		}
	case ast.LiteralString:
		name, imm := encodeData([]byte(lit.Str))
		g.emit(g.op(name, lit.Pos()), imm, "", lit.Pos())
	default:
		g.fail(lit.Pos(), "internal error: unhandled literal kind %v", lit.Kind)
	}
}

func (g *generator) lowerCallExpr(call *ast.FunctionCall) int {
	if call.Resolved == nil {
		g.fail(call.Pos(), "unresolved call to %q", call.Callee)
		return 0
	}
	switch call.Resolved.Kind {
	case ast.BindingBuiltin:
		return g.lowerBuiltin(call)
	case ast.BindingFunc:
		return g.lowerUserCall(call)
	}
	g.fail(call.Pos(), "internal error: call %q resolved to a variable binding", call.Callee)
	return 0
}

func (g *generator) lowerUserCall(call *ast.FunctionCall) int {
	fn := call.Resolved.Func
	for _, arg := range call.Args {
		g.lowerExpr(arg)
	}
	g.emitJump("CALL", funcLabel(fn.Name), call.Pos())
	return len(fn.Returns)
}
