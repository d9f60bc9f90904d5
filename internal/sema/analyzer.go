package sema

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/builtins"
	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// FuncAttrs is the set of per-function attributes the analyzer computes
// for later stages to consume: whether the body may reenter,
// whether it is effectively pure, and a conservative stack-effect
// estimate for its leaf expressions.
type FuncAttrs struct {
	Reenters    bool
	Pure        bool
	StackEffect int
}

// Options configures the analyzer beyond the closed compiler option set;
// AllowNestedFunctions gates whether function definitions may nest inside
// other function bodies.
type Options struct {
	AllowNestedFunctions bool
	ExportPrefix         string
	Bag                  *diagnostics.Bag
}

// Result carries everything downstream stages need once scopes are torn
// down: scopes are discarded after code generation, but attributes and
// exported functions must survive past that point.
type Result struct {
	Attrs    map[*ast.FunctionDef]*FuncAttrs
	Exported []*ast.FunctionDef
}

type analyzer struct {
	opt       Options
	arena     *arena
	funcs     map[string]*ast.FunctionDef // all user functions by name, object-wide
	attrs     map[*ast.FunctionDef]*FuncAttrs
	loopDepth int
	funcStack []*ast.FunctionDef
}

// Analyze runs the declaration walk then the usage walk over obj.
func Analyze(obj *ast.Object, opt Options) (*Result, error) {
	a := &analyzer{
		opt:   opt,
		arena: newArena(),
		funcs: make(map[string]*ast.FunctionDef),
		attrs: make(map[*ast.FunctionDef]*FuncAttrs),
	}
	if obj.Code == nil {
		return nil, fmt.Errorf("object %q has no code block", obj.Name)
	}

	root := rootScope
	a.declareFunctionsInBlock(obj.Code, root, 0)
	a.walkBlock(obj.Code, root, 0)

	a.computeClosurePurity()
	for _, fn := range a.funcs {
		a.attrs[fn].StackEffect = estimateStackEffect(fn.Body)
	}

	var exported []*ast.FunctionDef
	names := make([]string, 0, len(a.funcs))
	for name := range a.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fn := a.funcs[name]
		if a.opt.ExportPrefix != "" && len(name) >= len(a.opt.ExportPrefix) && name[:len(a.opt.ExportPrefix)] == a.opt.ExportPrefix {
			exported = append(exported, fn)
		}
	}

	if a.opt.Bag.HasErrors() {
		return nil, fmt.Errorf("semantic analysis failed")
	}
	return &Result{Attrs: a.attrs, Exported: exported}, nil
}

// declareFunctionsInBlock pre-declares every FunctionDef directly inside
// block before any body is analyzed, so forward references resolve.
func (a *analyzer) declareFunctionsInBlock(block *ast.Block, sc scopeID, depth int) {
	for _, stmt := range block.Statements {
		fn, ok := stmt.(*ast.FunctionDef)
		if !ok {
			continue
		}
		if depth > 0 && !a.opt.AllowNestedFunctions {
			a.opt.Bag.AddErrorAt(diagnostics.KindSemantic,
				fmt.Sprintf("nested function %q not permitted at this language level", fn.Name), fn.Pos())
			continue
		}
		if _, exists := a.funcs[fn.Name]; exists {
			a.opt.Bag.AddErrorAt(diagnostics.KindSemantic,
				fmt.Sprintf("redeclaration of function %q", fn.Name), fn.Pos())
			continue
		}
		a.funcs[fn.Name] = fn
		a.attrs[fn] = &FuncAttrs{Pure: true}
		a.arena.declare(sc, fn.Name, &ast.Binding{Kind: ast.BindingFunc, Func: fn})
	}
}

func (a *analyzer) walkBlock(block *ast.Block, sc scopeID, depth int) {
	for _, stmt := range block.Statements {
		a.walkStmt(stmt, sc, depth)
	}
}

// walkStmt descends into stmt's nested blocks at the same function-nesting
// depth it was called with: an If/Switch/ForLoop/Block is control flow, not
// a function body, so it never increases depth on its own. Only
// walkFunctionDef, when it descends into a FunctionDef's own body, passes
// depth+1.
func (a *analyzer) walkStmt(stmt ast.Node, sc scopeID, depth int) {
	switch n := stmt.(type) {
	case *ast.VarDecl:
		if n.Init != nil {
			a.walkExpr(n.Init, sc)
		}
		for _, name := range n.Names {
			if a.arena.declare(sc, name, &ast.Binding{Kind: ast.BindingVar}) {
				a.opt.Bag.AddErrorAt(diagnostics.KindSemantic,
					fmt.Sprintf("redeclaration of variable %q", name), n.Pos())
			}
		}
	case *ast.Assignment:
		a.walkExpr(n.Value, sc)
		for _, name := range n.Targets {
			if _, ok := a.arena.lookupVar(sc, name); !ok {
				a.undefined(name, n.Pos(), sc)
			}
		}
	case *ast.If:
		a.walkExpr(n.Cond, sc)
		child := a.arena.push(sc, false)
		a.declareFunctionsInBlock(n.Body, child, depth)
		a.walkBlock(n.Body, child, depth)
	case *ast.Switch:
		a.walkExpr(n.Expr, sc)
		a.checkDuplicateCases(n)
		for _, c := range n.Cases {
			child := a.arena.push(sc, false)
			a.declareFunctionsInBlock(c.Body, child, depth)
			a.walkBlock(c.Body, child, depth)
		}
		if n.Default != nil {
			child := a.arena.push(sc, false)
			a.declareFunctionsInBlock(n.Default, child, depth)
			a.walkBlock(n.Default, child, depth)
		}
	case *ast.ForLoop:
		initScope := a.arena.push(sc, false)
		a.declareFunctionsInBlock(n.Init, initScope, depth)
		a.walkBlock(n.Init, initScope, depth)
		a.walkExpr(n.Cond, initScope)
		a.loopDepth++
		postScope := a.arena.push(initScope, false)
		a.declareFunctionsInBlock(n.Post, postScope, depth)
		a.walkBlock(n.Post, postScope, depth)
		bodyScope := a.arena.push(initScope, false)
		a.declareFunctionsInBlock(n.Body, bodyScope, depth)
		a.walkBlock(n.Body, bodyScope, depth)
		a.loopDepth--
	case *ast.Break:
		if a.loopDepth == 0 {
			a.opt.Bag.AddErrorAt(diagnostics.KindSemantic, "break outside of a for-loop", n.Pos())
		}
	case *ast.Continue:
		if a.loopDepth == 0 {
			a.opt.Bag.AddErrorAt(diagnostics.KindSemantic, "continue outside of a for-loop", n.Pos())
		}
	case *ast.Leave:
		if len(a.funcStack) == 0 {
			a.opt.Bag.AddErrorAt(diagnostics.KindSemantic, "leave outside of a function", n.Pos())
		}
	case *ast.FunctionCall:
		a.walkExpr(n, sc)
	case *ast.FunctionDef:
		a.walkFunctionDef(n, sc, depth)
	case *ast.Block:
		child := a.arena.push(sc, false)
		a.declareFunctionsInBlock(n, child, depth)
		a.walkBlock(n, child, depth)
	default:
		// Identifier/Literal as a bare statement: not valid Yul, but the
		// parser never produces it; nothing to resolve.
	}
}

func (a *analyzer) walkFunctionDef(fn *ast.FunctionDef, outer scopeID, depth int) {
	fnScope := a.arena.push(outer, true)
	for i, p := range fn.Params {
		a.arena.declare(fnScope, p, &ast.Binding{Kind: ast.BindingVar, Slot: i})
	}
	for i, r := range fn.Returns {
		a.arena.declare(fnScope, r, &ast.Binding{Kind: ast.BindingVar, Slot: len(fn.Params) + i})
	}
	a.funcStack = append(a.funcStack, fn)
	a.declareFunctionsInBlock(fn.Body, fnScope, depth+1)
	a.walkBlock(fn.Body, fnScope, depth+1)
	a.funcStack = a.funcStack[:len(a.funcStack)-1]
}

func (a *analyzer) walkExpr(expr ast.Node, sc scopeID) {
	switch n := expr.(type) {
	case *ast.Identifier:
		b, ok := a.arena.lookupVar(sc, n.Name)
		if !ok {
			a.undefined(n.Name, n.Pos(), sc)
			return
		}
		n.Resolved = b
	case *ast.FunctionCall:
		a.resolveCall(n, sc)
	case *ast.Literal:
		// nothing to resolve
	case nil:
	default:
	}
}

func (a *analyzer) resolveCall(call *ast.FunctionCall, sc scopeID) {
	for _, arg := range call.Args {
		a.walkExpr(arg, sc)
	}

	if b, ok := builtins.Lookup(call.Callee); ok {
		if len(call.Args) != b.Arity.Params {
			a.opt.Bag.AddErrorAt(diagnostics.KindSemantic,
				fmt.Sprintf("builtin %q expects %d argument(s), got %d", call.Callee, b.Arity.Params, len(call.Args)),
				call.Pos())
		}
		call.Resolved = &ast.Binding{Kind: ast.BindingBuiltin, Builtin: call.Callee}
		if b.Reenters && len(a.funcStack) > 0 {
			if attrs, ok := a.attrs[a.funcStack[len(a.funcStack)-1]]; ok {
				attrs.Reenters = true
			}
		}
		return
	}

	fn, ok := a.funcs[call.Callee]
	if !ok {
		a.undefined(call.Callee, call.Pos(), sc)
		return
	}
	if len(call.Args) != len(fn.Params) {
		a.opt.Bag.AddErrorAt(diagnostics.KindSemantic,
			fmt.Sprintf("function %q expects %d argument(s), got %d", call.Callee, len(fn.Params), len(call.Args)),
			call.Pos())
	}
	call.Resolved = &ast.Binding{Kind: ast.BindingFunc, Func: fn}
}

func (a *analyzer) checkDuplicateCases(sw *ast.Switch) {
	seen := make(map[string]token.Position)
	for _, c := range sw.Cases {
		key := literalKey(c.Literal)
		if _, ok := seen[key]; ok {
			a.opt.Bag.AddErrorAt(diagnostics.KindSemantic,
				fmt.Sprintf("duplicate switch case %s", key), c.Literal.Pos())
			continue
		}
		seen[key] = c.Literal.Pos()
	}
}

func literalKey(lit *ast.Literal) string {
	switch lit.Kind {
	case ast.LiteralDecimal, ast.LiteralHex:
		return lit.Number.String()
	case ast.LiteralString:
		return "s:" + lit.Str
	case ast.LiteralBool:
		if lit.Bool {
			return "b:true"
		}
		return "b:false"
	default:
		return lit.Raw
	}
}

func (a *analyzer) undefined(name string, pos token.Position, sc scopeID) {
	msg := fmt.Sprintf("undefined identifier %q", name)
	if suggestion := a.suggest(name, sc); suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	a.opt.Bag.AddErrorAt(diagnostics.KindSemantic, msg, pos)
}

// suggest looks for a near-miss among visible names using fuzzy string
// matching, grounded on the same technique the reference planner uses
// for decorator-name suggestions.
func (a *analyzer) suggest(name string, sc scopeID) string {
	var candidates []string
	cur := sc
	for cur != noParent {
		for n := range a.arena.scopes[cur].bindings {
			candidates = append(candidates, n)
		}
		cur = a.arena.scopes[cur].parent
	}
	for n := range a.funcs {
		candidates = append(candidates, n)
	}
	for n := range builtins.Table {
		candidates = append(candidates, n)
	}
	best := fuzzy.RankFind(name, candidates)
	sort.Sort(best)
	if len(best) == 0 {
		return ""
	}
	return best[0].Target
}

// computeClosurePurity propagates impurity through the call graph: a
// user function inherits purity from the transitive closure of its
// callees.
func (a *analyzer) computeClosurePurity() {
	changed := true
	for changed {
		changed = false
		for name, fn := range a.funcs {
			attrs := a.attrs[fn]
			if !attrs.Pure {
				continue
			}
			if callsImpureBuiltin(fn.Body) {
				attrs.Pure = false
				changed = true
				continue
			}
			for _, calleeName := range calledFunctionNames(fn.Body) {
				if calleeName == name {
					continue
				}
				if callee, ok := a.funcs[calleeName]; ok {
					if !a.attrs[callee].Pure {
						attrs.Pure = false
						changed = true
					}
				}
			}
		}
	}
}

func callsImpureBuiltin(n ast.Node) bool {
	found := false
	walkNodes(n, func(node ast.Node) {
		if call, ok := node.(*ast.FunctionCall); ok {
			if b, ok := builtins.Lookup(call.Callee); ok && !b.Pure {
				found = true
			}
		}
	})
	return found
}

// estimateStackEffect counts the leaf-expression value pushes (literals
// and identifier reads) within a function body. Calls are not counted or
// subtracted, so it is a cheap over-approximation, not a true
// stack-depth calculation.
func estimateStackEffect(n ast.Node) int {
	effect := 0
	walkNodes(n, func(node ast.Node) {
		switch node.(type) {
		case *ast.Literal, *ast.Identifier:
			effect++
		}
	})
	return effect
}

func calledFunctionNames(n ast.Node) []string {
	var names []string
	walkNodes(n, func(node ast.Node) {
		if call, ok := node.(*ast.FunctionCall); ok {
			if _, isBuiltin := builtins.Lookup(call.Callee); !isBuiltin {
				names = append(names, call.Callee)
			}
		}
	})
	return names
}

// walkNodes performs a simple recursive traversal for the closure-purity
// pass only; it does not resolve anything and tolerates partially
// analyzed trees.
func walkNodes(n ast.Node, visit func(ast.Node)) {
	if n == nil {
		return
	}
	visit(n)
	switch v := n.(type) {
	case *ast.Block:
		for _, s := range v.Statements {
			walkNodes(s, visit)
		}
	case *ast.FunctionDef:
		walkNodes(v.Body, visit)
	case *ast.VarDecl:
		walkNodes(v.Init, visit)
	case *ast.Assignment:
		walkNodes(v.Value, visit)
	case *ast.If:
		walkNodes(v.Cond, visit)
		walkNodes(v.Body, visit)
	case *ast.Switch:
		walkNodes(v.Expr, visit)
		for _, c := range v.Cases {
			walkNodes(c.Body, visit)
		}
		if v.Default != nil {
			walkNodes(v.Default, visit)
		}
	case *ast.ForLoop:
		walkNodes(v.Init, visit)
		walkNodes(v.Cond, visit)
		walkNodes(v.Post, visit)
		walkNodes(v.Body, visit)
	case *ast.FunctionCall:
		for _, arg := range v.Args {
			walkNodes(arg, visit)
		}
	}
}
