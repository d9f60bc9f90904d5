package optimizer

import (
	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/builtins"
	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
)

// eliminateDeadCode implements level 2: trim statements unreachable
// after a terminator, unused pure `let` bindings, and zero-call-site
// functions (unless exported).
func eliminateDeadCode(obj *ast.Object, ctx *Context) bool {
	changed := false
	changed = trimUnreachable(obj, ctx) || changed
	changed = trimUnusedLets(obj) || changed
	changed = trimDeadFunctions(obj, ctx) || changed
	return changed
}

// isTerminator reports whether stmt unconditionally ends control flow for
// the rest of its enclosing block.
func isTerminator(stmt ast.Node) bool {
	switch v := stmt.(type) {
	case *ast.Leave, *ast.Break, *ast.Continue:
		return true
	case *ast.FunctionCall:
		return v.Callee == "return" || v.Callee == "revert" || v.Callee == "stop" || v.Callee == "selfdestruct" || v.Callee == "invalid"
	}
	return false
}

func trimUnreachable(obj *ast.Object, ctx *Context) bool {
	changed := false
	walkBlocks(obj, func(b *ast.Block) {
		for i, stmt := range b.Statements {
			if isTerminator(stmt) && i+1 < len(b.Statements) {
				dropped := b.Statements[i+1:]
				b.Statements = b.Statements[:i+1]
				if ctx.Bag != nil {
					ctx.Bag.AddWarningAt(diagnostics.KindOptimization, "UnreachableCode: statement(s) after return/revert/leave/break/continue removed", dropped[0].Pos())
				}
				changed = true
				return
			}
		}
	})
	return changed
}

// trimUnusedLets removes `let` declarations whose names are never
// referenced again in the same or a nested scope and whose initializer
// (if any) has no observable side effect.
func trimUnusedLets(obj *ast.Object) bool {
	changed := false
	// A for-loop's init bindings are read by its condition, post block and
	// body, which usedAfter cannot see from the init block, so init blocks
	// are left as they are.
	forInits := make(map[*ast.Block]bool)
	walkForLoops(obj, func(loop *ast.ForLoop) { forInits[loop.Init] = true })
	walkBlocks(obj, func(b *ast.Block) {
		if forInits[b] {
			return
		}
		var kept []ast.Node
		for i := len(b.Statements) - 1; i >= 0; i-- {
			stmt := b.Statements[i]
			decl, ok := stmt.(*ast.VarDecl)
			if !ok {
				kept = append([]ast.Node{stmt}, kept...)
				continue
			}
			if len(decl.Names) != 1 || declHasSideEffect(decl) {
				kept = append([]ast.Node{stmt}, kept...)
				continue
			}
			if usedAfter(b, i+1, decl.Names[0]) || usedElsewhere(b, decl.Names[0]) {
				kept = append([]ast.Node{stmt}, kept...)
				continue
			}
			changed = true
		}
		if changed {
			b.Statements = kept
		}
	})
	return changed
}

func declHasSideEffect(decl *ast.VarDecl) bool {
	if decl.Init == nil {
		return false
	}
	call, ok := decl.Init.(*ast.FunctionCall)
	if !ok {
		return false
	}
	if b, ok := builtins.Lookup(call.Callee); ok {
		return !b.Pure
	}
	return true // unresolved/user function: conservatively assume a side effect
}

// usedAfter is a conservative, block-local check: if the name appears as
// an Identifier anywhere later in the same block's statement list
// (including nested sub-blocks), the declaration is kept.
func usedAfter(b *ast.Block, from int, name string) bool {
	for i := from; i < len(b.Statements); i++ {
		if referencesName(b.Statements[i], name) {
			return true
		}
	}
	return false
}

// usedElsewhere guards against removing a let that is referenced from a
// nested function or control-flow body that appears earlier in program
// order syntactically but is reachable at runtime after this point
// (e.g. a function defined above its use). This is intentionally
// conservative, scanning the whole block again rather than only the
// suffix, to avoid ever discarding a binding that is actually read.
func usedElsewhere(b *ast.Block, name string) bool {
	for _, stmt := range b.Statements {
		if fn, ok := stmt.(*ast.FunctionDef); ok {
			if referencesName(fn.Body, name) {
				return true
			}
		}
	}
	return false
}

func referencesName(n ast.Node, name string) bool {
	found := false
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		if found || node == nil {
			return
		}
		switch v := node.(type) {
		case *ast.Identifier:
			if v.Name == name {
				found = true
			}
		case *ast.Assignment:
			for _, t := range v.Targets {
				if t == name {
					found = true
				}
			}
			walk(v.Value)
		case *ast.VarDecl:
			walk(v.Init)
		case *ast.Block:
			for _, s := range v.Statements {
				walk(s)
			}
		case *ast.FunctionDef:
			walk(v.Body)
		case *ast.If:
			walk(v.Cond)
			walk(v.Body)
		case *ast.Switch:
			walk(v.Expr)
			for _, c := range v.Cases {
				walk(c.Body)
			}
			if v.Default != nil {
				walk(v.Default)
			}
		case *ast.ForLoop:
			walk(v.Init)
			walk(v.Cond)
			walk(v.Post)
			walk(v.Body)
		case *ast.FunctionCall:
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	walk(n)
	return found
}

// trimDeadFunctions removes function definitions with zero call sites,
// unless they are ABI-exported.
func trimDeadFunctions(obj *ast.Object, ctx *Context) bool {
	callCounts := make(map[string]int)
	walkBlocks(obj, func(b *ast.Block) {
		for _, stmt := range b.Statements {
			countCalls(stmt, callCounts)
		}
	})

	changed := false
	walkBlocks(obj, func(b *ast.Block) {
		var kept []ast.Node
		for _, stmt := range b.Statements {
			fn, ok := stmt.(*ast.FunctionDef)
			if !ok {
				kept = append(kept, stmt)
				continue
			}
			if ctx.Exported[fn] || callCounts[fn.Name] > 0 {
				kept = append(kept, stmt)
				continue
			}
			changed = true
		}
		b.Statements = kept
	})
	return changed
}

func countCalls(n ast.Node, counts map[string]int) {
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		if node == nil {
			return
		}
		switch v := node.(type) {
		case *ast.FunctionCall:
			counts[v.Callee]++
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.Assignment:
			walk(v.Value)
		case *ast.VarDecl:
			walk(v.Init)
		case *ast.Block:
			for _, s := range v.Statements {
				walk(s)
			}
		case *ast.FunctionDef:
			walk(v.Body)
		case *ast.If:
			walk(v.Cond)
			walk(v.Body)
		case *ast.Switch:
			walk(v.Expr)
			for _, c := range v.Cases {
				walk(c.Body)
			}
			if v.Default != nil {
				walk(v.Default)
			}
		case *ast.ForLoop:
			walk(v.Init)
			walk(v.Cond)
			walk(v.Post)
			walk(v.Body)
		}
	}
	walk(n)
}
