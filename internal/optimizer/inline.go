package optimizer

import (
	"fmt"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/builtins"
)

// inlineFunctions implements level 3 function inlining: leaf
// (non-recursive), single-call-site-shaped candidates under
// InlineSizeThreshold nodes are expanded at their call site. Only
// candidates with at most one return value and argument expressions
// without side effects are considered, since inlining would otherwise
// either duplicate a side effect or require threading multiple return
// values through a synthetic tuple.
func inlineFunctions(obj *ast.Object, ctx *Context) bool {
	changed := false
	counter := 0
	walkBlocks(obj, func(b *ast.Block) {
		var out []ast.Node
		for _, stmt := range b.Statements {
			if expanded, ok := tryInline(stmt, &counter); ok {
				out = append(out, expanded...)
				changed = true
				continue
			}
			out = append(out, stmt)
		}
		b.Statements = out
	})
	return changed
}

func tryInline(stmt ast.Node, counter *int) ([]ast.Node, bool) {
	switch v := stmt.(type) {
	case *ast.VarDecl:
		call, ok := v.Init.(*ast.FunctionCall)
		if !ok || len(v.Names) != 1 {
			return nil, false
		}
		fn := inlineCandidate(call)
		if fn == nil || len(fn.Returns) != 1 {
			return nil, false
		}
		*counter++
		body, retName := expandCall(call, fn, *counter)
		decl := ast.NewVarDecl(v.Pos())
		decl.Names = v.Names
		assign := ast.NewAssignment(v.Pos())
		assign.Targets = v.Names
		assign.Value = ast.NewIdentifier(v.Pos(), retName)
		out := append([]ast.Node{decl}, body...)
		return append(out, assign), true
	case *ast.Assignment:
		call, ok := v.Value.(*ast.FunctionCall)
		if !ok || len(v.Targets) != 1 {
			return nil, false
		}
		fn := inlineCandidate(call)
		if fn == nil || len(fn.Returns) != 1 {
			return nil, false
		}
		*counter++
		body, retName := expandCall(call, fn, *counter)
		assign := ast.NewAssignment(v.Pos())
		assign.Targets = v.Targets
		assign.Value = ast.NewIdentifier(v.Pos(), retName)
		return append(body, assign), true
	case *ast.FunctionCall:
		fn := inlineCandidate(v)
		if fn == nil || len(fn.Returns) != 0 {
			return nil, false
		}
		*counter++
		body, _ := expandCall(v, fn, *counter)
		return body, true
	}
	return nil, false
}

// inlineCandidate reports the user function call resolves to when it is
// eligible for inlining, or nil otherwise.
func inlineCandidate(call *ast.FunctionCall) *ast.FunctionDef {
	if call.Resolved == nil || call.Resolved.Kind != ast.BindingFunc || call.Resolved.Func == nil {
		return nil
	}
	fn := call.Resolved.Func
	if countNodes(fn.Body) > InlineSizeThreshold {
		return nil
	}
	if containsNestedFunctionDef(fn.Body) || containsLeave(fn.Body) {
		return nil
	}
	if callsFunction(fn.Body, fn.Name) {
		return nil // direct recursion guard
	}
	paramSet := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		paramSet[p] = true
	}
	if assignsToAny(fn.Body, paramSet) {
		return nil
	}
	for _, arg := range call.Args {
		if !isSimpleOperand(arg) {
			return nil
		}
	}
	return fn
}

func isSimpleOperand(n ast.Node) bool {
	switch n.(type) {
	case *ast.Identifier, *ast.Literal:
		return true
	}
	return false
}

// expandCall clones fn's body with its parameters substituted by call's
// arguments and every local name (including the return variable)
// alpha-renamed with a per-call-site suffix, so repeated inlining of the
// same function never collides.
func expandCall(call *ast.FunctionCall, fn *ast.FunctionDef, id int) ([]ast.Node, string) {
	suffix := fmt.Sprintf("$inl%d", id)

	subst := make(map[string]ast.Node, len(fn.Params))
	for i, p := range fn.Params {
		subst[p] = call.Args[i]
	}

	rename := make(map[string]string)
	for _, name := range collectLocalNames(fn.Body) {
		rename[name] = name + suffix
	}
	var retName string
	if len(fn.Returns) == 1 {
		retName = fn.Returns[0] + suffix
		rename[fn.Returns[0]] = retName
	}

	cloned := cloneNode(fn.Body, subst, rename).(*ast.Block)
	var stmts []ast.Node
	if len(fn.Returns) == 1 {
		decl := ast.NewVarDecl(call.Pos())
		decl.Names = []string{retName}
		stmts = append(stmts, decl)
	}
	stmts = append(stmts, cloned.Statements...)
	return stmts, retName
}

func cloneNode(n ast.Node, subst map[string]ast.Node, rename map[string]string) ast.Node {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *ast.Block:
		nb := ast.NewBlock(v.Pos())
		for _, s := range v.Statements {
			nb.Statements = append(nb.Statements, cloneNode(s, subst, rename))
		}
		return nb
	case *ast.VarDecl:
		nd := ast.NewVarDecl(v.Pos())
		nd.Names = renameNames(v.Names, rename)
		if v.Init != nil {
			nd.Init = cloneNode(v.Init, subst, rename)
		}
		return nd
	case *ast.Assignment:
		na := ast.NewAssignment(v.Pos())
		na.Targets = renameNames(v.Targets, rename)
		na.Value = cloneNode(v.Value, subst, rename)
		return na
	case *ast.If:
		ni := ast.NewIf(v.Pos())
		ni.Cond = cloneNode(v.Cond, subst, rename)
		ni.Body = cloneNode(v.Body, subst, rename).(*ast.Block)
		return ni
	case *ast.Switch:
		ns := ast.NewSwitch(v.Pos())
		ns.Expr = cloneNode(v.Expr, subst, rename)
		for _, c := range v.Cases {
			ns.Cases = append(ns.Cases, ast.SwitchCase{
				Literal: c.Literal,
				Body:    cloneNode(c.Body, subst, rename).(*ast.Block),
			})
		}
		if v.Default != nil {
			ns.Default = cloneNode(v.Default, subst, rename).(*ast.Block)
		}
		return ns
	case *ast.ForLoop:
		nf := ast.NewForLoop(v.Pos())
		nf.Init = cloneNode(v.Init, subst, rename).(*ast.Block)
		nf.Cond = cloneNode(v.Cond, subst, rename)
		nf.Post = cloneNode(v.Post, subst, rename).(*ast.Block)
		nf.Body = cloneNode(v.Body, subst, rename).(*ast.Block)
		return nf
	case *ast.Break:
		return ast.NewBreak(v.Pos())
	case *ast.Continue:
		return ast.NewContinue(v.Pos())
	case *ast.Leave:
		return ast.NewLeave(v.Pos())
	case *ast.FunctionCall:
		nc := ast.NewFunctionCall(v.Pos(), v.Callee)
		for _, a := range v.Args {
			nc.Args = append(nc.Args, cloneNode(a, subst, rename))
		}
		return nc
	case *ast.Identifier:
		if repl, ok := subst[v.Name]; ok {
			return cloneOperand(repl)
		}
		if newName, ok := rename[v.Name]; ok {
			return ast.NewIdentifier(v.Pos(), newName)
		}
		return ast.NewIdentifier(v.Pos(), v.Name)
	case *ast.Literal:
		return cloneOperand(v)
	}
	return n
}

func cloneOperand(n ast.Node) ast.Node {
	switch v := n.(type) {
	case *ast.Identifier:
		return ast.NewIdentifier(v.Pos(), v.Name)
	case *ast.Literal:
		nl := ast.NewLiteral(v.Pos(), v.Kind)
		nl.Number, nl.Str, nl.Bool, nl.Raw = v.Number, v.Str, v.Bool, v.Raw
		return nl
	}
	return n
}

func renameNames(names []string, rename map[string]string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if r, ok := rename[n]; ok {
			out[i] = r
		} else {
			out[i] = n
		}
	}
	return out
}

func collectLocalNames(b *ast.Block) []string {
	var names []string
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Block:
			for _, s := range v.Statements {
				walk(s)
			}
		case *ast.VarDecl:
			names = append(names, v.Names...)
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
		}
	}
	walk(b)
	return names
}

func containsNestedFunctionDef(b *ast.Block) bool {
	found := false
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if found || n == nil {
			return
		}
		switch v := n.(type) {
		case *ast.FunctionDef:
			found = true
		case *ast.Block:
			for _, s := range v.Statements {
				walk(s)
			}
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
		}
	}
	walk(b)
	return found
}

func containsLeave(b *ast.Block) bool {
	found := false
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if found || n == nil {
			return
		}
		switch v := n.(type) {
		case *ast.Leave:
			found = true
		case *ast.Block:
			for _, s := range v.Statements {
				walk(s)
			}
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
		}
	}
	walk(b)
	return found
}

func callsFunction(b *ast.Block, name string) bool {
	counts := make(map[string]int)
	countCalls(b, counts)
	return counts[name] > 0
}

func assignsToAny(b *ast.Block, names map[string]bool) bool {
	found := false
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if found || n == nil {
			return
		}
		switch v := n.(type) {
		case *ast.Assignment:
			for _, t := range v.Targets {
				if names[t] {
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
	walk(b)
	return found
}

func countNodes(n ast.Node) int {
	if n == nil {
		return 0
	}
	count := 1
	switch v := n.(type) {
	case *ast.Block:
		for _, s := range v.Statements {
			count += countNodes(s)
		}
	case *ast.VarDecl:
		count += countNodes(v.Init)
	case *ast.Assignment:
		count += countNodes(v.Value)
	case *ast.If:
		count += countNodes(v.Cond) + countNodes(v.Body)
	case *ast.Switch:
		count += countNodes(v.Expr)
		for _, c := range v.Cases {
			count += countNodes(c.Body)
		}
		if v.Default != nil {
			count += countNodes(v.Default)
		}
	case *ast.ForLoop:
		count += countNodes(v.Init) + countNodes(v.Cond) + countNodes(v.Post) + countNodes(v.Body)
	case *ast.FunctionCall:
		for _, a := range v.Args {
			count += countNodes(a)
		}
	}
	return count
}

// hoistLoopInvariants implements level 3 loop-invariant code
// motion: a `let` binding inside a for-loop body whose initializer is a
// pure expression referencing no name the loop assigns anywhere is moved
// into the loop's init block, where it runs once instead of every
// iteration.
func hoistLoopInvariants(obj *ast.Object, ctx *Context) bool {
	changed := false
	walkForLoops(obj, func(loop *ast.ForLoop) {
		assigned := make(map[string]bool)
		collectAssignedNames(loop.Body, assigned)
		collectAssignedNames(loop.Post, assigned)

		var hoisted, kept []ast.Node
		for _, stmt := range loop.Body.Statements {
			decl, ok := stmt.(*ast.VarDecl)
			if ok && decl.Init != nil && isSideEffectFree(decl.Init) && isLoopInvariant(decl.Init, assigned) {
				hoisted = append(hoisted, decl)
				continue
			}
			kept = append(kept, stmt)
		}
		if len(hoisted) > 0 {
			loop.Init.Statements = append(loop.Init.Statements, hoisted...)
			loop.Body.Statements = kept
			changed = true
		}
	})
	return changed
}

func walkForLoops(obj *ast.Object, fn func(*ast.ForLoop)) {
	walkBlocks(obj, func(b *ast.Block) {
		for _, stmt := range b.Statements {
			if loop, ok := stmt.(*ast.ForLoop); ok {
				fn(loop)
			}
		}
	})
}

func collectAssignedNames(b *ast.Block, out map[string]bool) {
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Assignment:
			for _, t := range v.Targets {
				out[t] = true
			}
			walk(v.Value)
		case *ast.VarDecl:
			for _, name := range v.Names {
				out[name] = true
			}
			walk(v.Init)
		case *ast.Block:
			for _, s := range v.Statements {
				walk(s)
			}
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
		}
	}
	walk(b)
}

func isLoopInvariant(n ast.Node, assigned map[string]bool) bool {
	switch v := n.(type) {
	case *ast.Literal:
		return true
	case *ast.Identifier:
		return !assigned[v.Name]
	case *ast.FunctionCall:
		for _, a := range v.Args {
			if !isLoopInvariant(a, assigned) {
				return false
			}
		}
		return true
	}
	return false
}

func isSideEffectFree(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.Literal, *ast.Identifier:
		return true
	case *ast.FunctionCall:
		b, ok := builtins.Lookup(v.Callee)
		if !ok || !b.Pure {
			return false
		}
		for _, a := range v.Args {
			if !isSideEffectFree(a) {
				return false
			}
		}
		return true
	}
	return false
}

// eliminateCommonSubexpressions implements level 3 common-subexpression
// elimination: within
// a single block, a repeated pure builtin call with identical operands
// is replaced by a reference to the variable already holding its result.
// Any statement whose effect cannot be reasoned about locally (loops,
// conditionals, calls with side effects) clears the working set, so a
// cached result is never reused across a point where its operands might
// have changed.
func eliminateCommonSubexpressions(obj *ast.Object, ctx *Context) bool {
	changed := false
	walkBlocks(obj, func(b *ast.Block) {
		var seen []cseEntry
		for _, stmt := range b.Statements {
			switch v := stmt.(type) {
			case *ast.VarDecl:
				if len(v.Names) == 1 && v.Init != nil {
					if name, ok := lookupCSE(seen, v.Init); ok {
						v.Init = ast.NewIdentifier(v.Pos(), name)
						changed = true
					} else if call, ok := v.Init.(*ast.FunctionCall); ok && isSideEffectFree(call) {
						seen = append(seen, newCSEEntry(call, v.Names[0]))
					}
				}
				for _, name := range v.Names {
					seen = invalidateCSE(seen, name)
				}
			case *ast.Assignment:
				if len(v.Targets) == 1 {
					if name, ok := lookupCSE(seen, v.Value); ok {
						v.Value = ast.NewIdentifier(v.Pos(), name)
						changed = true
					} else if call, ok := v.Value.(*ast.FunctionCall); ok && isSideEffectFree(call) {
						seen = append(seen, newCSEEntry(call, v.Targets[0]))
					}
				}
				for _, name := range v.Targets {
					seen = invalidateCSE(seen, name)
				}
			default:
				seen = nil
			}
		}
	})
	return changed
}

type cseEntry struct {
	expr     string
	operands map[string]bool
	varName  string
}

func newCSEEntry(call *ast.FunctionCall, varName string) cseEntry {
	operands := make(map[string]bool)
	collectOperandNames(call, operands)
	return cseEntry{expr: canonicalExpr(call), operands: operands, varName: varName}
}

func lookupCSE(seen []cseEntry, n ast.Node) (string, bool) {
	call, ok := n.(*ast.FunctionCall)
	if !ok || !isSideEffectFree(call) {
		return "", false
	}
	expr := canonicalExpr(call)
	for _, e := range seen {
		if e.expr == expr {
			return e.varName, true
		}
	}
	return "", false
}

func invalidateCSE(seen []cseEntry, name string) []cseEntry {
	out := seen[:0:0]
	for _, e := range seen {
		if e.varName == name || e.operands[name] {
			continue
		}
		out = append(out, e)
	}
	return out
}

func collectOperandNames(n ast.Node, out map[string]bool) {
	switch v := n.(type) {
	case *ast.Identifier:
		out[v.Name] = true
	case *ast.FunctionCall:
		for _, a := range v.Args {
			collectOperandNames(a, out)
		}
	}
}

func canonicalExpr(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Identifier:
		return "id:" + v.Name
	case *ast.Literal:
		return "lit:" + v.Raw
	case *ast.FunctionCall:
		s := "call:" + v.Callee + "("
		for i, a := range v.Args {
			if i > 0 {
				s += ","
			}
			s += canonicalExpr(a)
		}
		return s + ")"
	}
	return ""
}
