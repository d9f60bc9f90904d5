// Package optimizer implements the four AST→AST optimization levels.
// Each level applies a superset of the previous level's
// passes; the optimizer iterates the selected set to a fixpoint (or a
// cap) so that passes exposing new opportunities for one another still
// converge, while remaining deterministic: identical input and level
// always produce a byte-identical AST.
package optimizer

import (
	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
	"github.com/r3e-network/neo-solidity-sub001/internal/sema"
)

// MaxIterations bounds how many times the selected pass set re-runs
// looking for a fixpoint before the optimizer gives up and returns
// whatever it has.
const MaxIterations = 8

// InlineSizeThreshold is the AST-node-count ceiling under which a
// function is eligible for inlining at level 3.
const InlineSizeThreshold = 40

// Context carries the attributes the analyzer computed and the warning
// sink; optimizer passes never fail the compile — a pass that cannot
// proceed returns its input unchanged and records a warning instead.
type Context struct {
	Attrs    map[*ast.FunctionDef]*sema.FuncAttrs
	Exported map[*ast.FunctionDef]bool
	Bag      *diagnostics.Bag
}

// pass is one AST→AST rewrite. It reports whether it changed anything so
// the driver knows whether another iteration might still make progress.
type pass func(obj *ast.Object, ctx *Context) bool

// passesForLevel returns the ordered pass list for level; order is fixed
// so results are deterministic across runs.
func passesForLevel(level int) []pass {
	switch {
	case level <= 0:
		return nil
	case level == 1:
		return []pass{foldConstants, applyAlgebraicIdentities}
	case level == 2:
		return []pass{foldConstants, applyAlgebraicIdentities, eliminateDeadCode}
	default: // 3 and above
		return []pass{
			foldConstants, applyAlgebraicIdentities, eliminateDeadCode,
			inlineFunctions, hoistLoopInvariants, eliminateCommonSubexpressions,
		}
	}
}

// Run applies the pass set for level to obj until a fixpoint or
// MaxIterations is reached. obj is rewritten in place.
func Run(obj *ast.Object, level int, ctx *Context) {
	passes := passesForLevel(level)
	if len(passes) == 0 {
		return
	}
	for i := 0; i < MaxIterations; i++ {
		changed := false
		for _, p := range passes {
			if p(obj, ctx) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// walkBlocks applies fn to obj's code block and every nested block
// reachable through statements, functions, ifs, switches, and loops —
// the traversal every pass in this package shares.
func walkBlocks(obj *ast.Object, fn func(*ast.Block)) {
	if obj.Code != nil {
		walkBlockRec(obj.Code, fn)
	}
	for _, sub := range obj.SubObjects {
		walkBlocks(sub, fn)
	}
}

func walkBlockRec(b *ast.Block, fn func(*ast.Block)) {
	fn(b)
	for _, stmt := range b.Statements {
		walkStmtBlocks(stmt, fn)
	}
}

func walkStmtBlocks(stmt ast.Node, fn func(*ast.Block)) {
	switch n := stmt.(type) {
	case *ast.FunctionDef:
		walkBlockRec(n.Body, fn)
	case *ast.If:
		walkBlockRec(n.Body, fn)
	case *ast.Switch:
		for _, c := range n.Cases {
			walkBlockRec(c.Body, fn)
		}
		if n.Default != nil {
			walkBlockRec(n.Default, fn)
		}
	case *ast.ForLoop:
		walkBlockRec(n.Init, fn)
		walkBlockRec(n.Post, fn)
		walkBlockRec(n.Body, fn)
	case *ast.Block:
		walkBlockRec(n, fn)
	}
}
