package optimizer

import (
	"math/big"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
)

// wordBits is the arithmetic word width Yul semantics assume: the
// div-returns-0 rule and and(x, 0xFF...F)-style masking both operate
// modulo this width. TargetVM itself carries arbitrary-precision
// integers, so the runtime
// collaborator is responsible for wraparound at execution time; the
// optimizer mirrors the same width here purely so constant folding
// produces the value Yul's semantics guarantee, not an unbounded one.
const wordBits = 256

var wordMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), wordBits), big.NewInt(1))

func mask(n *big.Int) *big.Int {
	return new(big.Int).And(n, wordMask)
}

// foldConstants implements level 1: constant folding over
// arithmetic/comparison/bitwise builtins when all operands are
// literals.
func foldConstants(obj *ast.Object, ctx *Context) bool {
	changed := false
	walkBlocks(obj, func(b *ast.Block) {
		for i, stmt := range b.Statements {
			b.Statements[i] = foldStmt(stmt, &changed)
		}
	})
	return changed
}

func foldStmt(n ast.Node, changed *bool) ast.Node {
	switch v := n.(type) {
	case *ast.VarDecl:
		if v.Init != nil {
			v.Init = foldExpr(v.Init, changed)
		}
	case *ast.Assignment:
		v.Value = foldExpr(v.Value, changed)
	case *ast.If:
		v.Cond = foldExpr(v.Cond, changed)
	case *ast.Switch:
		v.Expr = foldExpr(v.Expr, changed)
	case *ast.ForLoop:
		v.Cond = foldExpr(v.Cond, changed)
	}
	return n
}

func foldExpr(n ast.Node, changed *bool) ast.Node {
	call, ok := n.(*ast.FunctionCall)
	if !ok {
		return n
	}
	for i, arg := range call.Args {
		call.Args[i] = foldExpr(arg, changed)
	}

	folder, ok := arithmeticFolders[call.Callee]
	if !ok {
		return call
	}
	lits := make([]*big.Int, len(call.Args))
	for i, arg := range call.Args {
		lit, ok := arg.(*ast.Literal)
		if !ok || lit.Number == nil {
			return call
		}
		lits[i] = lit.Number
	}
	result, ok := folder(lits)
	if !ok {
		return call
	}
	*changed = true
	lit := ast.NewLiteral(call.Pos(), ast.LiteralDecimal)
	lit.Number = mask(result)
	lit.Raw = lit.Number.String()
	return lit
}

// arithmeticFolders evaluates a builtin over literal big.Int operands.
// The second return value reports whether a result was produced; every
// entry here, the comparison builtins included (they fold to 0 or 1),
// always produces one.
var arithmeticFolders = map[string]func([]*big.Int) (*big.Int, bool){
	"add": func(a []*big.Int) (*big.Int, bool) { return new(big.Int).Add(a[0], a[1]), true },
	"sub": func(a []*big.Int) (*big.Int, bool) { return new(big.Int).Sub(a[0], a[1]), true },
	"mul": func(a []*big.Int) (*big.Int, bool) { return new(big.Int).Mul(a[0], a[1]), true },
	"div": func(a []*big.Int) (*big.Int, bool) {
		if a[1].Sign() == 0 {
			return big.NewInt(0), true // Yul's div-by-zero-returns-0 rule
		}
		return new(big.Int).Div(a[0], a[1]), true
	},
	"mod": func(a []*big.Int) (*big.Int, bool) {
		if a[1].Sign() == 0 {
			return big.NewInt(0), true
		}
		return new(big.Int).Mod(a[0], a[1]), true
	},
	"and": func(a []*big.Int) (*big.Int, bool) { return new(big.Int).And(a[0], a[1]), true },
	"or":  func(a []*big.Int) (*big.Int, bool) { return new(big.Int).Or(a[0], a[1]), true },
	"xor": func(a []*big.Int) (*big.Int, bool) { return new(big.Int).Xor(a[0], a[1]), true },
	"lt": func(a []*big.Int) (*big.Int, bool) {
		return boolInt(a[0].Cmp(a[1]) < 0), true
	},
	"gt": func(a []*big.Int) (*big.Int, bool) {
		return boolInt(a[0].Cmp(a[1]) > 0), true
	},
	"eq": func(a []*big.Int) (*big.Int, bool) {
		return boolInt(a[0].Cmp(a[1]) == 0), true
	},
	"iszero": func(a []*big.Int) (*big.Int, bool) {
		return boolInt(a[0].Sign() == 0), true
	},
	"not": func(a []*big.Int) (*big.Int, bool) {
		return new(big.Int).Not(a[0]), true
	},
	"shl": func(a []*big.Int) (*big.Int, bool) {
		return new(big.Int).Lsh(a[1], uint(a[0].Uint64())), true
	},
	"shr": func(a []*big.Int) (*big.Int, bool) {
		return new(big.Int).Rsh(a[1], uint(a[0].Uint64())), true
	},
}

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// applyAlgebraicIdentities implements the rest of level 1:
// add(x,0), mul(x,1), mul(x,0), sub(x,x), and(x, <all-ones>).
func applyAlgebraicIdentities(obj *ast.Object, ctx *Context) bool {
	changed := false
	walkBlocks(obj, func(b *ast.Block) {
		for i, stmt := range b.Statements {
			b.Statements[i] = rewriteIdentitiesStmt(stmt, &changed)
		}
	})
	return changed
}

func rewriteIdentitiesStmt(n ast.Node, changed *bool) ast.Node {
	switch v := n.(type) {
	case *ast.VarDecl:
		if v.Init != nil {
			v.Init = rewriteIdentitiesExpr(v.Init, changed)
		}
	case *ast.Assignment:
		v.Value = rewriteIdentitiesExpr(v.Value, changed)
	case *ast.If:
		v.Cond = rewriteIdentitiesExpr(v.Cond, changed)
	case *ast.Switch:
		v.Expr = rewriteIdentitiesExpr(v.Expr, changed)
	case *ast.ForLoop:
		v.Cond = rewriteIdentitiesExpr(v.Cond, changed)
	}
	return n
}

func rewriteIdentitiesExpr(n ast.Node, changed *bool) ast.Node {
	call, ok := n.(*ast.FunctionCall)
	if !ok {
		return n
	}
	for i, arg := range call.Args {
		call.Args[i] = rewriteIdentitiesExpr(arg, changed)
	}
	if len(call.Args) != 2 {
		return call
	}
	x, y := call.Args[0], call.Args[1]

	switch call.Callee {
	case "add":
		if isZero(y) {
			*changed = true
			return x
		}
		if isZero(x) {
			*changed = true
			return y
		}
	case "sub":
		if isZero(y) {
			*changed = true
			return x
		}
		if identifiersEqual(x, y) {
			*changed = true
			lit := ast.NewLiteral(call.Pos(), ast.LiteralDecimal)
			lit.Number = big.NewInt(0)
			lit.Raw = "0"
			return lit
		}
	case "mul":
		if isOne(y) {
			*changed = true
			return x
		}
		if isOne(x) {
			*changed = true
			return y
		}
		if isZero(x) || isZero(y) {
			*changed = true
			lit := ast.NewLiteral(call.Pos(), ast.LiteralDecimal)
			lit.Number = big.NewInt(0)
			lit.Raw = "0"
			return lit
		}
	case "and":
		if isAllOnes(y) {
			*changed = true
			return x
		}
		if isAllOnes(x) {
			*changed = true
			return y
		}
	}
	return call
}

func isZero(n ast.Node) bool {
	lit, ok := n.(*ast.Literal)
	return ok && lit.Number != nil && lit.Number.Sign() == 0
}

func isOne(n ast.Node) bool {
	lit, ok := n.(*ast.Literal)
	return ok && lit.Number != nil && lit.Number.Cmp(big.NewInt(1)) == 0
}

func isAllOnes(n ast.Node) bool {
	lit, ok := n.(*ast.Literal)
	return ok && lit.Number != nil && mask(lit.Number).Cmp(wordMask) == 0
}

func identifiersEqual(a, b ast.Node) bool {
	ai, ok1 := a.(*ast.Identifier)
	bi, ok2 := b.(*ast.Identifier)
	return ok1 && ok2 && ai.Name == bi.Name
}
