// Package ast defines the Yul abstract syntax tree.
package ast

import (
	"math/big"

	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// Node is implemented by every AST node. Every node carries the source
// position of its first token.
type Node interface {
	Pos() token.Position
	node()
}

type base struct {
	Position token.Position
}

func (b base) Pos() token.Position { return b.Position }
func (base) node()                 {}

// Object is the top-level `object "name" { code { ... } ...sub-objects...
// ...data-items... }` form.
type Object struct {
	base
	Name       string
	Code       *Block
	SubObjects []*Object
	DataItems  []*DataItem
}

// DataItem is a `data "name" hex"..."` or `data "name" "..."` entry.
type DataItem struct {
	base
	Name  string
	Value []byte
}

// Block is a brace-delimited statement sequence.
type Block struct {
	base
	Statements []Node
}

// FunctionDef is `function name(params) -> returns { body }`.
type FunctionDef struct {
	base
	Name    string
	Params  []string
	Returns []string
	Body    *Block
}

// VarDecl is `let name(, name)* (:= value)?`.
type VarDecl struct {
	base
	Names []string
	Init  Node // nil when there is no initializer
}

// Assignment is `target(, target)* := value`.
type Assignment struct {
	base
	Targets []string
	Value   Node
}

// If is `if cond { body }`. Yul has no else; chained conditions are
// expressed with nested ifs or switch.
type If struct {
	base
	Cond Node
	Body *Block
}

// SwitchCase is one `case literal { body }` arm.
type SwitchCase struct {
	base
	Literal *Literal
	Body    *Block
}

// Switch is `switch expr case ... default { }`. Invariant: case literals
// are pairwise distinct.
type Switch struct {
	base
	Expr    Node
	Cases   []SwitchCase
	Default *Block // nil when there is no default
}

// ForLoop is `for { init } cond { post } { body }`.
type ForLoop struct {
	base
	Init *Block
	Cond Node
	Post *Block
	Body *Block
}

// Break is `break`, valid only inside a ForLoop.
type Break struct{ base }

// Continue is `continue`, valid only inside a ForLoop.
type Continue struct{ base }

// Leave is `leave`, valid only inside a FunctionDef.
type Leave struct{ base }

// FunctionCall is `callee(args)`. Callee may be a user function or a
// builtin; which one is resolved during semantic analysis.
type FunctionCall struct {
	base
	Callee string
	Args   []Node

	// Resolved is populated by the semantic analyzer and is nil until then.
	Resolved *Binding
}

// Identifier is a bare name in expression position: a variable reference.
type Identifier struct {
	base
	Name string

	// Resolved is populated by the semantic analyzer.
	Resolved *Binding
}

// LiteralKind is the closed set of literal kinds.
type LiteralKind int

const (
	LiteralDecimal LiteralKind = iota
	LiteralHex
	LiteralString
	LiteralBool
)

// Literal is a constant value. Numeric literals carry an arbitrary-
// precision integer; narrowing to the minimum fitting machine width
// happens only at code generation.
type Literal struct {
	base
	Kind   LiteralKind
	Number *big.Int // valid when Kind is LiteralDecimal or LiteralHex
	Str    string    // valid when Kind is LiteralString
	Bool   bool      // valid when Kind is LiteralBool
	// Raw is the verbatim source lexeme, retained for diagnostics and
	// for hex/string literals whose byte-width matters at codegen.
	Raw string
}

// Binding is what an Identifier or FunctionCall's callee resolves to,
// filled in by the semantic analyzer.
type Binding struct {
	Kind BindingKind
	// Slot is the local-frame slot index, valid when Kind == BindingVar.
	Slot int
	// Func is populated when Kind == BindingFunc.
	Func *FunctionDef
	// Builtin is populated when Kind == BindingBuiltin.
	Builtin string
}

// BindingKind distinguishes what an identifier resolves to.
type BindingKind int

const (
	BindingVar BindingKind = iota
	BindingFunc
	BindingBuiltin
)

// NewObject, NewBlock, ... convenience constructors used by the parser,
// keeping position-assignment in one place.

func NewObject(pos token.Position, name string) *Object {
	return &Object{base: base{pos}, Name: name}
}

func NewBlock(pos token.Position) *Block {
	return &Block{base: base{pos}}
}

func NewFunctionDef(pos token.Position, name string) *FunctionDef {
	return &FunctionDef{base: base{pos}, Name: name}
}

func NewVarDecl(pos token.Position) *VarDecl {
	return &VarDecl{base: base{pos}}
}

func NewAssignment(pos token.Position) *Assignment {
	return &Assignment{base: base{pos}}
}

func NewIf(pos token.Position) *If {
	return &If{base: base{pos}}
}

func NewSwitch(pos token.Position) *Switch {
	return &Switch{base: base{pos}}
}

func NewForLoop(pos token.Position) *ForLoop {
	return &ForLoop{base: base{pos}}
}

func NewBreak(pos token.Position) *Break       { return &Break{base{pos}} }
func NewContinue(pos token.Position) *Continue { return &Continue{base{pos}} }
func NewLeave(pos token.Position) *Leave       { return &Leave{base{pos}} }

func NewFunctionCall(pos token.Position, callee string) *FunctionCall {
	return &FunctionCall{base: base{pos}, Callee: callee}
}

func NewIdentifier(pos token.Position, name string) *Identifier {
	return &Identifier{base: base{pos}, Name: name}
}

func NewLiteral(pos token.Position, kind LiteralKind) *Literal {
	return &Literal{base: base{pos}, Kind: kind}
}
