package parser

import (
	"fmt"

	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// Error is a single syntax error recorded during a parse. Multiple errors
// accumulate per run via best-effort resynchronization.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// bracketTracker records opening `{`/`(` tokens with a human-readable
// context, grounded on the reference parser's bracket-mismatch
// diagnostics. The parser pushes and pops entries as it goes; its syntax
// errors are reported at the current token and do not read this stack.
type bracketTracker struct {
	stack []bracketEntry
}

type bracketEntry struct {
	kind    token.Kind
	pos     token.Position
	context string
}

func (bt *bracketTracker) push(kind token.Kind, pos token.Position, context string) {
	bt.stack = append(bt.stack, bracketEntry{kind, pos, context})
}

func (bt *bracketTracker) pop(kind token.Kind) (bracketEntry, bool) {
	if len(bt.stack) == 0 {
		return bracketEntry{}, false
	}
	top := bt.stack[len(bt.stack)-1]
	bt.stack = bt.stack[:len(bt.stack)-1]
	return top, top.kind == kind
}
