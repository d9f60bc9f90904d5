package artifact

import (
	"fmt"
	"strings"

	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// SourceMapEntry ties one instruction's byte offset back to the source
// position that produced it.
type SourceMapEntry struct {
	InstructionOffset int
	Pos               token.Position
}

// BuildSourceMap renders entries in the `<instruction-offset>:<source-
// line>:<source-column>:<source-offset>;...` format.
func BuildSourceMap(entries []SourceMapEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%d:%d:%d:%d", e.InstructionOffset, e.Pos.Line, e.Pos.Column, e.Pos.Offset)
	}
	return b.String()
}

// DebugSymbol is one entry of the optional debug blob: a user or
// exported function's name, entry offset, and declared parameter names,
// for a debugger to resolve symbol names that the stripped bytecode and
// manifest alone cannot recover.
type DebugSymbol struct {
	Name       string   `json:"name"`
	Offset     int      `json:"offset"`
	Parameters []string `json:"parameters"`
	Returns    []string `json:"returns"`
}

// DebugInfo is the optional JSON debug blob: the full ABI with parameter
// names plus internal (non-exported) symbol offsets, useful to a
// debugger but never required to execute the contract.
type DebugInfo struct {
	Methods []DebugSymbol `json:"methods"`
}
