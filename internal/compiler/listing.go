package compiler

import (
	"fmt"
	"strings"

	"github.com/r3e-network/neo-solidity-sub001/internal/assembler"
	"github.com/r3e-network/neo-solidity-sub001/internal/codegen"
	"github.com/r3e-network/neo-solidity-sub001/internal/opcode"
)

// renderAssembly produces a human-readable instruction listing: one line
// per item, addressed by its final byte offset, with jump/call targets
// shown as the symbolic label they resolved to rather than a raw
// relative offset.
func renderAssembly(prog *codegen.Program, asm *assembler.Assembled) string {
	var b strings.Builder
	for i, item := range prog.Items {
		switch v := item.(type) {
		case *codegen.Label:
			fmt.Fprintf(&b, "%s:\n", v.Name)
		case *codegen.Instruction:
			offset := 0
			if i < len(asm.ItemOffsets) {
				offset = asm.ItemOffsets[i]
			}
			name := mnemonicOf(v.Op)
			if v.Jump != "" {
				fmt.Fprintf(&b, "    %04x  %-12s %s\n", offset, name, v.Jump)
				continue
			}
			if len(v.Imm) > 0 {
				fmt.Fprintf(&b, "    %04x  %-12s %x\n", offset, name, v.Imm)
				continue
			}
			fmt.Fprintf(&b, "    %04x  %s\n", offset, name)
		}
	}
	return b.String()
}

func mnemonicOf(op opcode.Opcode) string {
	if d, ok := opcode.ByValue(op); ok {
		return d.Name
	}
	return fmt.Sprintf("0x%02x", byte(op))
}
