// Package assembler resolves a codegen.Program's symbolic labels into raw
// TargetVM bytecode and computes the contract's script hash. It never
// decides what to emit — only where, promoting short jump forms to long
// forms on overflow and patching every label reference to a final
// relative offset.
package assembler

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/ripemd160"

	"github.com/r3e-network/neo-solidity-sub001/internal/codegen"
	"github.com/r3e-network/neo-solidity-sub001/internal/opcode"
	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// MaxBytecodeSize bounds the assembled script. NEF stores the bytecode
// length as a little-endian uint32, so the format itself allows much
// more than this; the cap is a conservative sanity ceiling on a single
// compiled contract rather than a protocol-exact limit.
const MaxBytecodeSize = 16 * 1024 * 1024

// Error is an AssemblerError-kind failure: an unresolved label or
// bytecode exceeding the format limit.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string { return e.Message }

// Assembled is the assembler's output.
type Assembled struct {
	Bytecode []byte
	// ScriptHash is the 20-byte SHA-256-then-RIPEMD-160 digest of
	// Bytecode, the contract's stable on-chain identity.
	ScriptHash [20]byte
	// Offsets maps every label name (the entry label and every
	// func_<name> label) to its final byte offset in Bytecode.
	Offsets map[string]int
	// EntryOffset is Offsets[prog.EntryLabel], surfaced directly since
	// every caller needs it for the manifest's main offset.
	EntryOffset int
	// ItemOffsets gives the byte offset of prog.Items[i] for every i,
	// letting a disassembly listing annotate the symbolic instruction
	// stream with final addresses without re-deriving them from Bytecode.
	ItemOffsets []int
}

// Assemble lowers prog to bytecode via two-pass label resolution: pass
// one computes instruction sizes and label offsets, growing any jump
// instruction from its 1-byte short form to its 4-byte long form when
// the relative offset would overflow a signed byte, and restarting
// until no instruction grows (monotone, so this always terminates);
// pass two emits the final bytes.
func Assemble(prog *codegen.Program) (*Assembled, []error) {
	long := make(map[int]bool)

	var offsets []int
	var labelOffsets map[string]int
	for {
		offsets, labelOffsets = computeOffsets(prog.Items, long)
		grew := false
		for i, item := range prog.Items {
			instr, ok := item.(*codegen.Instruction)
			if !ok || instr.Jump == "" || long[i] {
				continue
			}
			target, ok := labelOffsets[instr.Jump]
			if !ok {
				continue // reported as an unresolved-label error below
			}
			rel := target - offsets[i]
			if !fitsInt8(rel) {
				long[i] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	var errs []error
	for _, item := range prog.Items {
		instr, ok := item.(*codegen.Instruction)
		if !ok || instr.Jump == "" {
			continue
		}
		if _, ok := labelOffsets[instr.Jump]; !ok {
			errs = append(errs, &Error{
				Message: fmt.Sprintf("assembler: undefined label %q", instr.Jump),
				Pos:     instr.Pos,
			})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	out := make([]byte, 0, offsets[len(offsets)-1])
	for i, item := range prog.Items {
		switch v := item.(type) {
		case *codegen.Label:
			// Labels contribute no bytes; already accounted for in offsets.
		case *codegen.Instruction:
			out = appendInstruction(out, v, i, offsets, labelOffsets, long)
		}
	}

	if len(out) > MaxBytecodeSize {
		return nil, []error{&Error{Message: fmt.Sprintf("assembler: bytecode size %d exceeds the %d-byte format limit", len(out), MaxBytecodeSize)}}
	}

	entryOffset, ok := labelOffsets[prog.EntryLabel]
	if !ok {
		return nil, []error{&Error{Message: fmt.Sprintf("assembler: entry label %q never emitted", prog.EntryLabel)}}
	}

	return &Assembled{
		Bytecode:    out,
		ScriptHash:  scriptHash(out),
		Offsets:     labelOffsets,
		EntryOffset: entryOffset,
		ItemOffsets: offsets[:len(prog.Items)],
	}, nil
}

// computeOffsets walks items once, returning each item's starting byte
// offset (offsets[len(items)] is the final bytecode length) and the
// offset of every label.
func computeOffsets(items []codegen.Item, long map[int]bool) ([]int, map[string]int) {
	offsets := make([]int, len(items)+1)
	labelOffsets := make(map[string]int)
	cur := 0
	for i, item := range items {
		offsets[i] = cur
		switch v := item.(type) {
		case *codegen.Label:
			labelOffsets[v.Name] = cur
		case *codegen.Instruction:
			cur += instructionSize(v, long[i])
		}
	}
	offsets[len(items)] = cur
	return offsets, labelOffsets
}

func instructionSize(instr *codegen.Instruction, isLong bool) int {
	if instr.Jump != "" {
		if isLong {
			return 5 // opcode byte + 4-byte relative offset
		}
		return 2 // opcode byte + 1-byte relative offset
	}
	return 1 + len(instr.Imm)
}

func appendInstruction(out []byte, instr *codegen.Instruction, idx int, offsets []int, labelOffsets map[string]int, long map[int]bool) []byte {
	if instr.Jump == "" {
		out = append(out, byte(instr.Op))
		out = append(out, instr.Imm...)
		return out
	}

	rel := labelOffsets[instr.Jump] - offsets[idx]
	if long[idx] {
		op := longForm(instr.Op)
		out = append(out, byte(op))
		out = append(out, int32ToLE(rel)...)
		return out
	}
	out = append(out, byte(instr.Op))
	out = append(out, byte(int8(rel)))
	return out
}

// longForm resolves a short jump-family opcode's "_L" counterpart. Every
// short jump mnemonic in the TargetVM table has a same-named "_L" long
// form at the same minimum target version, so no separate availability
// check is needed here — codegen already validated the short form.
func longForm(op opcode.Opcode) opcode.Opcode {
	d, ok := opcode.ByValue(op)
	if !ok {
		return op
	}
	ld, ok := opcode.Table[d.Name+"_L"]
	if !ok {
		return op
	}
	return ld.Value
}

func fitsInt8(n int) bool { return n >= -128 && n <= 127 }

func int32ToLE(n int) []byte {
	u := uint32(int32(n))
	return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}

// scriptHash is SHA-256, then RIPEMD-160 of that digest, producing a
// 20-byte result — a contract's stable on-chain identity.
func scriptHash(bytecode []byte) [20]byte {
	sum := sha256.Sum256(bytecode)
	h := ripemd160.New()
	h.Write(sum[:])
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}
