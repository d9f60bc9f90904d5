// Package opcode is the TargetVM instruction table the code generator and
// assembler lower against. Every opcode carries an explicit minimum
// target version, and looking one up for an older target is a
// CodegenError rather than a silent substitution.
package opcode

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Opcode is a single TargetVM byte-code instruction.
type Opcode byte

// ImmediateKind describes how many immediate bytes follow an opcode and
// how their width is chosen.
type ImmediateKind int

const (
	// ImmediateNone: the opcode has no operand bytes.
	ImmediateNone ImmediateKind = iota
	// ImmediateInt8/16/32/64/128/256: a fixed-width signed integer.
	ImmediateInt8
	ImmediateInt16
	ImmediateInt32
	ImmediateInt64
	ImmediateInt128
	ImmediateInt256
	// ImmediateJumpShort: a 1-byte relative offset.
	ImmediateJumpShort
	// ImmediateJumpLong: a 4-byte relative offset.
	ImmediateJumpLong
	// ImmediateData1/2/4: a length-prefixed byte string.
	ImmediateData1
	ImmediateData2
	ImmediateData4
	// ImmediateUint8Pair: two single-byte counts (e.g. INITSLOT's
	// locals/args pair).
	ImmediateUint8Pair
	// ImmediateUint8: a single unsigned byte operand.
	ImmediateUint8
	// ImmediateUint32: a 4-byte unsigned operand (e.g. SYSCALL's hash).
	ImmediateUint32
)

// Def is one opcode's static shape: its byte value, its immediate
// encoding, and the earliest target_version it is available under.
type Def struct {
	Name       string
	Value      Opcode
	Immediate  ImmediateKind
	MinVersion string // e.g. "3.0"
}

// Table is the immutable, once-built opcode table shared by every
// compilation.
var Table map[string]Def

// byValue supports disassembly/debug listing by raw byte.
var byValue map[Opcode]Def

func init() {
	Table = make(map[string]Def, len(definitions))
	byValue = make(map[Opcode]Def, len(definitions))
	for _, d := range definitions {
		if _, dup := Table[d.Name]; dup {
			panic(fmt.Sprintf("opcode: duplicate mnemonic %q", d.Name))
		}
		Table[d.Name] = d
		byValue[d.Value] = d
	}
}

// definitions mirrors the subset of the TargetVM (Neo N3-derived)
// instruction set the code generator needs.
var definitions = []Def{
	{Name: "PUSHINT8", Value: 0x00, Immediate: ImmediateInt8, MinVersion: "3.0"},
	{Name: "PUSHINT16", Value: 0x01, Immediate: ImmediateInt16, MinVersion: "3.0"},
	{Name: "PUSHINT32", Value: 0x02, Immediate: ImmediateInt32, MinVersion: "3.0"},
	{Name: "PUSHINT64", Value: 0x03, Immediate: ImmediateInt64, MinVersion: "3.0"},
	{Name: "PUSHINT128", Value: 0x04, Immediate: ImmediateInt128, MinVersion: "3.0"},
	{Name: "PUSHINT256", Value: 0x05, Immediate: ImmediateInt256, MinVersion: "3.0"},
	{Name: "PUSHNULL", Value: 0x0B, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "PUSHDATA1", Value: 0x0C, Immediate: ImmediateData1, MinVersion: "3.0"},
	{Name: "PUSHDATA2", Value: 0x0D, Immediate: ImmediateData2, MinVersion: "3.0"},
	{Name: "PUSHDATA4", Value: 0x0E, Immediate: ImmediateData4, MinVersion: "3.0"},
	{Name: "PUSHM1", Value: 0x0F, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "PUSH0", Value: 0x10, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "PUSH1", Value: 0x11, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "PUSH16", Value: 0x20, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NOP", Value: 0x21, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "JMP", Value: 0x22, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMP_L", Value: 0x23, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "JMPIF", Value: 0x24, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMPIF_L", Value: 0x25, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "JMPIFNOT", Value: 0x26, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMPIFNOT_L", Value: 0x27, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "JMPEQ", Value: 0x28, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMPEQ_L", Value: 0x29, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "JMPNE", Value: 0x2A, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMPNE_L", Value: 0x2B, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "JMPGT", Value: 0x2C, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMPGT_L", Value: 0x2D, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "JMPGE", Value: 0x2E, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMPGE_L", Value: 0x2F, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "JMPLT", Value: 0x30, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMPLT_L", Value: 0x31, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "JMPLE", Value: 0x32, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "JMPLE_L", Value: 0x33, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "CALL", Value: 0x34, Immediate: ImmediateJumpShort, MinVersion: "3.0"},
	{Name: "CALL_L", Value: 0x35, Immediate: ImmediateJumpLong, MinVersion: "3.0"},
	{Name: "ABORT", Value: 0x38, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "ASSERT", Value: 0x39, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "THROW", Value: 0x3A, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "RET", Value: 0x40, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SYSCALL", Value: 0x41, Immediate: ImmediateUint32, MinVersion: "3.0"},
	{Name: "DEPTH", Value: 0x43, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "DROP", Value: 0x45, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NIP", Value: 0x46, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "XDROP", Value: 0x48, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "CLEAR", Value: 0x49, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "DUP", Value: 0x4A, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "OVER", Value: 0x4B, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "PICK", Value: 0x4D, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "TUCK", Value: 0x4E, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SWAP", Value: 0x50, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "ROT", Value: 0x51, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "ROLL", Value: 0x52, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "REVERSE3", Value: 0x53, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "REVERSE4", Value: 0x54, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "REVERSEN", Value: 0x55, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "INITSSLOT", Value: 0x56, Immediate: ImmediateUint8, MinVersion: "3.0"},
	{Name: "INITSLOT", Value: 0x57, Immediate: ImmediateUint8Pair, MinVersion: "3.0"},
	{Name: "LDSFLD", Value: 0x5F, Immediate: ImmediateUint8, MinVersion: "3.0"},
	{Name: "STSFLD", Value: 0x67, Immediate: ImmediateUint8, MinVersion: "3.0"},
	{Name: "LDLOC", Value: 0x6F, Immediate: ImmediateUint8, MinVersion: "3.0"},
	{Name: "STLOC", Value: 0x77, Immediate: ImmediateUint8, MinVersion: "3.0"},
	{Name: "LDARG", Value: 0x7F, Immediate: ImmediateUint8, MinVersion: "3.0"},
	{Name: "STARG", Value: 0x87, Immediate: ImmediateUint8, MinVersion: "3.0"},
	{Name: "NEWBUFFER", Value: 0x88, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "MEMCPY", Value: 0x89, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "CAT", Value: 0x8B, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SUBSTR", Value: 0x8C, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "LEFT", Value: 0x8D, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "RIGHT", Value: 0x8E, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "INVERT", Value: 0x90, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "AND", Value: 0x91, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "OR", Value: 0x92, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "XOR", Value: 0x93, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "EQUAL", Value: 0x97, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NOTEQUAL", Value: 0x98, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SIGN", Value: 0x99, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "ABS", Value: 0x9A, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NEGATE", Value: 0x9B, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "INC", Value: 0x9C, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "DEC", Value: 0x9D, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "ADD", Value: 0x9E, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SUB", Value: 0x9F, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "MUL", Value: 0xA0, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "DIV", Value: 0xA1, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "MOD", Value: 0xA2, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "POW", Value: 0xA3, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SQRT", Value: 0xA4, Immediate: ImmediateNone, MinVersion: "3.2"},
	{Name: "MODMUL", Value: 0xA5, Immediate: ImmediateNone, MinVersion: "3.2"},
	{Name: "MODPOW", Value: 0xA6, Immediate: ImmediateNone, MinVersion: "3.2"},
	{Name: "SHL", Value: 0xA8, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SHR", Value: 0xA9, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NOT", Value: 0xAA, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "BOOLAND", Value: 0xAB, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "BOOLOR", Value: 0xAC, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NZ", Value: 0xB1, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NUMEQUAL", Value: 0xB3, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NUMNOTEQUAL", Value: 0xB4, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "LT", Value: 0xB5, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "LE", Value: 0xB6, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "GT", Value: 0xB7, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "GE", Value: 0xB8, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "MIN", Value: 0xB9, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "MAX", Value: 0xBA, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "WITHIN", Value: 0xBB, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NEWARRAY0", Value: 0xC2, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NEWARRAY", Value: 0xC3, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NEWSTRUCT0", Value: 0xC5, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NEWSTRUCT", Value: 0xC6, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "NEWMAP", Value: 0xC8, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SIZE", Value: 0xCA, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "HASKEY", Value: 0xCB, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "PICKITEM", Value: 0xCE, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "APPEND", Value: 0xCF, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "SETITEM", Value: 0xD0, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "REMOVE", Value: 0xD2, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "CLEARITEMS", Value: 0xD3, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "ISNULL", Value: 0xD8, Immediate: ImmediateNone, MinVersion: "3.0"},
	{Name: "ISTYPE", Value: 0xD9, Immediate: ImmediateUint8, MinVersion: "3.0"},
	{Name: "CONVERT", Value: 0xDB, Immediate: ImmediateUint8, MinVersion: "3.0"},
	// ABORTMSG/ASSERTMSG were introduced after the initial 3.0 instruction
	// set and are gated accordingly: opcodes unknown to target_version are
	// refused, never silently accepted.
	{Name: "ABORTMSG", Value: 0xE0, Immediate: ImmediateNone, MinVersion: "3.5"},
	{Name: "ASSERTMSG", Value: 0xE1, Immediate: ImmediateNone, MinVersion: "3.5"},
}

// Lookup resolves name to its definition, gated by targetVersion (a
// "3.0".."3.5"-shaped string). It returns an error — intended to surface
// as a CodegenError — for an unknown mnemonic or one unavailable at
// targetVersion, never a silent fallback.
func Lookup(name, targetVersion string) (Def, error) {
	d, ok := Table[name]
	if !ok {
		return Def{}, fmt.Errorf("opcode %q is not part of the TargetVM instruction set", name)
	}
	if !gated(d.MinVersion, targetVersion) {
		return Def{}, fmt.Errorf("opcode %q requires target_version >= %s, got %s", name, d.MinVersion, targetVersion)
	}
	return d, nil
}

// ByValue looks up a definition by its raw opcode byte, for disassembly
// and debug-listing output.
func ByValue(v Opcode) (Def, bool) {
	d, ok := byValue[v]
	return d, ok
}

func gated(minVersion, targetVersion string) bool {
	return semver.Compare("v"+targetVersion, "v"+minVersion) >= 0
}
