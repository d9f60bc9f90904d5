// Package builtins holds the immutable builtin-function and interop-service
// tables consulted by the lexer, semantic analyzer, and code generator.
// Both tables are built once in init() and never mutated afterward, so
// they are safe to share by reference across concurrent compilations.
package builtins

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// Arity describes a builtin's fixed input/output counts. Yul builtins
// never vary their arity by call site.
type Arity struct {
	Params  int
	Returns int
}

// Builtin is one entry of the builtin table.
type Builtin struct {
	Name     string
	Category token.BuiltinCategory
	Arity    Arity
	// Pure marks builtins the optimizer may constant-fold or hoist.
	Pure bool
	// Reenters marks builtins that can reenter the calling contract
	// (external calls), consulted by the semantic analyzer's per-function
	// attribute computation.
	Reenters bool
	// MinTargetVersion gates availability: refuse unknown/ungated
	// builtins rather than silently emit them. "" means available since
	// 3.0.
	MinTargetVersion string
}

// Table maps builtin name to its definition. Built once at init time.
var Table map[string]Builtin

// interopHashes maps a builtin name requiring a SYSCALL (memory/storage/
// environment builtins that the runtime collaborator implements) to its
// 32-bit interop-service hash.
var interopHashes map[string]uint32

func init() {
	Table = make(map[string]Builtin, len(definitions))
	interopHashes = make(map[string]uint32, len(definitions))

	for _, d := range definitions {
		if _, dup := Table[d.Name]; dup {
			panic(fmt.Sprintf("builtins: duplicate registration of %q", d.Name))
		}
		Table[d.Name] = d
		if d.Category == token.CategoryMemory || d.Category == token.CategoryStorage ||
			d.Category == token.CategoryEnvironment || runtimeOnlyControl[d.Name] {
			interopHashes[d.Name] = interopHash(d.Name)
		}
	}
}

// runtimeOnlyControl names the handful of builtins outside the memory/
// storage/environment categories that still have no direct TargetVM
// opcode and so are lowered to a SYSCALL like any interop builtin:
// keccak256 reads the runtime-provided memory, and the five terminating
// control builtins end the call the way the runtime collaborator defines.
var runtimeOnlyControl = map[string]bool{
	"keccak256":    true,
	"stop":         true,
	"return":       true,
	"revert":       true,
	"invalid":      true,
	"selfdestruct": true,
}

// interopHash derives a deterministic 32-bit interop-service identifier
// from a canonical service name, the way TargetVM's interop table is
// keyed (first 4 bytes of SHA-256 of the ASCII service name).
func interopHash(name string) uint32 {
	sum := sha256.Sum256([]byte("Yul." + name))
	return binary.LittleEndian.Uint32(sum[:4])
}

// Lookup returns the builtin definition for name, if any.
func Lookup(name string) (Builtin, bool) {
	b, ok := Table[name]
	return b, ok
}

// InteropHash returns the 32-bit interop-service hash registered for a
// memory/storage/environment builtin, if it requires a SYSCALL.
func InteropHash(name string) (uint32, bool) {
	h, ok := interopHashes[name]
	return h, ok
}

// Gated reports whether a builtin whose MinTargetVersion is min is
// available at targetVersion. An empty min means available since 3.0.
func Gated(min, targetVersion string) bool {
	if min == "" {
		return true
	}
	return semver.Compare("v"+targetVersion, "v"+min) >= 0
}

// definitions is the canonical, de-duplicated builtin table. "extcodesize"
// appears only under CategoryEnvironment: some source material lists it
// under both memory and environment; environment is canonical for
// consistency with Yul semantics.
var definitions = []Builtin{
	// Arithmetic / bitwise / comparison — pure, never reenters.
	{Name: "add", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "sub", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "mul", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "div", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "sdiv", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "mod", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "smod", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "exp", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "not", Category: token.CategoryArithmetic, Arity: Arity{1, 1}, Pure: true},
	{Name: "lt", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "gt", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "slt", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "sgt", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "eq", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "iszero", Category: token.CategoryArithmetic, Arity: Arity{1, 1}, Pure: true},
	{Name: "and", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "or", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "xor", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "byte", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "shl", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "shr", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "sar", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "addmod", Category: token.CategoryArithmetic, Arity: Arity{3, 1}, Pure: true},
	{Name: "mulmod", Category: token.CategoryArithmetic, Arity: Arity{3, 1}, Pure: true},
	{Name: "signextend", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: true},
	{Name: "keccak256", Category: token.CategoryArithmetic, Arity: Arity{2, 1}, Pure: false, MinTargetVersion: "3.0"},

	// Memory — impure, byte-addressable memory lives in the runtime
	// collaborator.
	{Name: "mload", Category: token.CategoryMemory, Arity: Arity{1, 1}},
	{Name: "mstore", Category: token.CategoryMemory, Arity: Arity{2, 0}},
	{Name: "mstore8", Category: token.CategoryMemory, Arity: Arity{2, 0}},
	{Name: "msize", Category: token.CategoryMemory, Arity: Arity{0, 1}},
	{Name: "mcopy", Category: token.CategoryMemory, Arity: Arity{3, 0}, MinTargetVersion: "3.3"},

	// Storage — impure.
	{Name: "sload", Category: token.CategoryStorage, Arity: Arity{1, 1}},
	{Name: "sstore", Category: token.CategoryStorage, Arity: Arity{2, 0}},

	// Environment — impure; calls/creates reenter.
	{Name: "address", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "balance", Category: token.CategoryEnvironment, Arity: Arity{1, 1}},
	{Name: "selfbalance", Category: token.CategoryEnvironment, Arity: Arity{0, 1}, MinTargetVersion: "3.1"},
	{Name: "origin", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "caller", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "callvalue", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "calldataload", Category: token.CategoryEnvironment, Arity: Arity{1, 1}},
	{Name: "calldatasize", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "calldatacopy", Category: token.CategoryEnvironment, Arity: Arity{3, 0}},
	{Name: "codesize", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "codecopy", Category: token.CategoryEnvironment, Arity: Arity{3, 0}},
	{Name: "extcodesize", Category: token.CategoryEnvironment, Arity: Arity{1, 1}},
	{Name: "extcodecopy", Category: token.CategoryEnvironment, Arity: Arity{4, 0}},
	{Name: "extcodehash", Category: token.CategoryEnvironment, Arity: Arity{1, 1}, MinTargetVersion: "3.2"},
	{Name: "returndatasize", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "returndatacopy", Category: token.CategoryEnvironment, Arity: Arity{3, 0}},
	{Name: "gasprice", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "blockhash", Category: token.CategoryEnvironment, Arity: Arity{1, 1}},
	{Name: "coinbase", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "timestamp", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "number", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "prevrandao", Category: token.CategoryEnvironment, Arity: Arity{0, 1}, MinTargetVersion: "3.4"},
	{Name: "gaslimit", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "chainid", Category: token.CategoryEnvironment, Arity: Arity{0, 1}, MinTargetVersion: "3.1"},
	{Name: "basefee", Category: token.CategoryEnvironment, Arity: Arity{0, 1}, MinTargetVersion: "3.4"},
	{Name: "gas", Category: token.CategoryEnvironment, Arity: Arity{0, 1}},
	{Name: "create", Category: token.CategoryEnvironment, Arity: Arity{3, 1}, Reenters: true},
	{Name: "create2", Category: token.CategoryEnvironment, Arity: Arity{4, 1}, Reenters: true, MinTargetVersion: "3.0"},
	{Name: "call", Category: token.CategoryEnvironment, Arity: Arity{7, 1}, Reenters: true},
	{Name: "callcode", Category: token.CategoryEnvironment, Arity: Arity{7, 1}, Reenters: true},
	{Name: "delegatecall", Category: token.CategoryEnvironment, Arity: Arity{6, 1}, Reenters: true},
	{Name: "staticcall", Category: token.CategoryEnvironment, Arity: Arity{6, 1}, Reenters: true},
	{Name: "log0", Category: token.CategoryEnvironment, Arity: Arity{2, 0}},
	{Name: "log1", Category: token.CategoryEnvironment, Arity: Arity{3, 0}},
	{Name: "log2", Category: token.CategoryEnvironment, Arity: Arity{4, 0}},
	{Name: "log3", Category: token.CategoryEnvironment, Arity: Arity{5, 0}},
	{Name: "log4", Category: token.CategoryEnvironment, Arity: Arity{6, 0}},

	// Control-flow — impure, terminate the current execution context.
	{Name: "stop", Category: token.CategoryControl, Arity: Arity{0, 0}},
	{Name: "return", Category: token.CategoryControl, Arity: Arity{2, 0}},
	{Name: "revert", Category: token.CategoryControl, Arity: Arity{2, 0}},
	{Name: "invalid", Category: token.CategoryControl, Arity: Arity{0, 0}},
	{Name: "selfdestruct", Category: token.CategoryControl, Arity: Arity{1, 0}},
	{Name: "pop", Category: token.CategoryControl, Arity: Arity{1, 0}, Pure: true},
}
