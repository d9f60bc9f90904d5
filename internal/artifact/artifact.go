package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/r3e-network/neo-solidity-sub001/internal/assembler"
	"github.com/r3e-network/neo-solidity-sub001/internal/codegen"
)

// ParamType is the manifest ABI type every Yul parameter is reported as:
// TargetVM carries no static typing richer than "an integer-sized stack
// value". A method with exactly one return value also reports ParamType;
// zero returns report "Void" and more than one report "Array".
const ParamType = "Integer"

// Options configures manifest construction: the artifact-relevant subset
// of the compiler's closed option set plus metadata that has no other
// natural home.
type Options struct {
	ContractName       string
	CompilerID         string
	CompilerVersion    string
	Author             string
	SourceURL          string
	SupportedStandards []string
	Permissions        []Permission
	Trusts             []string
	Groups             []Group
	// Safe reports, per exported method name, whether the method never
	// mutates state and never reenters — the manifest's is_safe_read_only
	// flag. A method absent from Safe is treated as unsafe.
	Safe map[string]bool
}

// Artifact is everything a successful compile produces: the assembled
// bytecode, its manifest, and the optional derived products.
type Artifact struct {
	Bytecode   []byte
	ScriptHash [20]byte
	Manifest   *Manifest
	SourceMap  string // empty unless requested
	DebugInfo  []byte // empty unless requested, JSON-encoded DebugInfo
}

// Build assembles a manifest from a codegen.Program's exported methods
// and an assembler.Assembled's resolved offsets.
func Build(prog *codegen.Program, asm *assembler.Assembled, opt Options) (*Artifact, error) {
	methods := make([]ABIMethod, 0, len(prog.Exported))
	for _, m := range prog.Exported {
		offset, ok := asm.Offsets[m.Label]
		if !ok {
			return nil, fmt.Errorf("artifact: exported method %q has no assembled offset", m.Name)
		}
		methods = append(methods, ABIMethod{
			Name:             m.Name,
			Parameters:       paramList(m.Params),
			ReturnType:       returnType(m.Returns),
			OffsetInBytecode: offset,
			IsSafeReadOnly:   opt.Safe[m.Name],
		})
	}

	manifest := &Manifest{
		Name:               opt.ContractName,
		Groups:             nonNilGroups(opt.Groups),
		SupportedStandards: nonNilStrings(opt.SupportedStandards),
		ABI:                ABI{Methods: methods, Events: []ABIEvent{}},
		Permissions:        nonNilPermissions(opt.Permissions),
		Trusts:             nonNilStrings(opt.Trusts),
		Extra: Extra{
			Author:   opt.Author,
			Compiler: opt.CompilerID,
			Version:  opt.CompilerVersion,
		},
	}

	return &Artifact{
		Bytecode:   asm.Bytecode,
		ScriptHash: asm.ScriptHash,
		Manifest:   manifest,
	}, nil
}

func paramList(names []string) []ABIParameter {
	out := make([]ABIParameter, len(names))
	for i, n := range names {
		out[i] = ABIParameter{Name: n, Type: ParamType}
	}
	return out
}

// returnType reports the manifest's single returntype string. Yul
// functions may declare multiple return names; the manifest format has
// no native multi-value return type, so a function with more than one
// return is reported as "Array" (the runtime collaborator packs multiple
// return values into an array for ABI callers), matching how the
// underlying VM's own multi-return contracts are described.
func returnType(returns []string) string {
	switch len(returns) {
	case 0:
		return "Void"
	case 1:
		return ParamType
	default:
		return "Array"
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilGroups(g []Group) []Group {
	if g == nil {
		return []Group{}
	}
	return g
}

func nonNilPermissions(p []Permission) []Permission {
	if p == nil {
		return []Permission{}
	}
	return p
}

// WriteFiles writes a.nef and a manifest.json (plus an optional source
// map and debug blob) under dir, named by contractName. Each file is
// written atomically: to a temp file in the same directory, then renamed
// into place, so a concurrent reader never observes a partial file.
func WriteFiles(dir, contractName string, a *Artifact, nefMeta *NEF) error {
	if err := ValidateManifest(a.Manifest); err != nil {
		return err
	}

	nefBytes, err := EncodeNEF(nefMeta)
	if err != nil {
		return fmt.Errorf("artifact: encoding NEF: %w", err)
	}
	if err := atomicWriteFile(filepath.Join(dir, contractName+".nef"), nefBytes); err != nil {
		return err
	}

	manifestBytes, err := a.Manifest.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("artifact: canonicalizing manifest: %w", err)
	}
	if err := atomicWriteFile(filepath.Join(dir, contractName+".manifest.json"), manifestBytes); err != nil {
		return err
	}

	if a.SourceMap != "" {
		if err := atomicWriteFile(filepath.Join(dir, contractName+".srcmap"), []byte(a.SourceMap)); err != nil {
			return err
		}
	}
	if len(a.DebugInfo) > 0 {
		if err := atomicWriteFile(filepath.Join(dir, contractName+".debug.json"), a.DebugInfo); err != nil {
			return err
		}
	}
	return nil
}

// atomicWriteFile writes data to a temp file beside path, then renames
// it into place — an IoError-kind failure anywhere in this sequence
// leaves the original file (if any) untouched.
func atomicWriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("artifact: renaming into %s: %w", path, err)
	}
	return nil
}
