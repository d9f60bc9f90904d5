// Package compiler wires the lexer, parser, semantic analyzer, optimizer,
// code generator, assembler, and artifact writer into a single pure
// function: identical source and options always produce a byte-identical
// result, and there is no process-global mutable state for two
// invocations to interfere through.
package compiler

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/r3e-network/neo-solidity-sub001/internal/artifact"
	"github.com/r3e-network/neo-solidity-sub001/internal/assembler"
	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/codegen"
	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
	"github.com/r3e-network/neo-solidity-sub001/internal/lexer"
	"github.com/r3e-network/neo-solidity-sub001/internal/optimizer"
	"github.com/r3e-network/neo-solidity-sub001/internal/parser"
	"github.com/r3e-network/neo-solidity-sub001/internal/sema"
	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// Result is a successful compile's output: the artifact and its
// rendering in the requested output format, plus any warnings that
// accompanied the success.
type Result struct {
	Artifact *artifact.Artifact
	Rendered []byte
	Warnings []diagnostics.Diagnostic
}

// Compile runs the full pipeline over source under opt. It short-circuits
// at the first stage producing errors; the returned diagnostic list is
// always non-empty on failure and always empty on success (warnings
// travel on Result.Warnings instead).
func Compile(source string, opt Options) (*Result, []diagnostics.Diagnostic) {
	if !validateTargetVersion(opt.TargetVersion) {
		msg := fmt.Sprintf("target_version %q is outside the supported range [%s, %s]", opt.TargetVersion, MinTargetVersion, MaxTargetVersion)
		return nil, []diagnostics.Diagnostic{{Kind: diagnostics.KindCodegen, Severity: diagnostics.SeverityError, Message: msg}}
	}

	toks, lexErr := lexer.Lex(source)
	if lexErr != nil {
		return nil, []diagnostics.Diagnostic{lexicalDiagnostic(lexErr)}
	}

	obj, parseErrs := parser.Parse(toks)
	if len(parseErrs) > 0 {
		return nil, syntaxDiagnostics(parseErrs)
	}

	bag := diagnostics.NewBag(diagnostics.DefaultLimit)
	res, semErr := sema.Analyze(obj, sema.Options{ExportPrefix: opt.ABIExportPrefix, Bag: bag})
	if bag.HasErrors() {
		return nil, bag.Errors()
	}
	if semErr != nil {
		return nil, []diagnostics.Diagnostic{{Kind: diagnostics.KindSemantic, Severity: diagnostics.SeverityError, Message: semErr.Error()}}
	}

	exported := make(map[*ast.FunctionDef]bool, len(res.Exported))
	for _, fn := range res.Exported {
		exported[fn] = true
	}
	optimizer.Run(obj, opt.OptimizationLevel, &optimizer.Context{Attrs: res.Attrs, Exported: exported, Bag: bag})

	prog, genErrs := codegen.Generate(obj, codegen.Options{TargetVersion: opt.TargetVersion, ABIExportPrefix: opt.ABIExportPrefix})
	if len(genErrs) > 0 {
		return nil, codegenDiagnostics(genErrs)
	}

	asm, asmErrs := assembler.Assemble(prog)
	if len(asmErrs) > 0 {
		return nil, assemblerDiagnostics(asmErrs)
	}

	safe := make(map[string]bool, len(res.Exported))
	for _, fn := range res.Exported {
		attrs := res.Attrs[fn]
		safe[fn.Name] = attrs != nil && attrs.Pure && !attrs.Reenters
	}

	a, err := artifact.Build(prog, asm, artifact.Options{
		ContractName:    opt.ContractName,
		CompilerID:      "yulc",
		CompilerVersion: Version,
		Safe:            safe,
	})
	if err != nil {
		return nil, []diagnostics.Diagnostic{{Kind: diagnostics.KindIO, Severity: diagnostics.SeverityError, Message: err.Error()}}
	}

	if opt.IncludeSourceMap {
		a.SourceMap = artifact.BuildSourceMap(sourceMapEntries(prog, asm))
	}
	if opt.IncludeDebugInfo {
		debugBytes, err := json.Marshal(debugInfo(prog, asm))
		if err != nil {
			return nil, []diagnostics.Diagnostic{{Kind: diagnostics.KindIO, Severity: diagnostics.SeverityError, Message: err.Error()}}
		}
		a.DebugInfo = debugBytes
	}

	rendered, err := render(prog, asm, a, opt.OutputFormat)
	if err != nil {
		return nil, []diagnostics.Diagnostic{{Kind: diagnostics.KindIO, Severity: diagnostics.SeverityError, Message: err.Error()}}
	}

	return &Result{Artifact: a, Rendered: rendered, Warnings: bag.Warnings()}, nil
}

func render(prog *codegen.Program, asm *assembler.Assembled, a *artifact.Artifact, format OutputFormat) ([]byte, error) {
	switch format {
	case "", FormatBinary:
		return a.Bytecode, nil
	case FormatHex:
		return []byte(hex.EncodeToString(a.Bytecode)), nil
	case FormatAssembly:
		return []byte(renderAssembly(prog, asm)), nil
	case FormatJSON:
		return a.Manifest.MarshalCanonical()
	default:
		return nil, fmt.Errorf("compiler: unknown output_format %q", format)
	}
}

func sourceMapEntries(prog *codegen.Program, asm *assembler.Assembled) []artifact.SourceMapEntry {
	var entries []artifact.SourceMapEntry
	for i, item := range prog.Items {
		instr, ok := item.(*codegen.Instruction)
		if !ok {
			continue
		}
		offset := 0
		if i < len(asm.ItemOffsets) {
			offset = asm.ItemOffsets[i]
		}
		entries = append(entries, artifact.SourceMapEntry{InstructionOffset: offset, Pos: instr.Pos})
	}
	return entries
}

func debugInfo(prog *codegen.Program, asm *assembler.Assembled) artifact.DebugInfo {
	methods := make([]artifact.DebugSymbol, 0, len(prog.Exported))
	for _, m := range prog.Exported {
		methods = append(methods, artifact.DebugSymbol{
			Name:       m.Name,
			Offset:     asm.Offsets[m.Label],
			Parameters: m.Params,
			Returns:    m.Returns,
		})
	}
	return artifact.DebugInfo{Methods: methods}
}

func lexicalDiagnostic(err error) diagnostics.Diagnostic {
	if le, ok := err.(*lexer.Error); ok {
		pos := token.Position{Line: le.Line, Column: le.Col}
		return diagnostics.Diagnostic{Kind: diagnostics.KindLexical, Severity: diagnostics.SeverityError, Message: le.Error(), Pos: &pos}
	}
	return diagnostics.Diagnostic{Kind: diagnostics.KindLexical, Severity: diagnostics.SeverityError, Message: err.Error()}
}

func syntaxDiagnostics(errs []error) []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, 0, len(errs))
	for _, e := range errs {
		if pe, ok := e.(*parser.Error); ok {
			pos := pe.Pos
			out = append(out, diagnostics.Diagnostic{Kind: diagnostics.KindSyntax, Severity: diagnostics.SeverityError, Message: pe.Message, Pos: &pos})
			continue
		}
		out = append(out, diagnostics.Diagnostic{Kind: diagnostics.KindSyntax, Severity: diagnostics.SeverityError, Message: e.Error()})
	}
	return out
}

func codegenDiagnostics(errs []error) []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, 0, len(errs))
	for _, e := range errs {
		if ce, ok := e.(*codegen.Error); ok {
			pos := ce.Pos
			out = append(out, diagnostics.Diagnostic{Kind: diagnostics.KindCodegen, Severity: diagnostics.SeverityError, Message: ce.Message, Pos: &pos})
			continue
		}
		out = append(out, diagnostics.Diagnostic{Kind: diagnostics.KindCodegen, Severity: diagnostics.SeverityError, Message: e.Error()})
	}
	return out
}

func assemblerDiagnostics(errs []error) []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, 0, len(errs))
	for _, e := range errs {
		if ae, ok := e.(*assembler.Error); ok {
			pos := ae.Pos
			out = append(out, diagnostics.Diagnostic{Kind: diagnostics.KindAssembler, Severity: diagnostics.SeverityError, Message: ae.Message, Pos: &pos})
			continue
		}
		out = append(out, diagnostics.Diagnostic{Kind: diagnostics.KindAssembler, Severity: diagnostics.SeverityError, Message: e.Error()})
	}
	return out
}
