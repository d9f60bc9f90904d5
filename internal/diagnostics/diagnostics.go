// Package diagnostics implements the error/warning taxonomy and rendering
// shared by every pipeline stage.
package diagnostics

import (
	"fmt"

	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

// Severity distinguishes fatal diagnostics from advisory ones. Warnings
// accompany a successful result and never cause failure.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Kind is the closed taxonomy of diagnostic kinds.
type Kind string

const (
	KindLexical      Kind = "LexicalError"
	KindSyntax       Kind = "SyntaxError"
	KindSemantic     Kind = "SemanticError"
	KindOptimization Kind = "OptimizationError"
	KindCodegen      Kind = "CodegenError"
	KindAssembler    Kind = "AssemblerError"
	KindIO           Kind = "IoError"
)

// Diagnostic is a single error or warning, carrying a kind, a
// human-readable message, and zero or one source positions.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Pos      *token.Position // nil when the diagnostic has no position
	File     string
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped directly.
func (d Diagnostic) Error() string {
	return Render(d)
}

// Render formats a diagnostic as "<file>:<line>:<col>: <severity>:
// <message>". When Pos is nil the location is omitted.
func Render(d Diagnostic) string {
	file := d.File
	if file == "" {
		file = "<input>"
	}
	if d.Pos == nil {
		return fmt.Sprintf("%s: %s: %s", file, d.Severity, d.Message)
	}
	col := displayColumn(d)
	return fmt.Sprintf("%s:%d:%d: %s: %s", file, d.Pos.Line, col, d.Severity, d.Message)
}
