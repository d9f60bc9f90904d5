package main

import (
	"fmt"
	"io"
	"os"

	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
)

// colorEnabled reports whether diagnostics should be rendered with ANSI
// color: on by default, off whenever NO_COLOR is set to any non-empty
// value or the --no-color flag was passed.
func colorEnabled(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

func printDiagnostics(w io.Writer, diags []diagnostics.Diagnostic, color bool) {
	for _, d := range diags {
		line := diagnostics.Render(d)
		if !color {
			fmt.Fprintln(w, line)
			continue
		}
		switch d.Severity {
		case diagnostics.SeverityWarning:
			fmt.Fprintf(w, "\x1b[33m%s\x1b[0m\n", line)
		default:
			fmt.Fprintf(w, "\x1b[31m%s\x1b[0m\n", line)
		}
	}
}
