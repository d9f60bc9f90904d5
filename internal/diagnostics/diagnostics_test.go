package diagnostics

import (
	"testing"

	"github.com/r3e-network/neo-solidity-sub001/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWithPosition(t *testing.T) {
	d := Diagnostic{
		Kind:     KindSyntax,
		Severity: SeverityError,
		Message:  "unexpected token",
		Pos:      &token.Position{Line: 3, Column: 5},
		File:     "a.yul",
	}
	assert.Equal(t, "a.yul:3:5: error: unexpected token", Render(d))
}

func TestRenderWithoutPosition(t *testing.T) {
	d := Diagnostic{Kind: KindIO, Severity: SeverityError, Message: "write failed"}
	assert.Equal(t, "<input>: error: write failed", Render(d))
}

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	b.AddError(KindSyntax, "one")
	b.AddError(KindSyntax, "two")
	b.AddError(KindSyntax, "three")
	require.Len(t, b.Diagnostics(), 2)
	assert.True(t, b.Truncated())
}

func TestBagSeverityFilters(t *testing.T) {
	b := NewBag(0)
	b.AddError(KindSemantic, "bad")
	b.AddWarningAt(KindOptimization, "unused", token.Position{Line: 1, Column: 1})
	assert.True(t, b.HasErrors())
	assert.Len(t, b.Errors(), 1)
	assert.Len(t, b.Warnings(), 1)
}

func TestDisplayWidthWideRunes(t *testing.T) {
	assert.Equal(t, 1, DisplayWidth("a"))
	assert.Equal(t, 4, DisplayWidth("日本")) // two full-width runes -> 4 columns
}
