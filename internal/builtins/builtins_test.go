package builtins

import (
	"testing"

	"github.com/r3e-network/neo-solidity-sub001/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGasDeduplicated(t *testing.T) {
	b, ok := Lookup("gas")
	require.True(t, ok)
	assert.Equal(t, token.CategoryEnvironment, b.Category)

	count := 0
	for name := range Table {
		if name == "gas" {
			count++
		}
	}
	assert.Equal(t, 1, count, "gas must appear exactly once in the table")
}

func TestExtcodesizeIsEnvironmentOnly(t *testing.T) {
	b, ok := Lookup("extcodesize")
	require.True(t, ok)
	assert.Equal(t, token.CategoryEnvironment, b.Category)
}

func TestArithmeticIsPureAndNonReentrant(t *testing.T) {
	for _, name := range []string{"add", "sub", "mul", "div", "eq", "and"} {
		b, ok := Lookup(name)
		require.True(t, ok, name)
		assert.True(t, b.Pure, name)
		assert.False(t, b.Reenters, name)
	}
}

func TestCallsReenter(t *testing.T) {
	for _, name := range []string{"call", "staticcall", "delegatecall", "create", "create2"} {
		b, ok := Lookup(name)
		require.True(t, ok, name)
		assert.True(t, b.Reenters, name)
	}
}

func TestMemoryAndStorageHaveInteropHashes(t *testing.T) {
	for _, name := range []string{"mload", "mstore", "sload", "sstore", "caller"} {
		_, ok := InteropHash(name)
		assert.True(t, ok, name)
	}
	if _, ok := InteropHash("add"); ok {
		t.Fatal("pure arithmetic builtin must not have an interop hash")
	}
}

func TestUnknownBuiltinNotFound(t *testing.T) {
	_, ok := Lookup("frobnicate")
	assert.False(t, ok)
}
