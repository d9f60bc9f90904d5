package opcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownOpcode(t *testing.T) {
	d, err := Lookup("ADD", "3.0")
	require.NoError(t, err)
	assert.Equal(t, Opcode(0x9E), d.Value)
}

func TestLookupUnknownOpcodeRejected(t *testing.T) {
	_, err := Lookup("NOTANOPCODE", "3.5")
	assert.Error(t, err)
}

func TestLookupGatedByTargetVersion(t *testing.T) {
	_, err := Lookup("SQRT", "3.0")
	assert.Error(t, err, "SQRT requires 3.2, must be refused at 3.0")

	_, err = Lookup("SQRT", "3.2")
	assert.NoError(t, err)
}

func TestLookupAcceptsNewerTarget(t *testing.T) {
	d, err := Lookup("ABORTMSG", "3.5")
	require.NoError(t, err)
	assert.Equal(t, "ABORTMSG", d.Name)
}

func TestByValueRoundTrip(t *testing.T) {
	d, ok := ByValue(0x9E)
	require.True(t, ok)
	assert.Equal(t, "ADD", d.Name)
}

func TestNoDuplicateByteValues(t *testing.T) {
	seen := make(map[Opcode]string)
	for name, d := range Table {
		if other, dup := seen[d.Value]; dup {
			t.Fatalf("opcode byte 0x%02X used by both %q and %q", d.Value, other, name)
		}
		seen[d.Value] = name
	}
}
