package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	return &Manifest{
		Name:               "Counter",
		Groups:             []Group{},
		SupportedStandards: []string{"NEP-17"},
		ABI: ABI{
			Methods: []ABIMethod{
				{Name: "external_increment", Parameters: []ABIParameter{{Name: "by", Type: ParamType}}, ReturnType: ParamType, OffsetInBytecode: 12, IsSafeReadOnly: false},
				{Name: "external_get", Parameters: []ABIParameter{}, ReturnType: ParamType, OffsetInBytecode: 40, IsSafeReadOnly: true},
			},
			Events: []ABIEvent{},
		},
		Permissions: []Permission{{Contract: "*", Methods: []string{"*"}}},
		Trusts:      []string{},
		Extra:       Extra{Author: "test", Compiler: "yulc", Version: "0.1.0"},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	m := sampleManifest()
	raw, err := m.MarshalCanonical()
	require.NoError(t, err)

	got, err := ParseManifest(raw)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestManifestCanonicalKeysAreSorted(t *testing.T) {
	m := sampleManifest()
	raw, err := m.MarshalCanonical()
	require.NoError(t, err)

	// "abi" sorts before "name" before "permissions"; a naive
	// struct-field-order encoding would put "name" first.
	s := string(raw)
	assert.Less(t, indexOf(s, `"abi"`), indexOf(s, `"name"`))
	assert.Less(t, indexOf(s, `"name"`), indexOf(s, `"permissions"`))
}

func TestManifestCanonicalHasNoInsignificantWhitespace(t *testing.T) {
	m := sampleManifest()
	raw, err := m.MarshalCanonical()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "\n")
	assert.NotContains(t, string(raw), "  ")
}

func TestManifestCanonicalIsDeterministic(t *testing.T) {
	m := sampleManifest()
	a, err := m.MarshalCanonical()
	require.NoError(t, err)
	b, err := m.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestValidateManifestAcceptsWellFormed(t *testing.T) {
	assert.NoError(t, ValidateManifest(sampleManifest()))
}

func TestValidateManifestRejectsMissingName(t *testing.T) {
	m := sampleManifest()
	m.Name = ""
	// name is present but empty; schema requires minLength 1.
	assert.Error(t, ValidateManifest(m))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
