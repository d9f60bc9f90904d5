package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNEFRoundTrip(t *testing.T) {
	n := &NEF{
		CompilerID: "yulc-0.1.0",
		Source:     "https://example.com/contract.yul",
		Bytecode:   []byte{0x40, 0x41, 0x42},
	}
	raw, err := EncodeNEF(n)
	require.NoError(t, err)

	got, err := DecodeNEF(raw)
	require.NoError(t, err)
	assert.Equal(t, n.CompilerID, got.CompilerID)
	assert.Equal(t, n.Source, got.Source)
	assert.Equal(t, n.Bytecode, got.Bytecode)
}

func TestNEFMagicBytes(t *testing.T) {
	n := &NEF{CompilerID: "yulc", Bytecode: []byte{0x01}}
	raw, err := EncodeNEF(n)
	require.NoError(t, err)
	assert.Equal(t, []byte("NEF3"), raw[:4])
}

func TestNEFRejectsCorruptedChecksum(t *testing.T) {
	n := &NEF{CompilerID: "yulc", Bytecode: []byte{0x01, 0x02}}
	raw, err := EncodeNEF(n)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF

	_, err = DecodeNEF(raw)
	assert.Error(t, err)
}

func TestNEFRejectsBadMagic(t *testing.T) {
	n := &NEF{CompilerID: "yulc", Bytecode: []byte{0x01}}
	raw, err := EncodeNEF(n)
	require.NoError(t, err)
	raw[0] = 'X'

	_, err = DecodeNEF(raw)
	assert.Error(t, err)
}

func TestNEFRejectsOversizedCompilerID(t *testing.T) {
	n := &NEF{CompilerID: string(make([]byte, compilerIDSize+1)), Bytecode: []byte{0x01}}
	_, err := EncodeNEF(n)
	assert.Error(t, err)
}

func TestNEFEmptyBytecode(t *testing.T) {
	n := &NEF{CompilerID: "yulc", Bytecode: nil}
	raw, err := EncodeNEF(n)
	require.NoError(t, err)
	got, err := DecodeNEF(raw)
	require.NoError(t, err)
	assert.Empty(t, got.Bytecode)
}
