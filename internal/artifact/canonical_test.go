package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	a := &Artifact{Bytecode: []byte{0x01, 0x02, 0x03}, Manifest: sampleManifest()}
	f1, err := Fingerprint(a)
	require.NoError(t, err)
	f2, err := Fingerprint(a)
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestFingerprintDiffersOnBytecodeChange(t *testing.T) {
	a1 := &Artifact{Bytecode: []byte{0x01, 0x02, 0x03}, Manifest: sampleManifest()}
	a2 := &Artifact{Bytecode: []byte{0x01, 0x02, 0x04}, Manifest: sampleManifest()}
	f1, err := Fingerprint(a1)
	require.NoError(t, err)
	f2, err := Fingerprint(a2)
	require.NoError(t, err)
	assert.NotEqual(t, f1, f2)
}

func TestFingerprintIgnoresSourceMapAndDebugInfo(t *testing.T) {
	base := &Artifact{Bytecode: []byte{0x01}, Manifest: sampleManifest()}
	withExtras := &Artifact{
		Bytecode:  []byte{0x01},
		Manifest:  sampleManifest(),
		SourceMap: "0:1:1:0;",
		DebugInfo: []byte(`{"methods":[]}`),
	}
	f1, err := Fingerprint(base)
	require.NoError(t, err)
	f2, err := Fingerprint(withExtras)
	require.NoError(t, err)
	assert.Equal(t, f1, f2, "--include-debug-info alone must not change the fingerprint")
}
