package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// encodeCanonical writes v as JSON with object keys sorted and no
// insignificant whitespace. json.Marshal already omits whitespace; the
// only thing it does not guarantee is key order for map[string]any, so
// this walks the decoded generic value and re-encodes object members in
// sorted order.
func encodeCanonical(out *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				out.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			out.Write(kb)
			out.WriteByte(':')
			if err := encodeCanonical(out, val[k]); err != nil {
				return err
			}
		}
		out.WriteByte('}')
		return nil
	case []interface{}:
		out.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				out.WriteByte(',')
			}
			if err := encodeCanonical(out, elem); err != nil {
				return err
			}
		}
		out.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		out.Write(b)
		return nil
	}
}

// fingerprintFields is the CBOR-canonicalized subset of an Artifact that
// determines its identity: bytecode and the manifest's own canonical
// JSON. Source maps and debug info are derived, informational, and
// excluded so that enabling --include-debug-info alone never changes
// the fingerprint.
type fingerprintFields struct {
	Bytecode     []byte
	ManifestJSON []byte
}

// Fingerprint returns a deterministic CBOR-canonical encoding of a, for
// comparing two compiles of the same source and options for byte-for-
// byte identity without diffing the .nef and .manifest.json files
// directly.
func Fingerprint(a *Artifact) ([]byte, error) {
	manifestJSON, err := a.Manifest.MarshalCanonical()
	if err != nil {
		return nil, fmt.Errorf("artifact: canonicalizing manifest for fingerprint: %w", err)
	}
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("artifact: building canonical CBOR encoder: %w", err)
	}
	return encMode.Marshal(fingerprintFields{
		Bytecode:     a.Bytecode,
		ManifestJSON: manifestJSON,
	})
}
