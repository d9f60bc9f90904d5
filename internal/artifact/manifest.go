// Package artifact produces the two files a successful compile yields —
// a binary .nef container and a JSON contract manifest — plus optional
// source maps and debug blobs, from an assembled program.
package artifact

import (
	"bytes"
	"encoding/json"
)

// ABIParameter is one {name, type} pair of an ABI method's signature.
type ABIParameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ABIMethod is one exported function's manifest entry. OffsetInBytecode
// must match the assembler's function table for the same method.
type ABIMethod struct {
	Name             string         `json:"name"`
	Parameters       []ABIParameter `json:"parameters"`
	ReturnType       string         `json:"returntype"`
	OffsetInBytecode int            `json:"offset"`
	IsSafeReadOnly   bool           `json:"safe"`
}

// ABIEvent is a declared notification; the Yul surface this compiler
// accepts has no event-declaration syntax, so this is always empty, but
// the field is part of the manifest shape and is kept for forward
// compatibility with a future source language that does declare events.
type ABIEvent struct {
	Name       string         `json:"name"`
	Parameters []ABIParameter `json:"parameters"`
}

// ABI is the manifest's ABI section.
type ABI struct {
	Methods []ABIMethod `json:"methods"`
	Events  []ABIEvent  `json:"events"`
}

// Permission is one entry of the manifest's permissions array: which
// contract (by hash, group pubkey, or "*") this contract may call, and
// which of its methods.
type Permission struct {
	Contract string   `json:"contract"`
	Methods  []string `json:"methods"`
}

// Group is a signed attestation tying this contract to a public key.
type Group struct {
	PubKey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

// Extra carries free-form metadata about the compilation.
type Extra struct {
	Author   string `json:"author,omitempty"`
	Compiler string `json:"compiler,omitempty"`
	Version  string `json:"version,omitempty"`
}

// Manifest is the full contract manifest.
type Manifest struct {
	Name               string       `json:"name"`
	Groups             []Group      `json:"groups"`
	SupportedStandards []string     `json:"supportedstandards"`
	ABI                ABI          `json:"abi"`
	Permissions        []Permission `json:"permissions"`
	Trusts             []string     `json:"trusts"`
	Extra              Extra        `json:"extra"`
}

// MarshalCanonical renders m as canonical JSON: object keys sorted,
// compact (no insignificant whitespace), so identical pipelines over
// identical inputs produce byte-identical manifests.
func (m *Manifest) MarshalCanonical() ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := encodeCanonical(&out, generic); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ParseManifest parses canonical or ordinary JSON back into a Manifest,
// restoring the nil slice fields json.Unmarshal leaves as nil to their
// canonical empty-slice form.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Groups == nil {
		m.Groups = []Group{}
	}
	if m.SupportedStandards == nil {
		m.SupportedStandards = []string{}
	}
	if m.ABI.Methods == nil {
		m.ABI.Methods = []ABIMethod{}
	}
	if m.ABI.Events == nil {
		m.ABI.Events = []ABIEvent{}
	}
	if m.Permissions == nil {
		m.Permissions = []Permission{}
	}
	if m.Trusts == nil {
		m.Trusts = []string{}
	}
	return &m, nil
}
