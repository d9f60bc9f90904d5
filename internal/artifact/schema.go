package artifact

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// manifestSchemaJSON is the manifest's JSON Schema, compiled once and
// reused across every ValidateManifest call.
const manifestSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["name", "groups", "supportedstandards", "abi", "permissions", "trusts", "extra"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"groups": {"type": "array", "items": {
			"type": "object",
			"required": ["pubkey", "signature"],
			"properties": {"pubkey": {"type": "string"}, "signature": {"type": "string"}}
		}},
		"supportedstandards": {"type": "array", "items": {"type": "string"}},
		"abi": {
			"type": "object",
			"required": ["methods", "events"],
			"properties": {
				"methods": {"type": "array", "items": {
					"type": "object",
					"required": ["name", "parameters", "returntype", "offset", "safe"],
					"properties": {
						"name": {"type": "string", "minLength": 1},
						"parameters": {"type": "array", "items": {
							"type": "object",
							"required": ["name", "type"],
							"properties": {"name": {"type": "string"}, "type": {"type": "string"}}
						}},
						"returntype": {"type": "string"},
						"offset": {"type": "integer", "minimum": 0},
						"safe": {"type": "boolean"}
					}
				}},
				"events": {"type": "array"}
			}
		},
		"permissions": {"type": "array", "items": {
			"type": "object",
			"required": ["contract", "methods"],
			"properties": {
				"contract": {"type": "string"},
				"methods": {"type": "array", "items": {"type": "string"}}
			}
		}},
		"trusts": {"type": "array", "items": {"type": "string"}},
		"extra": {"type": "object"}
	}
}`

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error
)

func compiledManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		const url = "schema://manifest.json"
		if err := compiler.AddResource(url, strings.NewReader(manifestSchemaJSON)); err != nil {
			manifestSchemaErr = fmt.Errorf("artifact: adding manifest schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			manifestSchemaErr = fmt.Errorf("artifact: compiling manifest schema: %w", err)
			return
		}
		manifestSchema = schema
	})
	return manifestSchema, manifestSchemaErr
}

// ValidateManifest checks m's canonical JSON rendering against the
// manifest JSON Schema, catching shape regressions (a missing required
// field, a wrong type) before a .manifest.json ever reaches disk.
func ValidateManifest(m *Manifest) error {
	schema, err := compiledManifestSchema()
	if err != nil {
		return err
	}
	raw, err := m.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("artifact: canonicalizing manifest for validation: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("artifact: re-decoding manifest for validation: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("artifact: manifest failed schema validation: %w", err)
	}
	return nil
}
