package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed ctrf.schema.json
var ctrfSchemaJSON []byte

// compileSchema compiles the embedded CTRF schema once per store.
func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ctrf.schema.json", bytes.NewReader(ctrfSchemaJSON)); err != nil {
		return nil, fmt.Errorf("loading embedded CTRF schema: %w", err)
	}
	schema, err := compiler.Compile("ctrf.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling embedded CTRF schema: %w", err)
	}
	return schema, nil
}

// validateReport checks a marshaled report against the CTRF schema.
func validateReport(schema *jsonschema.Schema, raw []byte) error {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decoding report for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("report violates CTRF schema: %w", err)
	}
	return nil
}
