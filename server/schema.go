package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed submit.schema.json
var submitSchemaJSON []byte

var submitSchema = mustCompileSchema("submit.schema.json", submitSchemaJSON)

func mustCompileSchema(name string, data []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return schema
}

// submitRequest is the JSON form of POST /ocr/.
type submitRequest struct {
	Path       string `json:"path"`
	SingleFile *bool  `json:"single_file,omitempty"`
}

// decodeSubmit validates body against the submit schema and decodes it.
func decodeSubmit(body []byte) (*submitRequest, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := submitSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// multiDoc reports whether each file should become its own document.
// single_file defaults to true.
func (r *submitRequest) multiDoc() bool {
	return r.SingleFile != nil && !*r.SingleFile
}
