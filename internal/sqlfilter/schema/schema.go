// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package schema

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaState holds the compiled schema and sync.Once for thread-safe
// lazy compilation, matching the teacher's plugin manifest schema cache.
type schemaState struct {
	once   sync.Once
	schema *jschema.Schema
	err    error
}

var globalSchemaState = &schemaState{}

// GenerateSchema generates a JSON Schema document from
// ContentFilterDescription, for hosts to validate description documents
// against before submitting them to the engine.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&ContentFilterDescription{})

	s.ID = jsonschema.ID(GetSchemaID())
	s.Title = "Content Filter Description"
	s.Description = "Schema for expression-kind DDS content filter descriptions"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}
	data = append(data, '\n')
	return data, nil
}

// ValidateSchema validates a JSON-encoded ContentFilterDescription
// document against the generated schema. It returns nil if data both
// parses as JSON and satisfies the schema.
func ValidateSchema(data []byte) error {
	if len(data) == 0 {
		return oops.Code("BAD_PARAMETER").Errorf("schema: description document is empty")
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err != nil {
		return oops.Code("BAD_PARAMETER").Wrap(err)
	}

	sch, err := getCompiledSchema()
	if err != nil {
		return oops.Code("ERROR").Wrap(err)
	}

	if err := sch.Validate(jsonData); err != nil {
		return oops.Code("BAD_PARAMETER").Wrap(err)
	}
	return nil
}

// Decode validates data against the schema and unmarshals it into a
// ContentFilterDescription, the combined entry point cmd/sqlfilter's
// parse/eval/explain subcommands use for an incoming description file.
func Decode(data []byte) (ContentFilterDescription, error) {
	if err := ValidateSchema(data); err != nil {
		return ContentFilterDescription{}, err
	}
	var d ContentFilterDescription
	if err := json.Unmarshal(data, &d); err != nil {
		return ContentFilterDescription{}, oops.Code("BAD_PARAMETER").Wrap(err)
	}
	return d, nil
}

func getCompiledSchema() (*jschema.Schema, error) {
	globalSchemaState.once.Do(func() {
		globalSchemaState.schema, globalSchemaState.err = compileSchema()
	})
	return globalSchemaState.schema, globalSchemaState.err
}

func compileSchema() (*jschema.Schema, error) {
	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}

	var schemaData any
	if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}

	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}
	return sch, nil
}

// ResetSchemaCache clears the cached compiled schema. Used by tests that
// exercise GenerateSchema/ValidateSchema repeatedly in isolation.
func ResetSchemaCache() {
	globalSchemaState = &schemaState{}
}

// GetSchemaID returns the schema's $id.
func GetSchemaID() string {
	return "https://eclipse-cyclonedds.github.io/cdds-sqlfilter/schemas/content-filter.schema.json"
}

// FormatSchemaError strips the oops wrapping boilerplate off a
// ValidateSchema error for display in the CLI.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}
