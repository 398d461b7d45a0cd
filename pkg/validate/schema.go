package validate

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// JSONSchemaValidator is the default SchemaValidator, backed by a compiled
// JSON Schema. Compilation happens once at construction so repeated
// Validate calls (once per bundle permutation) reuse the compiled schema
// instead of re-parsing it.
type JSONSchemaValidator struct {
	schema *jsonschema.Schema
}

// NewJSONSchemaValidator compiles schemaJSON (identified by id, used as the
// schema's base URI for resolving any internal $ref) into a reusable
// validator.
func NewJSONSchemaValidator(id string, schemaJSON []byte) (*JSONSchemaValidator, error) {
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("validate: decoding schema %s: %w", id, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, doc); err != nil {
		return nil, fmt.Errorf("validate: adding schema resource %s: %w", id, err)
	}
	schema, err := compiler.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("validate: compiling schema %s: %w", id, err)
	}
	return &JSONSchemaValidator{schema: schema}, nil
}

// Validate implements SchemaValidator.
func (v *JSONSchemaValidator) Validate(instance any) []Issue {
	err := v.schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Issue{{Severity: SeverityError, Kind: "schema", Message: err.Error()}}
	}
	var issues []Issue
	collectSchemaIssues(ve, &issues)
	return issues
}

func collectSchemaIssues(ve *jsonschema.ValidationError, out *[]Issue) {
	if len(ve.Causes) == 0 {
		*out = append(*out, Issue{
			Severity: SeverityError,
			Kind:     "schema",
			Message:  fmt.Sprintf("%s: %s", joinPointer(ve.InstanceLocation), ve.Error()),
		})
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaIssues(cause, out)
	}
}

func joinPointer(loc []string) string {
	if len(loc) == 0 {
		return "#"
	}
	s := "#"
	for _, seg := range loc {
		s += "/" + seg
	}
	return s
}
