package internal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	campus "github.com/lychee-technology/campus"
)

// InputSchema is a resolved JSON schema applied to each mutation input.
type InputSchema struct {
	resolved *jsonschema.Resolved
}

// CompileInputSchema parses and resolves a JSON schema document.
func CompileInputSchema(raw []byte) (*InputSchema, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve JSON schema: %w", err)
	}
	return &InputSchema{resolved: resolved}, nil
}

// MustCompileInputSchema is CompileInputSchema for schemas fixed at build time.
func MustCompileInputSchema(raw string) *InputSchema {
	s, err := CompileInputSchema([]byte(raw))
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks one value after round-tripping it through its JSON encoding.
func (s *InputSchema) Validate(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal JSON data: %w", err)
	}
	return s.resolved.Validate(doc)
}

// ValidateDataAgainstSchema flags each input that fails the schema.
func ValidateDataAgainstSchema[T any](inputs []T, schema *InputSchema, entity string) campus.ErrorMap {
	errs := campus.ErrorMap{}
	for i, in := range inputs {
		if err := schema.Validate(in); err != nil {
			errs[i] = campus.NewSchemaError(i, entity, "input", err.Error())
		}
	}
	return errs
}

const createSchoolSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 120},
    "shortcode": {"type": "string", "pattern": "^[A-Z0-9]{1,%d}$"},
    "organizationId": {"type": "string"}
  },
  "required": ["name", "shortcode", "organizationId"]
}`

// schoolSchemas caches compiled create-school schemas by shortcode limit.
var schoolSchemas sync.Map

// schoolInputSchema returns the create-school schema for the configured shortcode limit.
func schoolInputSchema(maxShortcode int) *InputSchema {
	if s, ok := schoolSchemas.Load(maxShortcode); ok {
		return s.(*InputSchema)
	}
	s, _ := schoolSchemas.LoadOrStore(maxShortcode, MustCompileInputSchema(fmt.Sprintf(createSchoolSchema, maxShortcode)))
	return s.(*InputSchema)
}

// Update inputs omit absent fields, so these schemas only constrain what is sent.
var (
	updateSchoolInputSchema = MustCompileInputSchema(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 120}
  }
}`)
	updateAgeRangeInputSchema = MustCompileInputSchema(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 50}
  }
}`)
	nameInputSchema = MustCompileInputSchema(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1}
  }
}`)
)

const createAgeRangeSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 50},
    "lowValueUnit": {"enum": ["year", "month"]},
    "highValueUnit": {"enum": ["year", "month"]}
  },
  "required": ["name", "lowValueUnit", "highValueUnit"]
}`

var ageRangeInputSchema = MustCompileInputSchema(createAgeRangeSchema)
