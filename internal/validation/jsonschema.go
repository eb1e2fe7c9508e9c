package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/composiotools/pkg/schema"
)

// buildConfigSchemaJSON is the JSON Schema for a persisted node BuildConfig.
const buildConfigSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://composiotools.dev/schemas/build_config.json",
  "type": "object",
  "additionalProperties": { "$ref": "#/$defs/field" },
  "$defs": {
    "field": {
      "type": "object",
      "required": ["name", "type"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "display_name": { "type": "string" },
        "type": {
          "type": "string",
          "enum": ["message_text", "secret", "dropdown", "link", "str", "multiselect", "hidden"]
        },
        "value": {},
        "options": {
          "type": "array",
          "items": { "type": "string" }
        },
        "info": { "type": "string" },
        "required": { "type": "boolean" },
        "advanced": { "type": "boolean" },
        "dynamic": { "type": "boolean" },
        "refresh_button": { "type": "boolean" }
      },
      "additionalProperties": false
    }
  }
}`

// JSONSchemaValidator implements Validator using JSON Schema Draft 2020-12.
// It is safe for concurrent use.
type JSONSchemaValidator struct {
	buildConfigSchema *jsonschema.Schema

	// mu guards the cache of compiled action parameter schemas.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator creates a validator with the BuildConfig schema pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := newInputCompiler()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(buildConfigSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal build config schema: %w", err)
	}
	if err := c.AddResource("https://composiotools.dev/schemas/build_config.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add build config schema resource: %w", err)
	}

	bcSchema, err := c.Compile("https://composiotools.dev/schemas/build_config.json")
	if err != nil {
		return nil, fmt.Errorf("compile build config schema: %w", err)
	}

	return &JSONSchemaValidator{
		buildConfigSchema: bcSchema,
		cache:             make(map[string]*jsonschema.Schema),
	}, nil
}

// ValidateBuildConfig checks a BuildConfig's shape, and that each entry's
// key matches its field name.
func (v *JSONSchemaValidator) ValidateBuildConfig(cfg schema.BuildConfig) error {
	if cfg == nil {
		return schema.NewError(schema.ErrCodeValidation, "build config is nil")
	}

	doc, err := toJSONValue(cfg)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize build config").WithCause(err)
	}
	if err := v.buildConfigSchema.Validate(doc); err != nil {
		return toToolsetError(err)
	}

	for key, f := range cfg {
		if f != nil && f.Name != key {
			return schema.NewErrorf(schema.ErrCodeValidation, "field %q is stored under key %q", f.Name, key).WithField(key)
		}
	}
	return nil
}

// ValidateInput validates input data against a JSON Schema provided as raw bytes.
// The schema is compiled and cached for subsequent calls with the same schema.
func (v *JSONSchemaValidator) ValidateInput(input map[string]any, inputSchema []byte) error {
	if input == nil {
		return schema.NewError(schema.ErrCodeValidation, "input is nil")
	}
	if len(inputSchema) == 0 {
		return nil
	}

	compiled, err := v.getOrCompile(inputSchema)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid input schema").WithCause(err)
	}

	doc, err := toJSONValue(input)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize input").WithCause(err)
	}

	if err := compiled.Validate(doc); err != nil {
		return toToolsetError(err)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new one.
func (v *JSONSchemaValidator) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Each dynamic schema gets a unique URL and compiler to avoid resource collisions.
	url := fmt.Sprintf("composiotools://action-parameters/%d", len(v.cache))
	c := newInputCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

func newInputCompiler() *jsonschema.Compiler {
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	return c
}

// toJSONValue round-trips a Go value through JSON so numbers become
// json.Number, which the jsonschema library requires.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toToolsetError converts a jsonschema.ValidationError into a ToolsetError
// listing each violation with its instance location.
func toToolsetError(err error) *schema.ToolsetError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}
	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
