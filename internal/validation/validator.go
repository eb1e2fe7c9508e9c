package validation

import "github.com/rendis/composiotools/pkg/schema"

// Validator checks node configurations and action inputs.
// Uses JSON Schema Draft 2020-12.
type Validator interface {
	ValidateBuildConfig(cfg schema.BuildConfig) error
	ValidateInput(input map[string]any, inputSchema []byte) error
}

// Compile-time interface satisfaction check.
var _ Validator = (*JSONSchemaValidator)(nil)
