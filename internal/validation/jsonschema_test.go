package validation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/composiotools/pkg/schema"
)

func TestNewJSONSchemaValidator(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.NotNil(t, v.buildConfigSchema)
}

// --- ValidateBuildConfig ---

func TestValidateBuildConfig_Nil(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	err = v.ValidateBuildConfig(nil)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestValidateBuildConfig_Valid(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	cfg := schema.BuildConfig{
		"app_names": {
			Name:    "app_names",
			Type:    schema.FieldDropdown,
			Value:   "GITHUB",
			Options: []string{"GITHUB", "SLACK"},
		},
		"action_names": {
			Name:  "action_names",
			Type:  schema.FieldMultiselect,
			Value: []string{"GITHUB_STAR_REPO"},
		},
	}
	assert.NoError(t, v.ValidateBuildConfig(cfg))
}

func TestValidateBuildConfig_UnknownType(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	cfg := schema.BuildConfig{
		"entity_id": {Name: "entity_id", Type: "checkbox"},
	}
	err = v.ValidateBuildConfig(cfg)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestValidateBuildConfig_KeyMismatch(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	cfg := schema.BuildConfig{
		"entity_id": {Name: "api_key", Type: schema.FieldSecret},
	}
	err = v.ValidateBuildConfig(cfg)
	require.Error(t, err)

	var te *schema.ToolsetError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "entity_id", te.Field)
}

// --- ValidateInput ---

func TestValidateInput_NilInput(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	err = v.ValidateInput(nil, []byte(`{"type": "object"}`))
	require.Error(t, err)

	te, ok := err.(*schema.ToolsetError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, te.Code)
	assert.Contains(t, te.Message, "nil")
}

func TestValidateInput_EmptySchema(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	assert.NoError(t, v.ValidateInput(map[string]any{"foo": "bar"}, nil))
	assert.NoError(t, v.ValidateInput(map[string]any{"foo": "bar"}, []byte{}))
}

func TestValidateInput_ActionParameters(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	params := []byte(`{
		"type": "object",
		"required": ["owner", "repo"],
		"properties": {
			"owner": {"type": "string"},
			"repo": {"type": "string"},
			"per_page": {"type": "integer", "minimum": 1}
		}
	}`)

	assert.NoError(t, v.ValidateInput(map[string]any{"owner": "rendis", "repo": "composiotools"}, params))

	err = v.ValidateInput(map[string]any{"owner": "rendis"}, params)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))

	err = v.ValidateInput(map[string]any{"owner": "rendis", "repo": "x", "per_page": 0}, params)
	require.Error(t, err)
}

func TestValidateInput_MultipleErrors(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	params := []byte(`{
		"type": "object",
		"properties": {
			"a": {"type": "string"},
			"b": {"type": "integer"}
		}
	}`)

	err = v.ValidateInput(map[string]any{"a": 1, "b": "x"}, params)
	require.Error(t, err)

	var te *schema.ToolsetError
	require.ErrorAs(t, err, &te)
	violations, ok := te.Details["violations"].([]string)
	require.True(t, ok)
	assert.Len(t, violations, 2)
}

func TestValidateInput_InvalidSchema(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	err = v.ValidateInput(map[string]any{}, []byte(`{not json`))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestValidateInput_SchemaCaching(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	params := []byte(`{"type": "object"}`)
	require.NoError(t, v.ValidateInput(map[string]any{}, params))
	require.NoError(t, v.ValidateInput(map[string]any{}, params))

	v.mu.RLock()
	defer v.mu.RUnlock()
	assert.Len(t, v.cache, 1)
}

func TestValidateInput_Concurrent(t *testing.T) {
	v, err := NewJSONSchemaValidator()
	require.NoError(t, err)

	params := []byte(`{"type": "object", "required": ["q"]}`)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, v.ValidateInput(map[string]any{"q": "x"}, params))
		}()
	}
	wg.Wait()
}
