package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfig_FieldCreatesMissing(t *testing.T) {
	cfg := BuildConfig{}
	f := cfg.Field("auth_link")

	require.NotNil(t, f)
	assert.Equal(t, "auth_link", f.Name)
	assert.Same(t, f, cfg["auth_link"])
}

func TestBuildConfig_String(t *testing.T) {
	cfg := BuildConfig{
		"entity_id":    {Name: "entity_id", Value: "team-a"},
		"action_names": {Name: "action_names", Value: []string{"A"}},
		"nil_field":    nil,
	}

	assert.Equal(t, "team-a", cfg.String("entity_id"))
	assert.Equal(t, "", cfg.String("action_names"))
	assert.Equal(t, "", cfg.String("nil_field"))
	assert.Equal(t, "", cfg.String("missing"))
}

func TestBuildConfig_Strings(t *testing.T) {
	cfg := BuildConfig{
		"typed":   {Value: []string{"A", "B"}},
		"decoded": {Value: []any{"A", 3, "B"}},
		"single":  {Value: "A"},
		"empty":   {Value: ""},
		"number":  {Value: 1.5},
	}

	assert.Equal(t, []string{"A", "B"}, cfg.Strings("typed"))
	assert.Equal(t, []string{"A", "B"}, cfg.Strings("decoded"))
	assert.Equal(t, []string{"A"}, cfg.Strings("single"))
	assert.Nil(t, cfg.Strings("empty"))
	assert.Nil(t, cfg.Strings("number"))
	assert.Nil(t, cfg.Strings("missing"))
}

func TestBuildConfig_CloneIsDeep(t *testing.T) {
	cfg := BuildConfig{
		"action_names": {Name: "action_names", Value: []string{"A"}, Options: []string{"A", "B"}},
	}
	cp := cfg.Clone()
	assert.Equal(t, cfg, cp)

	cp.SetValue("action_names", []string{"B"})
	cp["action_names"].Options[0] = "Z"

	assert.Equal(t, []string{"A"}, cfg.Strings("action_names"))
	assert.Equal(t, "A", cfg["action_names"].Options[0])
}

func TestBuildConfig_MarshalRoundTrip(t *testing.T) {
	cfg := BuildConfig{
		"api_key":      {Name: "api_key", Type: FieldSecret, Value: "ck", Required: true},
		"action_names": {Name: "action_names", Type: FieldMultiselect, Value: []string{"GITHUB_STAR_REPO"}},
	}

	data, err := MarshalBuildConfig(cfg)
	require.NoError(t, err)

	got, err := UnmarshalBuildConfig(data)
	require.NoError(t, err)
	assert.Equal(t, "ck", got.String("api_key"))
	assert.Equal(t, []string{"GITHUB_STAR_REPO"}, got.Strings("action_names"))
	assert.Equal(t, FieldMultiselect, got["action_names"].Type)
}

func TestUnmarshalBuildConfig_Invalid(t *testing.T) {
	_, err := UnmarshalBuildConfig([]byte(`{"api_key":`))
	require.Error(t, err)
	assert.Equal(t, ErrCodeValidation, CodeOf(err))

	cfg, err := UnmarshalBuildConfig([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}
