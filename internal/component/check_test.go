package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/composiotools/internal/composio/composiotest"
	"github.com/rendis/composiotools/internal/validation"
	"github.com/rendis/composiotools/pkg/schema"
)

func TestCheck_DefaultConfig(t *testing.T) {
	r := Check(DefaultBuildConfig())

	assert.False(t, r.OK())
	require.Len(t, r.Errors, 2)
	assert.Equal(t, FieldAPIKey, r.Errors[0].Field)
	assert.Equal(t, FieldActionNames, r.Errors[1].Field)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, FieldAppNames, r.Warnings[0].Field)
}

func TestCheck_ReadyNode(t *testing.T) {
	cfg := configWithKey()
	cfg.SetValue(FieldAppNames, "GITHUB_CONNECTED")
	cfg.SetValue(FieldAuthState, string(schema.AuthConnected))
	cfg.SetValue(FieldActionNames, []string{"GITHUB_STAR_REPO"})

	r := Check(cfg)
	assert.True(t, r.OK())
	assert.Empty(t, r.Warnings)
	assert.NoError(t, r.ToError())
}

func TestCheck_Warnings(t *testing.T) {
	cfg := configWithKey()
	cfg.SetValue(FieldEntityID, "")
	cfg.SetValue(FieldAppNames, "GITHUB")
	cfg.SetValue(FieldAuthState, string(schema.AuthAwaitingLink))
	cfg.SetValue(FieldActionNames, []string{"GITHUB_STAR_REPO", "SLACK_SEND_MESSAGE"})

	r := Check(cfg)
	assert.True(t, r.OK())
	require.Len(t, r.Warnings, 3)
	assert.Equal(t, FieldEntityID, r.Warnings[0].Field)
	assert.Equal(t, FieldAuthStatus, r.Warnings[1].Field)
	assert.Contains(t, r.Warnings[1].Message, "awaiting_link")
	assert.Contains(t, r.Warnings[2].Message, "SLACK_SEND_MESSAGE")
}

func TestCheck_BlankActionSelection(t *testing.T) {
	cfg := configWithKey()
	cfg.SetValue(FieldActionNames, []string{""})

	r := Check(cfg)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, FieldActionNames, r.Errors[0].Field)
}

func newCheckingComponent(t *testing.T) *Component {
	t.Helper()
	v, err := validation.NewJSONSchemaValidator()
	require.NoError(t, err)
	c, _ := newComponent(t, composiotest.NewFakeClient())
	c.validator = v
	return c
}

func TestComponentCheck_ValidShape(t *testing.T) {
	c := newCheckingComponent(t)

	cfg := configWithKey()
	cfg.SetValue(FieldAppNames, "GITHUB_CONNECTED")
	cfg.SetValue(FieldAuthState, string(schema.AuthConnected))
	cfg.SetValue(FieldActionNames, []string{"GITHUB_STAR_REPO"})

	assert.True(t, c.Check(cfg).OK())
}

func TestComponentCheck_MalformedShape(t *testing.T) {
	c := newCheckingComponent(t)

	cfg := configWithKey()
	cfg.SetValue(FieldAppNames, "GITHUB_CONNECTED")
	cfg.SetValue(FieldAuthState, string(schema.AuthConnected))
	cfg.SetValue(FieldActionNames, []string{"GITHUB_STAR_REPO"})
	cfg[FieldAuthLink].Type = "button"

	r := c.Check(cfg)
	require.False(t, r.OK())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, schema.ErrCodeValidation, r.Errors[0].Code)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(r.ToError()))
}

func TestComponentCheck_NoValidator(t *testing.T) {
	c, _ := newComponent(t, composiotest.NewFakeClient())
	cfg := DefaultBuildConfig()
	cfg[FieldAuthLink].Type = "button"

	assert.Equal(t, len(Check(cfg).Errors), len(c.Check(cfg).Errors))
}
